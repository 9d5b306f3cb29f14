package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "part.stl")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	fw, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	var mu sync.Mutex
	var calls []string
	require.NoError(t, fw.Watch([]string{file}, func(path string) {
		mu.Lock()
		calls = append(calls, path)
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte{byte('b' + i)}, 0o644))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 1)
	absFile, _ := filepath.Abs(file)
	assert.Equal(t, absFile, calls[0])
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "watched.scad")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	fw, err := New(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	called := make(chan string, 1)
	require.NoError(t, fw.Watch([]string{file}, func(path string) { called <- path }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.scad"), []byte("x"), 0o644))
	select {
	case path := <-called:
		t.Fatalf("unexpected callback for %s", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fw, err := New(DefaultDebounce, nil)
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.stl")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	fw, err := New(DefaultDebounce, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, fw.Watch([]string{file}, func(string) {}))
	require.NoError(t, fw.RemoveAll())
	assert.Empty(t, fw.files)
}
