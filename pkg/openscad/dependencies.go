package openscad

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matches: use <file.scad>, include <./lib/file.scad>
var dependencyPattern = regexp.MustCompile(`^\s*(?:use|include)\s*<([^>]+)>`)

// Dependencies returns scadFile and every file it pulls in through use or
// include statements, transitively, as absolute paths. Each file appears
// once, in discovery order.
func (c *Compiler) Dependencies(scadFile string) ([]string, error) {
	visited := make(map[string]bool)
	var deps []string

	queue := []string{filepath.Clean(c.abs(scadFile))}
	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		if visited[file] {
			continue
		}
		visited[file] = true
		deps = append(deps, file)

		direct, err := c.parseDependencies(file)
		if err != nil {
			return nil, err
		}
		queue = append(queue, direct...)
	}
	return deps, nil
}

func (c *Compiler) parseDependencies(scadFile string) ([]string, error) {
	file, err := os.Open(scadFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", scadFile, err)
	}
	defer file.Close()

	var deps []string
	dir := filepath.Dir(scadFile)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		if m := dependencyPattern.FindStringSubmatch(line); m != nil {
			deps = append(deps, c.resolve(m[1], dir))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", scadFile, err)
	}
	return deps, nil
}

// resolve looks next to the including file first, then in the work directory
func (c *Compiler) resolve(dep, dir string) string {
	if strings.HasPrefix(dep, "./") || strings.HasPrefix(dep, "../") {
		return filepath.Clean(filepath.Join(dir, dep))
	}
	local := filepath.Join(dir, dep)
	if _, err := os.Stat(local); err == nil {
		return filepath.Clean(local)
	}
	return filepath.Clean(c.abs(dep))
}
