package version

import "testing"

func TestGetFullVersion(t *testing.T) {
	defer func(v, c string) { Version, GitCommit = v, c }(Version, GitCommit)

	Version, GitCommit = "dev", "unknown"
	if got := GetFullVersion(); got != "dev" {
		t.Errorf("GetFullVersion failed: expected dev, got %s", got)
	}

	Version, GitCommit = "v1.2.0", "0123456789abcdef"
	if got := GetFullVersion(); got != "v1.2.0 (0123456)" {
		t.Errorf("GetFullVersion failed: expected v1.2.0 (0123456), got %s", got)
	}
}
