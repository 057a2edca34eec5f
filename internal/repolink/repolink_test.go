package repolink

import (
	"errors"
	"strings"
	"testing"

	"github.com/edittrail/edittrail/internal/slogutil"
)

func TestNormalizeRemote(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"ssh with .git", "git@github.com:alice/proj.git", "https://github.com/alice/proj"},
		{"ssh without .git", "git@github.com:alice/proj", "https://github.com/alice/proj"},
		{"ssh other host", "git@gitlab.example.edu:team/hw1.git", "https://gitlab.example.edu/team/hw1"},
		{"ssh trailing newline", "git@github.com:alice/proj.git\n", "https://github.com/alice/proj"},
		{"https with .git", "https://github.com/alice/proj.git", "https://github.com/alice/proj"},
		{"https without .git", "https://github.com/alice/proj", "https://github.com/alice/proj"},
		{"https trailing slash", "https://github.com/alice/proj/", "https://github.com/alice/proj"},
		{"empty", "", "none"},
		{"whitespace only", "  \n", "none"},
		{"bare path", "/srv/git/proj.git", "none"},
		{"ssh protocol url", "ssh://git@github.com/alice/proj.git", "none"},
		{"https with extra segment", "https://github.com/alice/proj/tree/main", "none"},
		{"http not https", "http://github.com/alice/proj", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRemote(tt.raw); got != tt.want {
				t.Errorf("NormalizeRemote(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOwnerFromRemote(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"git@github.com:alice/proj.git", "alice"},
		{"git@gitlab.example.edu:team-x/hw.git", "team-x"},
		{"https://github.com/alice/proj.git", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OwnerFromRemote(tt.raw); got != tt.want {
			t.Errorf("OwnerFromRemote(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestResolveCachesPerRoot verifies that the origin remote is queried once
// per repository root and later lookups in the same repo hit the cache.
func TestResolveCachesPerRoot(t *testing.T) {
	remoteCalls := 0
	runner := func(dir string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse --show-toplevel":
			return "/home/dev/proj\n", nil
		case "remote get-url origin":
			remoteCalls++
			return "git@github.com:alice/proj.git\n", nil
		}
		t.Errorf("unexpected git command: %v", args)
		return "", nil
	}

	l := New(slogutil.NewDiscardLogger())
	l.Runner = runner

	want := "https://github.com/alice/proj"
	if got := l.Resolve("/home/dev/proj/src/main.go"); got != want {
		t.Errorf("first Resolve: got %q, want %q", got, want)
	}
	if got := l.Resolve("/home/dev/proj/pkg/util.go"); got != want {
		t.Errorf("second Resolve: got %q, want %q", got, want)
	}
	if remoteCalls != 1 {
		t.Errorf("origin remote queried %d times, want 1", remoteCalls)
	}
}

// TestResolveOutsideRepository verifies the None placeholder when the root
// probe fails, and that nothing is cached for it.
func TestResolveOutsideRepository(t *testing.T) {
	rootCalls := 0
	runner := func(dir string, args ...string) (string, error) {
		rootCalls++
		return "", errors.New("exit status 128")
	}

	l := New(slogutil.NewDiscardLogger())
	l.Runner = runner

	if got := l.Resolve("/tmp/scratch.txt"); got != None {
		t.Errorf("Resolve: got %q, want %q", got, None)
	}
	if got := l.Resolve("/tmp/scratch.txt"); got != None {
		t.Errorf("Resolve: got %q, want %q", got, None)
	}
	// Both calls must reach the runner: a missing repo is not cacheable
	// because there is no root to key on.
	if rootCalls != 2 {
		t.Errorf("root probed %d times, want 2", rootCalls)
	}
}

// TestResolveMissingOrigin verifies that a repository without an origin
// remote resolves to None and the miss is cached per root.
func TestResolveMissingOrigin(t *testing.T) {
	remoteCalls := 0
	runner := func(dir string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse --show-toplevel":
			return "/home/dev/local-only\n", nil
		case "remote get-url origin":
			remoteCalls++
			return "", errors.New("exit status 2")
		}
		return "", nil
	}

	l := New(slogutil.NewDiscardLogger())
	l.Runner = runner

	if got := l.Resolve("/home/dev/local-only/a.go"); got != None {
		t.Errorf("Resolve: got %q, want %q", got, None)
	}
	if got := l.Resolve("/home/dev/local-only/b.go"); got != None {
		t.Errorf("Resolve: got %q, want %q", got, None)
	}
	if remoteCalls != 1 {
		t.Errorf("origin remote queried %d times, want 1", remoteCalls)
	}
}
