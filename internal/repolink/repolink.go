// Package repolink resolves the repository web link for files on disk.
package repolink

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// None is the placeholder link used when a file is outside any git
// repository or its repository has no usable origin remote.
const None = "none"

// GitRunner executes a git command in dir and returns its stdout.
// This abstraction allows mocking in tests.
type GitRunner func(dir string, args ...string) (string, error)

// defaultGitRunner runs git as a real subprocess.
func defaultGitRunner(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

var (
	sshRemote   = regexp.MustCompile(`^[\w.~-]+@([\w.-]+):([^/]+)/([^/]+?)(?:\.git)?/?$`)
	httpsRemote = regexp.MustCompile(`^https://([\w.-]+)/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// NormalizeRemote converts a git remote URL to the canonical
// https://host/owner/repo form. Remotes in neither the SSH nor the HTTPS
// shape normalize to None.
func NormalizeRemote(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return None
	}
	if m := sshRemote.FindStringSubmatch(s); m != nil {
		return "https://" + m[1] + "/" + m[2] + "/" + m[3]
	}
	if m := httpsRemote.FindStringSubmatch(s); m != nil {
		return "https://" + m[1] + "/" + m[2] + "/" + m[3]
	}
	return None
}

// OwnerFromRemote extracts the owner segment from an SSH-style remote URL,
// or "" when the remote has another shape.
func OwnerFromRemote(raw string) string {
	if m := sshRemote.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		return m[2]
	}
	return ""
}

// Links resolves and caches the normalized repository link per repository
// root. Safe for concurrent use.
type Links struct {
	Runner GitRunner // if nil, uses the real git subprocess

	logger  *slog.Logger
	mu      sync.Mutex
	remotes map[string]string // repo root -> normalized link
}

// New returns a Links resolver that shells out to git.
func New(logger *slog.Logger) *Links {
	return &Links{
		logger:  logger,
		remotes: make(map[string]string),
	}
}

// Resolve returns the repository link for the repository containing filePath,
// or None when the file is outside a repository or no origin remote exists.
func (l *Links) Resolve(filePath string) string {
	return l.ResolveDir(filepath.Dir(filePath))
}

// ResolveDir is Resolve for a directory instead of a file.
// The root lookup runs on every call. The remote lookup is cached per root:
// a repository's origin does not move mid-session, and the cache keeps flushes
// from forking one git subprocess per dirty file.
func (l *Links) ResolveDir(dir string) string {
	runner := l.Runner
	if runner == nil {
		runner = defaultGitRunner
	}

	out, err := runner(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		l.logger.Debug("repo root lookup failed", "dir", dir, "error", err)
		return None
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return None
	}

	l.mu.Lock()
	link, ok := l.remotes[root]
	l.mu.Unlock()
	if ok {
		return link
	}

	// Probe outside the lock; concurrent resolvers may race to the same
	// answer, which is harmless.
	remote, err := runner(root, "remote", "get-url", "origin")
	if err != nil {
		l.logger.Debug("origin remote lookup failed", "root", root, "error", err)
		remote = ""
	}
	link = NormalizeRemote(remote)

	l.mu.Lock()
	l.remotes[root] = link
	l.mu.Unlock()
	return link
}
