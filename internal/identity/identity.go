// Package identity resolves the developer identity attached to every record
// pushed to the course backend.
package identity

import (
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/edittrail/edittrail/internal/repolink"
)

// Unknown is the identity of last resort when every probe comes up empty.
const Unknown = "unknown-user"

// Probe runs one external lookup and returns its raw output.
// This abstraction allows mocking in tests.
type Probe func() (string, error)

// Resolver resolves the developer identity through an ordered fallback
// chain: owner of the workspace's SSH origin remote, then the code-hosting
// CLI login, then git's configured user.name and user.email, then Unknown.
// The result is resolved once and cached for the lifetime of the process.
type Resolver struct {
	// Probes may be replaced before the first Resolve call.
	RemoteURL   Probe // git remote get-url origin
	CLILogin    Probe // gh api user -q .login
	ConfigName  Probe // git config user.name
	ConfigEmail Probe // git config user.email

	logger *slog.Logger

	mu     sync.Mutex
	cached string
	done   bool
}

// New returns a Resolver whose probes shell out to git and gh in workDir.
func New(workDir string, logger *slog.Logger) *Resolver {
	return &Resolver{
		RemoteURL:   command(workDir, "git", "remote", "get-url", "origin"),
		CLILogin:    command(workDir, "gh", "api", "user", "-q", ".login"),
		ConfigName:  command(workDir, "git", "config", "user.name"),
		ConfigEmail: command(workDir, "git", "config", "user.email"),
		logger:      logger,
	}
}

// command builds a Probe running one subprocess lookup.
func command(dir, name string, args ...string) Probe {
	return func() (string, error) {
		cmd := exec.Command(name, args...)
		cmd.Dir = dir
		out, err := cmd.Output()
		return string(out), err
	}
}

// Resolve returns the developer identity, running the fallback chain on the
// first call and the cached answer afterwards. It never fails: a fully
// unattributable environment yields Unknown.
func (r *Resolver) Resolve() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return r.cached
	}

	r.cached = r.resolveLocked()
	r.done = true
	return r.cached
}

func (r *Resolver) resolveLocked() string {
	if raw, err := r.RemoteURL(); err == nil {
		if owner := repolink.OwnerFromRemote(raw); owner != "" {
			r.logger.Debug("identity resolved", "source", "ssh remote", "identity", owner)
			return owner
		}
	}

	if out, err := r.CLILogin(); err == nil {
		if login := strings.TrimSpace(out); login != "" {
			r.logger.Debug("identity resolved", "source", "gh login", "identity", login)
			return login
		}
	}

	if out, err := r.ConfigName(); err == nil {
		if name := strings.TrimSpace(out); name != "" {
			r.logger.Debug("identity resolved", "source", "git user.name", "identity", name)
			return name
		}
	}

	if out, err := r.ConfigEmail(); err == nil {
		if email := strings.TrimSpace(out); email != "" {
			r.logger.Debug("identity resolved", "source", "git user.email", "identity", email)
			return email
		}
	}

	r.logger.Debug("identity unresolved, using placeholder")
	return Unknown
}
