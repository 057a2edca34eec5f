package assignment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// NotSet is the binding value reported for an assignment with no bound file.
const NotSet = "not set"

// keyPrefix namespaces binding entries in the store file.
const keyPrefix = "assignmentFile:"

// BindingFunc receives binding changes from Subscribe.
type BindingFunc func(name, filePath string)

// Bindings persists which workspace file belongs to which assignment.
// Entries are keyed "assignmentFile:<name>" in a JSON file under the XDG
// data directory. All methods are safe for concurrent use.
type Bindings struct {
	path string

	mu      sync.Mutex
	entries map[string]string
	subs    []BindingFunc
}

// OpenBindings loads the binding store, creating its directory if needed.
// Path: $XDG_DATA_HOME/edittrail/bindings.json or
// ~/.local/share/edittrail/bindings.json
func OpenBindings() (*Bindings, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	b := &Bindings{
		path:    filepath.Join(dir, "bindings.json"),
		entries: make(map[string]string),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

// dataDir returns the edittrail-specific XDG data directory.
func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "edittrail"), nil
}

// load reads the store file. A missing file is an empty store.
func (b *Bindings) load() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read bindings: %w", err)
	}
	if err := json.Unmarshal(data, &b.entries); err != nil {
		return fmt.Errorf("failed to parse bindings: %w", err)
	}
	return nil
}

// Get returns the file path bound to the assignment, or NotSet.
func (b *Bindings) Get(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if path, ok := b.entries[keyPrefix+name]; ok && path != "" {
		return path
	}
	return NotSet
}

// Set binds filePath to the assignment and persists the store. Subscribers
// are notified after a successful save.
func (b *Bindings) Set(name, filePath string) error {
	if name == "" {
		return errors.New("assignment name must not be empty")
	}

	b.mu.Lock()
	b.entries[keyPrefix+name] = filePath
	err := b.saveLocked()
	subs := append([]BindingFunc(nil), b.subs...)
	b.mu.Unlock()

	if err != nil {
		return err
	}
	for _, fn := range subs {
		fn(name, filePath)
	}
	return nil
}

// saveLocked marshals the entries and writes them atomically via a temp
// file + os.Rename. Caller holds b.mu.
func (b *Bindings) saveLocked() error {
	data, err := json.Marshal(b.entries)
	if err != nil {
		return fmt.Errorf("failed to persist bindings: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(b.path), "bindings-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist bindings: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist bindings: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist bindings: %w", err)
	}

	if err = os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to persist bindings: %w", err)
	}
	return nil
}

// Names returns the assignment names that currently have a binding, sorted.
func (b *Bindings) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.entries))
	for key, path := range b.entries {
		if path == "" {
			continue
		}
		names = append(names, key[len(keyPrefix):])
	}
	return sortedCopy(names)
}

// NamesForBase returns the assignments whose bound file has the given base
// name, sorted. Matching is by base name only: hosts report paths, bindings
// may hold a different absolute path to the same file.
func (b *Bindings) NamesForBase(base string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var names []string
	for key, path := range b.entries {
		if path != "" && filepath.Base(path) == base {
			names = append(names, key[len(keyPrefix):])
		}
	}
	return sortedCopy(names)
}

// Subscribe registers fn to run after every successful binding change.
// Callbacks run synchronously on the goroutine that called Set.
func (b *Bindings) Subscribe(fn BindingFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}
