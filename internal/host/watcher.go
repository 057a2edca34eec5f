package host

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/edittrail/edittrail/internal/track"
)

// maxSnapshotBytes caps how large a file the watcher will keep line
// snapshots for. Bigger files are treated as not open.
const maxSnapshotBytes = 2 << 20

// Watcher is the filesystem host: it watches a workspace recursively, keeps
// a line snapshot per text file, and reports each saved change as the span
// between the previous and the new content.
type Watcher struct {
	workDir        string
	ignorePatterns []string
	logger         *slog.Logger

	mu        sync.Mutex
	snapshots map[string][]string
}

// NewWatcher returns a Watcher rooted at workDir. Extra ignore patterns
// complement .gitignore and .edittrailignore.
func NewWatcher(workDir string, ignorePatterns []string, logger *slog.Logger) *Watcher {
	return &Watcher{
		workDir:        workDir,
		ignorePatterns: ignorePatterns,
		logger:         logger,
		snapshots:      make(map[string][]string),
	}
}

// ReadLine serves flush-time document text from the current snapshot.
func (w *Watcher) ReadLine(file string, index int) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines, ok := w.snapshots[file]
	if !ok || index < 0 || index >= len(lines) {
		return "", false
	}
	return lines[index], true
}

// Run watches the workspace until ctx is done, feeding change spans to sink.
// The initial walk snapshots existing files without reporting them: only
// edits made while running count.
func (w *Watcher) Run(ctx context.Context, sink EditSink) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	patterns := w.loadIgnorePatterns()

	// One walk registers every directory and snapshots every text file.
	err = filepath.WalkDir(w.workDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			// Never watch .git: index churn would show up as edit bursts.
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		if w.isIgnored(path, patterns) {
			return nil
		}
		if lines, ok := readLines(path); ok {
			w.mu.Lock()
			w.snapshots[path] = lines
			w.mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info("watching workspace", "dir", w.workDir, "files", w.snapshotCount())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.forget(event.Name)
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.isIgnored(event.Name, patterns) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if filepath.Base(event.Name) != ".git" {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}
			w.fileChanged(event.Name, sink)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}

// fileChanged re-reads path, diffs it against the previous snapshot, and
// reports the changed span. The snapshot updates before the sink call so a
// concurrent flush reads text at least as new as the reported lines.
func (w *Watcher) fileChanged(path string, sink EditSink) {
	newLines, ok := readLines(path)
	if !ok {
		w.forget(path)
		return
	}

	w.mu.Lock()
	oldLines := w.snapshots[path]
	w.snapshots[path] = newLines
	w.mu.Unlock()

	span, changed := diffSpan(oldLines, newLines)
	if !changed {
		return
	}
	sink.ApplyEdit(path, len(newLines), span)
}

// forget drops a snapshot; subsequent flushes treat the file as not open.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.snapshots, path)
	w.mu.Unlock()
}

func (w *Watcher) snapshotCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.snapshots)
}

// diffSpan locates the changed region between two snapshots as one span in
// the coordinates the tracker expects: the replaced range in old-file lines
// plus the net line growth.
func diffSpan(oldLines, newLines []string) (track.Span, bool) {
	prefix := 0
	for prefix < len(oldLines) && prefix < len(newLines) && oldLines[prefix] == newLines[prefix] {
		prefix++
	}
	if prefix == len(oldLines) && prefix == len(newLines) {
		return track.Span{}, false
	}

	suffix := 0
	for suffix < len(oldLines)-prefix && suffix < len(newLines)-prefix &&
		oldLines[len(oldLines)-1-suffix] == newLines[len(newLines)-1-suffix] {
		suffix++
	}

	return track.Span{
		StartLine:     prefix,
		EndLine:       len(oldLines) - suffix - 1,
		InsertedLines: len(newLines) - len(oldLines),
	}, true
}

// readLines loads a file as lines. It refuses directories, oversized files,
// and binary content (anything with a NUL byte).
func readLines(path string) ([]string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > maxSnapshotBytes {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil || bytes.IndexByte(data, 0) >= 0 {
		return nil, false
	}
	if len(data) == 0 {
		return []string{}, true
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), true
}

// isIgnored reports whether path matches any ignore pattern, trying the base
// name, the workspace-relative path, and the full path.
func (w *Watcher) isIgnored(path string, patterns []string) bool {
	rel := path
	if w.workDir != "" {
		if r, err := filepath.Rel(w.workDir, path); err == nil {
			rel = r
		}
	}
	base := filepath.Base(path)

	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// loadIgnorePatterns merges the configured patterns with those from
// .gitignore and .edittrailignore files in the workspace root.
func (w *Watcher) loadIgnorePatterns() []string {
	patterns := make([]string, len(w.ignorePatterns))
	copy(patterns, w.ignorePatterns)

	for _, name := range []string{".gitignore", ".edittrailignore"} {
		extra, err := readPatternFile(filepath.Join(w.workDir, name))
		if err != nil {
			if !os.IsNotExist(err) {
				w.logger.Warn("failed to load ignore file", "file", name, "error", err)
			}
			continue
		}
		patterns = append(patterns, extra...)
	}
	return patterns
}

// readPatternFile reads a gitignore-style file and returns non-empty,
// non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
