// Package track maintains the set of dirty lines per file between flushes.
package track

import (
	"sort"
	"sync"
)

// Span is one contiguous change reported by a host: the replaced range in
// pre-edit coordinates plus the number of lines the replacement text spans.
type Span struct {
	StartLine     int // 0-based first line of the replaced range
	EndLine       int // 0-based last line of the replaced range
	InsertedLines int // line count of the replacement text minus one, may be negative for net deletions
}

// LineSet is a set of 0-based line indexes within a single file.
type LineSet map[int]struct{}

// Sorted returns the set's members in ascending order.
func (s LineSet) Sorted() []int {
	lines := make([]int, 0, len(s))
	for n := range s {
		lines = append(lines, n)
	}
	sort.Ints(lines)
	return lines
}

// Window is an accumulation of dirty lines keyed by file path. A file appears
// only while it has at least one dirty line.
type Window map[string]LineSet

// Files returns the window's file paths in ascending order.
func (w Window) Files() []string {
	files := make([]string, 0, len(w))
	for f := range w {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// TotalLines is the number of dirty lines summed across all files.
func (w Window) TotalLines() int {
	total := 0
	for _, set := range w {
		total += len(set)
	}
	return total
}

// Tracker accumulates dirty lines reported by a host until a flush drains
// them. All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	window Window
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{window: make(Window)}
}

// Merge marks the lines touched by the given spans as dirty for file.
// docLines is the file's line count after the edit; every marked line is
// clamped to it so the set never references a line past the current end of
// the document. All spans of one call land under a single lock acquisition,
// so a flush observes either none or all of a batched change event.
func (t *Tracker) Merge(file string, docLines int, spans ...Span) {
	if file == "" || len(spans) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.window[file]
	for _, sp := range spans {
		last := sp.EndLine + sp.InsertedLines
		if sp.StartLine > last {
			// Pure deletion: the replaced range collapsed, mark the join line.
			last = sp.StartLine
		}
		if last > docLines-1 {
			last = docLines - 1
		}
		start := sp.StartLine
		if start < 0 {
			start = 0
		}
		for n := start; n <= last; n++ {
			if set == nil {
				set = make(LineSet)
			}
			set[n] = struct{}{}
		}
	}
	if len(set) > 0 {
		t.window[file] = set
	}
}

// SnapshotAndClear returns the accumulated window and resets the tracker in
// one step. Swapping the map under the lock is what makes read-and-clear
// atomic: an edit merged after the swap lands in the next window, never in
// the returned one.
func (t *Tracker) SnapshotAndClear() Window {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.window
	t.window = make(Window)
	return w
}

// Empty reports whether no dirty lines are currently tracked.
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.window) == 0
}
