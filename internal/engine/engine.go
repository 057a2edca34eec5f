// Package engine owns the flush cycle: snapshot the dirty-line tracker on a
// fixed interval, hand threshold-crossing bursts to the citation workflow,
// and push per-line edit records to the backend.
package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/edittrail/edittrail/internal/assignment"
	"github.com/edittrail/edittrail/internal/backend"
	"github.com/edittrail/edittrail/internal/citation"
	"github.com/edittrail/edittrail/internal/track"
)

// DocumentReader supplies current document text at flush time. A false ok
// means the file is not open in the host or the line is past the current
// end of the document; either way the line is skipped.
type DocumentReader interface {
	ReadLine(file string, index int) (string, bool)
}

// BurstStarter triggers the citation workflow. Implementations must not
// block: the engine calls this on the flush path.
type BurstStarter interface {
	TryStart(ctx context.Context, b citation.Burst) bool
}

// Options tune the flush cycle.
type Options struct {
	FlushInterval  time.Duration // how often dirty lines are drained
	BurstThreshold int           // changed lines per window that count as a burst
}

// Deps are the engine's collaborators.
type Deps struct {
	Logger   *slog.Logger
	Docs     DocumentReader
	Bindings *assignment.Bindings
	Catalog  *assignment.Catalog
	Gateway  backend.Gateway
	Identity func() string
	RepoLink func(filePath string) string
	Bursts   BurstStarter
}

// Engine accumulates edits between ticks and drains them on each tick.
type Engine struct {
	opts    Options
	deps    Deps
	tracker *track.Tracker
}

// New returns an Engine. Zero option fields get the defaults: a 20 second
// interval and a 20 line burst threshold.
func New(opts Options, deps Deps) *Engine {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 20 * time.Second
	}
	if opts.BurstThreshold <= 0 {
		opts.BurstThreshold = 20
	}
	return &Engine{
		opts:    opts,
		deps:    deps,
		tracker: track.NewTracker(),
	}
}

// ApplyEdit records a change event from a host. All spans of one event are
// merged as a single batch. Safe to call from any goroutine.
func (e *Engine) ApplyEdit(file string, docLines int, spans ...track.Span) {
	e.tracker.Merge(file, docLines, spans...)
}

// Run fetches the assignment catalog once, then flushes on every tick until
// ctx is done. The flush itself never blocks the ticker: network pushes run
// on their own goroutine.
func (e *Engine) Run(ctx context.Context) error {
	e.loadCatalog(ctx)

	ticker := time.NewTicker(e.opts.FlushInterval)
	defer ticker.Stop()

	e.deps.Logger.Info("engine running",
		"flush_interval", e.opts.FlushInterval,
		"burst_threshold", e.opts.BurstThreshold)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Flush(ctx)
		}
	}
}

// loadCatalog fills the shared catalog from the backend. A failure leaves it
// empty; the citation picker then falls back to locally bound names.
func (e *Engine) loadCatalog(ctx context.Context) {
	who := e.deps.Identity()
	items, err := e.deps.Gateway.ListAssignments(ctx, who)
	if err != nil {
		e.deps.Logger.Warn("assignment fetch failed", "identity", who, "error", err)
		return
	}
	e.deps.Catalog.Replace(items)
	e.deps.Logger.Info("assignments loaded", "identity", who, "count", len(items))
}

// Flush drains the tracker and processes one window: burst detection first,
// then per-line pushes for bound files. Pushes happen regardless of what the
// citation workflow decides.
func (e *Engine) Flush(ctx context.Context) {
	window := e.tracker.SnapshotAndClear()
	if len(window) == 0 {
		return
	}

	total := window.TotalLines()
	if total >= e.opts.BurstThreshold {
		b := citation.Burst{ChangedLines: total, Files: baseNames(window)}
		if e.deps.Bursts.TryStart(ctx, b) {
			e.deps.Logger.Info("edit burst detected", "changed_lines", total, "files", len(b.Files))
		} else {
			e.deps.Logger.Debug("edit burst ignored, citation workflow busy", "changed_lines", total)
		}
	}

	records := e.buildRecords(window)
	if len(records) > 0 {
		go e.push(ctx, records)
	}
}

// buildRecords turns the window into edit records while the document text is
// still current. Unbound files are skipped entirely; dirty lines that no
// longer resolve to text (file closed, or the document shrank past them) are
// dropped.
func (e *Engine) buildRecords(window track.Window) []backend.EditRecord {
	now := time.Now().UTC()
	who := e.deps.Identity()

	var records []backend.EditRecord
	for _, file := range window.Files() {
		base := filepath.Base(file)
		names := e.deps.Bindings.NamesForBase(base)
		if len(names) == 0 {
			e.deps.Logger.Debug("file not bound to an assignment, lines dropped", "file", base)
			continue
		}

		link := e.deps.RepoLink(file)
		lines := window[file].Sorted()
		missing := 0
		for _, n := range lines {
			content, ok := e.deps.Docs.ReadLine(file, n)
			if !ok {
				missing++
				continue
			}
			for _, name := range names {
				records = append(records, backend.EditRecord{
					AssignmentID: e.deps.Catalog.IDFor(name),
					GitHubName:   who,
					GitHubLink:   link,
					FilePath:     base,
					LineNumber:   n + 1,
					LineContent:  content,
					UpdatedAt:    now,
				})
			}
		}
		if missing == len(lines) {
			e.deps.Logger.Debug("file not open, dirty lines dropped", "file", base, "lines", missing)
		} else if missing > 0 {
			e.deps.Logger.Debug("dirty lines past document end dropped", "file", base, "lines", missing)
		}
	}
	return records
}

// push sends records one by one. Failures are logged and dropped; a dead
// backend must never wedge the engine or grow a queue.
func (e *Engine) push(ctx context.Context, records []backend.EditRecord) {
	sent := 0
	for _, rec := range records {
		if err := e.deps.Gateway.PushEditRecord(ctx, rec); err != nil {
			e.deps.Logger.Warn("edit record push failed",
				"file", rec.FilePath, "line", rec.LineNumber, "error", err)
			continue
		}
		sent++
	}
	e.deps.Logger.Debug("window pushed", "records", sent, "failed", len(records)-sent)
}

// baseNames returns the deduped, sorted base names of the window's files.
func baseNames(window track.Window) []string {
	seen := make(map[string]bool)
	var bases []string
	for _, file := range window.Files() {
		base := filepath.Base(file)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)
	return bases
}
