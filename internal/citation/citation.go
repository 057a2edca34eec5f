// Package citation runs the citation workflow triggered by edit bursts:
// resolve which assignment the burst belongs to, ask the developer what
// assistance went into it, and submit the answers.
package citation

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/edittrail/edittrail/internal/assignment"
	"github.com/edittrail/edittrail/internal/backend"
)

// Status is the workflow's lifecycle state. At most one workflow is in
// flight per process; states other than idle reject new bursts.
type Status int

const (
	StatusIdle Status = iota
	StatusPrompting
	StatusSubmitting
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPrompting:
		return "prompting"
	case StatusSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Burst describes a flush window that crossed the burst threshold.
type Burst struct {
	ChangedLines int
	Files        []string // touched file base names, deduped and sorted
}

// Prompter asks the developer the citation questions. A false ok means the
// developer dismissed the prompt; that aborts the workflow silently.
type Prompter interface {
	PickAssignment(options []string) (choice string, ok bool, err error)
	AskText(title, placeholder string) (answer string, ok bool, err error)
}

// Submitter pushes the finished citation record.
type Submitter interface {
	PushCitationRecord(ctx context.Context, rec backend.CitationRecord) error
}

// Deps are the collaborators a Workflow needs.
type Deps struct {
	Prompter      Prompter
	Submitter     Submitter
	Logger        *slog.Logger
	Identity      func() string
	Bindings      *assignment.Bindings
	Catalog       *assignment.Catalog
	WindowSeconds int // the configured flush interval, recorded with each citation
}

// Workflow is the single-flight citation prompt pipeline.
type Workflow struct {
	deps Deps

	mu     sync.Mutex
	status Status
}

// New returns an idle Workflow.
func New(deps Deps) *Workflow {
	return &Workflow{deps: deps}
}

// Status returns the current lifecycle state.
func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *Workflow) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

// TryStart begins the workflow for b unless one is already in flight.
// The guard flips before this returns, so a burst arriving on the next tick
// sees the workflow busy even if the prompt has not rendered yet. The
// workflow itself runs on its own goroutine; TryStart never blocks.
func (w *Workflow) TryStart(ctx context.Context, b Burst) bool {
	w.mu.Lock()
	if w.status != StatusIdle {
		w.mu.Unlock()
		return false
	}
	w.status = StatusPrompting
	w.mu.Unlock()

	go w.run(ctx, b)
	return true
}

// run executes one workflow pass. Every exit path releases the guard: a
// stuck non-idle status would silence all future bursts for the process
// lifetime.
func (w *Workflow) run(ctx context.Context, b Burst) {
	defer w.setStatus(StatusIdle)

	chosen, ok := w.chooseAssignment(b)
	if !ok {
		return
	}

	aiPrompt, ok := w.ask("AI assistance used for these changes", "none")
	if !ok {
		return
	}
	source, ok := w.ask("Source of any copied code", "none")
	if !ok {
		return
	}

	w.setStatus(StatusSubmitting)

	rec := backend.CitationRecord{
		AssignmentID:         w.deps.Catalog.IDFor(chosen),
		AssignmentName:       chosen,
		GitHubName:           w.deps.Identity(),
		ChangedLinesInWindow: b.ChangedLines,
		WindowSeconds:        w.deps.WindowSeconds,
		FilesTouched:         b.Files,
		AIPrompt:             aiPrompt,
		Source:               source,
		CreatedAt:            time.Now().UTC(),
	}
	if err := w.deps.Submitter.PushCitationRecord(ctx, rec); err != nil {
		w.deps.Logger.Warn("citation submit failed", "assignment", chosen, "error", err)
		return
	}
	w.deps.Logger.Info("citation submitted",
		"assignment", chosen,
		"changed_lines", b.ChangedLines,
		"files", len(b.Files))
}

// chooseAssignment maps the burst to an assignment name. A single impacted
// assignment is auto-selected; several impacted ones go to a picker; none
// impacted falls back to picking among all known names.
func (w *Workflow) chooseAssignment(b Burst) (string, bool) {
	impacted := w.impacted(b)
	if len(impacted) == 1 {
		w.deps.Logger.Debug("citation assignment auto-selected", "assignment", impacted[0])
		return impacted[0], true
	}

	options := impacted
	if len(options) == 0 {
		options = w.deps.Catalog.Names()
		if len(options) == 0 {
			options = w.deps.Bindings.Names()
		}
	}
	if len(options) == 0 {
		w.deps.Logger.Debug("citation skipped, no assignments known")
		return "", false
	}

	choice, ok, err := w.deps.Prompter.PickAssignment(options)
	if err != nil {
		w.deps.Logger.Warn("assignment picker failed", "error", err)
		return "", false
	}
	if !ok {
		w.deps.Logger.Debug("citation cancelled at assignment picker")
		return "", false
	}
	return choice, true
}

// impacted returns the assignments whose bound file was touched in the
// burst, sorted.
func (w *Workflow) impacted(b Burst) []string {
	seen := make(map[string]bool)
	var names []string
	for _, base := range b.Files {
		for _, name := range w.deps.Bindings.NamesForBase(base) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (w *Workflow) ask(title, placeholder string) (string, bool) {
	answer, ok, err := w.deps.Prompter.AskText(title, placeholder)
	if err != nil {
		w.deps.Logger.Warn("citation prompt failed", "question", title, "error", err)
		return "", false
	}
	if !ok {
		w.deps.Logger.Debug("citation cancelled", "question", title)
		return "", false
	}
	return answer, true
}
