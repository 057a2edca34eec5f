// Package host adapts edit sources to the tracking engine. A host is
// anything that can report changed line ranges as they happen and serve the
// current document text at flush time.
package host

import "github.com/edittrail/edittrail/internal/track"

// EditSink receives change events from a host. The engine implements this.
type EditSink interface {
	ApplyEdit(file string, docLines int, spans ...track.Span)
}
