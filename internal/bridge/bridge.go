// Package bridge is the editor-plugin host: a localhost WebSocket endpoint
// that plugins push open/edit/close events to. The bridge keeps a line mirror
// of every open document so the engine can read current text at flush time.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/edittrail/edittrail/internal/host"
	"github.com/edittrail/edittrail/internal/track"
)

// maxEventBytes caps inbound frame size. Edit frames carry the full post-edit
// document, so the limit matches the largest file the watcher host snapshots;
// anything below the library's 32 KiB default would kill the connection on
// ordinary source files.
const maxEventBytes = 2 << 20

// eventSchema validates every inbound frame before it touches the mirror or
// the tracker. Unknown event types and missing fields are rejected at the
// door, never half-applied.
const eventSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "file"],
  "properties": {
    "type": {"enum": ["open", "edit", "close"]},
    "file": {"type": "string", "minLength": 1},
    "startLine": {"type": "integer", "minimum": 0},
    "endLine": {"type": "integer", "minimum": 0},
    "insertedLines": {"type": "integer"},
    "lines": {"type": "array", "items": {"type": "string"}}
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "open"}}},
      "then": {"required": ["lines"]}
    },
    {
      "if": {"properties": {"type": {"const": "edit"}}},
      "then": {"required": ["startLine", "endLine", "insertedLines", "lines"]}
    }
  ]
}`

// event is one decoded plugin frame. "edit" carries the full post-edit
// document alongside the changed span: the mirror needs current text for
// flush-time reads, and the span feeds the tracker.
type event struct {
	Type          string   `json:"type"`
	File          string   `json:"file"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	InsertedLines int      `json:"insertedLines"`
	Lines         []string `json:"lines"`
}

// errorFrame answers a rejected event. The connection stays open.
type errorFrame struct {
	Error string `json:"error"`
}

// Server accepts editor plugin connections at /events and feeds their edit
// spans to the sink. It implements the engine's DocumentReader over the
// mirrored documents.
type Server struct {
	sink   host.EditSink
	logger *slog.Logger
	schema *jsonschema.Schema

	mu   sync.Mutex
	docs map[string][]string
}

// NewServer compiles the event schema and returns a ready Server.
func NewServer(sink host.EditSink, logger *slog.Logger) (*Server, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(eventSchema))
	if err != nil {
		return nil, fmt.Errorf("parsing event schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("events.json", doc); err != nil {
		return nil, fmt.Errorf("registering event schema: %w", err)
	}
	schema, err := compiler.Compile("events.json")
	if err != nil {
		return nil, fmt.Errorf("compiling event schema: %w", err)
	}

	return &Server{
		sink:   sink,
		logger: logger,
		schema: schema,
		docs:   make(map[string][]string),
	}, nil
}

// ReadLine serves flush-time document text from the mirror of an open file.
func (s *Server) ReadLine(file string, index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.docs[file]
	if !ok || index < 0 || index >= len(lines) {
		return "", false
	}
	return lines[index], true
}

// ServeHTTP upgrades /events requests and pumps events until the plugin
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/events" {
		http.NotFound(w, r)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(maxEventBytes)
	defer conn.Close(websocket.StatusInternalError, "bridge shutting down")

	s.logger.Info("editor connected", "remote", r.RemoteAddr)
	s.pump(r.Context(), conn)
	s.logger.Info("editor disconnected", "remote", r.RemoteAddr)
}

// pump reads frames until the connection drops. A frame that fails schema
// validation is answered with an error frame and dropped; it never tears the
// connection down or reaches the mirror.
func (s *Server) pump(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			return
		}
		if typ != websocket.MessageText {
			s.reject(ctx, conn, "binary frames are not supported")
			continue
		}

		if err := s.validate(data); err != nil {
			s.logger.Debug("event rejected", "error", err)
			s.reject(ctx, conn, err.Error())
			continue
		}

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.reject(ctx, conn, "malformed JSON: "+err.Error())
			continue
		}
		s.apply(ev)
	}
}

func (s *Server) validate(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	return nil
}

func (s *Server) reject(ctx context.Context, conn *websocket.Conn, msg string) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, errorFrame{Error: msg}); err != nil {
		s.logger.Debug("error frame write failed", "error", err)
	}
}

// apply updates the mirror and, for edits, forwards the span to the sink. The
// mirror updates first so a concurrent flush reads text at least as new as
// the reported span.
func (s *Server) apply(ev event) {
	switch ev.Type {
	case "open":
		s.mu.Lock()
		s.docs[ev.File] = ev.Lines
		s.mu.Unlock()
		s.logger.Debug("document opened", "file", ev.File, "lines", len(ev.Lines))

	case "edit":
		s.mu.Lock()
		s.docs[ev.File] = ev.Lines
		s.mu.Unlock()
		s.sink.ApplyEdit(ev.File, len(ev.Lines), track.Span{
			StartLine:     ev.StartLine,
			EndLine:       ev.EndLine,
			InsertedLines: ev.InsertedLines,
		})

	case "close":
		s.mu.Lock()
		delete(s.docs, ev.File)
		s.mu.Unlock()
		s.logger.Debug("document closed", "file", ev.File)
	}
}

// ListenAndServe runs the bridge on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("bridge listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
