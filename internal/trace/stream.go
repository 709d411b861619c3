package trace

import (
	"io"

	"github.com/rs/zerolog"
)

// Format selects the stream rendering.
type Format uint8

const (
	FormatAuto Format = iota
	FormatText        // zerolog console writer
	FormatNDJSON      // one JSON object per line
)

// StreamTracer writes events immediately through a zerolog logger.
type StreamTracer struct {
	w      io.Writer
	logger zerolog.Logger
	level  Level
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	sw := zerolog.SyncWriter(w)
	var out io.Writer = sw
	if format != FormatNDJSON {
		out = zerolog.ConsoleWriter{Out: sw, NoColor: true, TimeFormat: "15:04:05.000"}
	}
	return &StreamTracer{
		w:      w,
		logger: zerolog.New(out),
		level:  level,
	}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev *Event) {
	if ev == nil || !t.level.ShouldEmit(ev.Scope) {
		return
	}
	lvl := zerolog.InfoLevel
	if ev.Scope >= ScopeNode {
		lvl = zerolog.DebugLevel
	}
	e := t.logger.WithLevel(lvl).
		Time("time", ev.Time).
		Uint64("seq", ev.Seq).
		Str("kind", ev.Kind.String()).
		Str("scope", ev.Scope.String())
	if ev.SpanID != 0 {
		e = e.Uint64("span", ev.SpanID)
	}
	if ev.ParentID != 0 {
		e = e.Uint64("parent", ev.ParentID)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	for k, v := range ev.Extra {
		e = e.Str(k, v)
	}
	e.Msg(ev.Name)
}

// Flush ensures all buffered data is written.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
