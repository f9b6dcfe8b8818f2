package diag

import (
	"context"
	"log/slog"
	"sync"
)

// Sink receives violations, one call per violation, in discovery order.
type Sink interface {
	Report(v Violation)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Violation)

// Report calls f(v).
func (f SinkFunc) Report(v Violation) { f(v) }

type discard struct{}

func (discard) Report(Violation) {}

// Discard drops every violation.
var Discard Sink = discard{}

// Tee returns a sink that forwards each violation to every sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(v Violation) {
		for _, s := range sinks {
			s.Report(v)
		}
	})
}

// Collector accumulates violations. It is safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	violations []Violation
}

// Report appends v.
func (c *Collector) Report(v Violation) {
	c.mu.Lock()
	c.violations = append(c.violations, v)
	c.mu.Unlock()
}

// Violations returns a copy of everything reported so far.
func (c *Collector) Violations() []Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Violation(nil), c.violations...)
}

// Reset drops all collected violations.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.violations = nil
	c.mu.Unlock()
}

// LogSink writes each violation as a structured log record.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink returns a sink logging at slog.LevelError through l.
func NewLogSink(l *slog.Logger) *LogSink {
	return &LogSink{logger: l, level: slog.LevelError}
}

// WithLevel returns a copy of s logging at level.
func (s *LogSink) WithLevel(level slog.Level) *LogSink {
	c := *s
	c.level = level
	return &c
}

// Report logs v.
func (s *LogSink) Report(v Violation) {
	ctx := context.Background()
	if !s.logger.Enabled(ctx, s.level) {
		return
	}
	attrs := []slog.Attr{
		slog.String("vuid", v.ID),
		slog.String("category", v.Category.String()),
		slog.String("location", v.Location.String()),
	}
	if len(v.Objects) > 0 {
		objs := make([]string, len(v.Objects))
		for i, o := range v.Objects {
			objs[i] = o.String()
		}
		attrs = append(attrs, slog.Any("objects", objs))
	}
	s.logger.LogAttrs(ctx, s.level, v.Message, attrs...)
}
