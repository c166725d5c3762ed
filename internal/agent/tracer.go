// ABOUTME: Span reporting for orchestrator turns and oracle calls
// ABOUTME: Tracing is optional; the default logs spans through zerolog
package agent

import (
	"time"

	"github.com/rs/zerolog"
)

// Tracer receives named spans for turns and oracle invocations. A nil
// tracer is valid and means no tracing.
type Tracer interface {
	StartSpan(name string) Span
}

// Span is one traced operation
type Span interface {
	SetAttribute(key, value string)
	End(err error)
}

// LogTracer reports spans as log events
type LogTracer struct {
	log zerolog.Logger
}

// NewLogTracer creates a tracer that writes spans to the given logger
func NewLogTracer(log zerolog.Logger) *LogTracer {
	return &LogTracer{log: log}
}

func (t *LogTracer) StartSpan(name string) Span {
	return &logSpan{log: t.log, name: name, start: time.Now(), attrs: map[string]string{}}
}

type logSpan struct {
	log   zerolog.Logger
	name  string
	start time.Time
	attrs map[string]string
}

func (s *logSpan) SetAttribute(key, value string) {
	s.attrs[key] = value
}

func (s *logSpan) End(err error) {
	ev := s.log.Debug().Str("span", s.name).Dur("elapsed", time.Since(s.start))
	for k, v := range s.attrs {
		ev = ev.Str(k, v)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("span finished")
}

// startSpan tolerates an absent tracer
func startSpan(t Tracer, name string) Span {
	if t == nil {
		return noopSpan{}
	}
	return t.StartSpan(name)
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) End(error)                   {}
