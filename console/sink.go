// Package console holds the operator-facing collaborators of the procedures:
// the semantic log sink and the blocking operator confirmation.
//
// Procedures never lay text out themselves. They emit messages tagged with a
// Style and let the Sink decide how to render them.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Style is the semantic severity of an emitted message.
type Style int

const (
	StyleNeutral Style = iota
	StyleSuccess
	StyleWarning
	StyleError
	StyleCritical
)

func (s Style) String() string {
	switch s {
	case StyleNeutral:
		return "neutral"
	case StyleSuccess:
		return "success"
	case StyleWarning:
		return "warning"
	case StyleError:
		return "error"
	case StyleCritical:
		return "critical"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// Sink receives operator-visible output. When terminated is false the next
// message continues the same line.
type Sink interface {
	Emit(message string, style Style, terminated bool)
}

// palette holds the terminal attributes of each style.
var palette = map[Style][]color.Attribute{
	StyleNeutral:  {color.FgHiWhite},
	StyleSuccess:  {color.FgHiGreen},
	StyleWarning:  {color.FgHiYellow},
	StyleError:    {color.FgHiRed},
	StyleCritical: {color.FgRed, color.Bold},
}

// Terminal writes messages to w, colored when colored is set. On Windows w
// should come from color.Output so escape sequences are translated.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	colors map[Style]*color.Color
}

func NewTerminal(w io.Writer, colored bool) *Terminal {
	colors := make(map[Style]*color.Color, len(palette))
	for style, attrs := range palette {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		colors[style] = c
	}
	return &Terminal{w: w, colors: colors}
}

func (t *Terminal) Emit(message string, style Style, terminated bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.colors[style]
	if !ok {
		c = t.colors[StyleNeutral]
	}
	if message != "" {
		_, _ = c.Fprint(t.w, message)
	}
	if terminated && !strings.HasSuffix(message, "\n") {
		_, _ = io.WriteString(t.w, "\n")
	}
}

// SlogSink mirrors operator output into a structured logger, one record per
// completed line. The most severe style of the line picks the level.
type SlogSink struct {
	mu      sync.Mutex
	logger  *slog.Logger
	pending strings.Builder
	style   Style
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(message string, style Style, terminated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.WriteString(message)
	if style > s.style {
		s.style = style
	}
	if !terminated {
		return
	}

	line := strings.TrimSpace(s.pending.String())
	if line != "" {
		s.logger.Log(context.Background(), level(s.style), line, "style", s.style.String())
	}
	s.pending.Reset()
	s.style = StyleNeutral
}

func level(s Style) slog.Level {
	switch s {
	case StyleWarning:
		return slog.LevelWarn
	case StyleError, StyleCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type tee []Sink

// Tee returns a Sink that forwards every message to all sinks.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Emit(message string, style Style, terminated bool) {
	for _, s := range t {
		s.Emit(message, style, terminated)
	}
}

// Entry is one recorded Emit call.
type Entry struct {
	Message    string
	Style      Style
	Terminated bool
}

// Recorder is a Sink that keeps everything it receives. It is used by tests
// and by callers that render output later.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Emit(message string, style Style, terminated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Message: message, Style: style, Terminated: terminated})
}

// Entries returns a copy of the recorded calls.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Lines returns the recorded output joined into lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lines []string
	var sb strings.Builder
	for _, e := range r.entries {
		sb.WriteString(e.Message)
		if e.Terminated {
			lines = append(lines, strings.TrimSuffix(sb.String(), "\n"))
			sb.Reset()
		}
	}
	if sb.Len() > 0 {
		lines = append(lines, sb.String())
	}
	return lines
}

// Find returns the first entry whose message contains substr.
func (r *Recorder) Find(substr string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if strings.Contains(e.Message, substr) {
			return e, true
		}
	}
	return Entry{}, false
}
