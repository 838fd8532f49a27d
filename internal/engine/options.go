package engine

import (
	"time"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/event"
)

// Default configuration values.
const (
	DefaultTabWidth = 48
	DefaultFontSize = measure.DefaultSize
)

// Logger is the logging surface the engine and its components use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

type settings struct {
	geometry   document.Geometry
	measurer   measure.Measurer
	face       measure.Face
	tabStops   []float64
	tabWidth   float64
	bus        *event.Bus
	log        Logger
	clock      history.Clock
	delay      time.Duration
	maxEntries int
	newID      func() string
	text       string
}

// Option configures an Engine during creation.
type Option func(*settings)

// WithGeometry sets the geometry of the first page and of pages created
// without a predecessor.
func WithGeometry(g document.Geometry) Option {
	return func(s *settings) {
		s.geometry = g
	}
}

// WithMeasurer sets the measurement surface used by pagination. The
// default is a fixed width measurer.
func WithMeasurer(m measure.Measurer) Option {
	return func(s *settings) {
		if m != nil {
			s.measurer = m
		}
	}
}

// WithFace sets the default font face.
func WithFace(f measure.Face) Option {
	return func(s *settings) {
		s.face = f
	}
}

// WithTabStops sets explicit tab stops and the interval used past them.
func WithTabStops(stops []float64, width float64) Option {
	return func(s *settings) {
		s.tabStops = stops
		if width > 0 {
			s.tabWidth = width
		}
	}
}

// WithBus publishes notifications on b instead of a private bus.
func WithBus(b *event.Bus) Option {
	return func(s *settings) {
		if b != nil {
			s.bus = b
		}
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the clock driving checkpoint debouncing.
func WithClock(c history.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithCheckpointDelay sets the checkpoint debounce window.
func WithCheckpointDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithMaxUndoEntries bounds the undo and redo stacks.
func WithMaxUndoEntries(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithIDGenerator sets the generator for block, page, list and comment ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) {
		s.newID = fn
	}
}

// WithText loads plain text as the initial content. Paragraphs are
// separated by blank lines; single newlines stay inside a paragraph. The
// text is part of the pristine state.
func WithText(text string) Option {
	return func(s *settings) {
		s.text = text
	}
}
