package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dshills/quire/internal/engine/document"
)

// Settings is the persisted editor configuration.
type Settings struct {
	Page    PageSettings    `toml:"page" yaml:"page" json:"page"`
	Tabs    TabSettings     `toml:"tabs" yaml:"tabs" json:"tabs"`
	Font    FontSettings    `toml:"font" yaml:"font" json:"font"`
	History HistorySettings `toml:"history" yaml:"history" json:"history"`
	Logging LoggingSettings `toml:"logging" yaml:"logging" json:"logging"`
}

// PageSettings is the default page geometry in CSS pixels.
type PageSettings struct {
	Width       float64          `toml:"width" yaml:"width" json:"width"`
	Height      float64          `toml:"height" yaml:"height" json:"height"`
	Orientation string           `toml:"orientation" yaml:"orientation" json:"orientation"`
	Margins     document.Margins `toml:"margins" yaml:"margins" json:"margins"`
}

// Geometry converts the page settings to a document geometry.
func (p PageSettings) Geometry() document.Geometry {
	return document.Geometry{
		Width:       p.Width,
		Height:      p.Height,
		Margins:     p.Margins,
		Orientation: document.Orientation(p.Orientation),
	}
}

// TabSettings configures tab stops. Stops are explicit positions from the
// content edge; past the last stop, tabs advance by Width.
type TabSettings struct {
	Stops []float64 `toml:"stops" yaml:"stops" json:"stops"`
	Width float64   `toml:"width" yaml:"width" json:"width"`
}

// FontSettings selects the measurement surface and the default face.
type FontSettings struct {
	Measurer string  `toml:"measurer" yaml:"measurer" json:"measurer"`
	Family   string  `toml:"family" yaml:"family" json:"family"`
	Size     float64 `toml:"size" yaml:"size" json:"size"`
}

// HistorySettings configures undo checkpoints.
type HistorySettings struct {
	DebounceMillis int `toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
	MaxEntries     int `toml:"max_entries" yaml:"max_entries" json:"max_entries"`
}

// Delay returns the checkpoint debounce as a duration.
func (h HistorySettings) Delay() time.Duration {
	return time.Duration(h.DebounceMillis) * time.Millisecond
}

// LoggingSettings configures the application logger.
type LoggingSettings struct {
	Level string `toml:"level" yaml:"level" json:"level"`
}

// Measurers lists the accepted font.measurer values.
var Measurers = []string{"fixed", "opentype", "canvas"}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Defaults returns US Letter pages with one inch margins, half inch tabs,
// the opentype measurer and a 500ms, 50 entry history.
func Defaults() Settings {
	g := document.Letter()
	return Settings{
		Page: PageSettings{
			Width:       g.Width,
			Height:      g.Height,
			Orientation: string(g.Orientation),
			Margins:     g.Margins,
		},
		Tabs: TabSettings{Width: 48},
		Font: FontSettings{Measurer: "opentype", Size: 16},
		History: HistorySettings{
			DebounceMillis: 500,
			MaxEntries:     50,
		},
		Logging: LoggingSettings{Level: "info"},
	}
}

// Validate checks every section and joins all failures. Each failure is a
// *ValidationError.
func (s Settings) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	switch document.Orientation(s.Page.Orientation) {
	case "", document.Portrait, document.Landscape:
	default:
		add("page.orientation", "must be portrait or landscape", s.Page.Orientation, ErrCodeInvalidEnum)
	}
	g := s.Page.Geometry()
	m := g.Margins
	switch {
	case g.Width <= 0 || g.Height <= 0:
		add("page", "width and height must be positive", [2]float64{g.Width, g.Height}, ErrCodeOutOfRange)
	case m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0:
		add("page.margins", "must not be negative", m, ErrCodeOutOfRange)
	case g.ContentWidth() <= 0 || g.ContentHeight() <= 0:
		add("page.margins", "must leave a content area", m, ErrCodeOutOfRange)
	}

	if s.Tabs.Width < 0 {
		add("tabs.width", "must not be negative", s.Tabs.Width, ErrCodeOutOfRange)
	}
	for i, stop := range s.Tabs.Stops {
		if stop <= 0 {
			add("tabs.stops", "stops must be positive", stop, ErrCodeOutOfRange)
			break
		}
		if i > 0 && stop <= s.Tabs.Stops[i-1] {
			add("tabs.stops", "stops must be strictly increasing", s.Tabs.Stops, ErrCodeUnordered)
			break
		}
	}

	if s.Font.Measurer != "" && !slices.Contains(Measurers, s.Font.Measurer) {
		add("font.measurer", "must be one of "+strings.Join(Measurers, ", "), s.Font.Measurer, ErrCodeInvalidEnum)
	}
	if s.Font.Size < 0 || s.Font.Size > 400 {
		add("font.size", "must be between 0 and 400", s.Font.Size, ErrCodeOutOfRange)
	}

	if s.History.DebounceMillis < 0 {
		add("history.debounce_ms", "must not be negative", s.History.DebounceMillis, ErrCodeOutOfRange)
	}
	if s.History.MaxEntries != 0 && s.History.MaxEntries < 2 {
		add("history.max_entries", "must be at least 2", s.History.MaxEntries, ErrCodeOutOfRange)
	}

	if s.Logging.Level != "" && !slices.Contains(logLevels, strings.ToLower(s.Logging.Level)) {
		add("logging.level", "must be debug, info, warn or error", s.Logging.Level, ErrCodeInvalidEnum)
	}
	return errors.Join(errs...)
}
