package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "QUIRE_"

// envMapping maps environment variables to the setting they override.
var envMapping = map[string]func(*Settings, string) error{
	"QUIRE_LOG_LEVEL": func(s *Settings, v string) error {
		s.Logging.Level = strings.ToLower(v)
		return nil
	},
	"QUIRE_MEASURER": func(s *Settings, v string) error {
		s.Font.Measurer = strings.ToLower(v)
		return nil
	},
	"QUIRE_FONT_FAMILY": func(s *Settings, v string) error {
		s.Font.Family = v
		return nil
	},
	"QUIRE_FONT_SIZE":           floatSetter(func(s *Settings) *float64 { return &s.Font.Size }),
	"QUIRE_TAB_WIDTH":           floatSetter(func(s *Settings) *float64 { return &s.Tabs.Width }),
	"QUIRE_HISTORY_DEBOUNCE_MS": intSetter(func(s *Settings) *int { return &s.History.DebounceMillis }),
	"QUIRE_HISTORY_MAX_ENTRIES": intSetter(func(s *Settings) *int { return &s.History.MaxEntries }),
}

func floatSetter(field func(*Settings) *float64) func(*Settings, string) error {
	return func(s *Settings, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*field(s) = f
		return nil
	}
}

func intSetter(field func(*Settings) *int) func(*Settings, string) error {
	return func(s *Settings, v string) error {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(s) = i
		return nil
	}
}

// ApplyEnv overrides settings from QUIRE_* variables. lookup defaults to
// os.LookupEnv. Empty values are ignored. Unknown QUIRE_ variables are left
// alone.
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for name, set := range envMapping {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		if err := set(s, v); err != nil {
			return &ValidationError{
				Path:    name,
				Message: fmt.Sprintf("cannot parse: %v", err),
				Value:   v,
				Code:    ErrCodeOutOfRange,
			}
		}
	}
	return nil
}
