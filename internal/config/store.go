package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Store loads and saves Settings.
type Store interface {
	// Load returns the stored settings decoded on top of Defaults. A store
	// with nothing saved yet returns Defaults.
	Load() (Settings, error)

	// Save persists s. It does not validate.
	Save(s Settings) error

	// Close releases the store.
	Close() error
}

// Format is a settings file encoding.
type Format string

const (
	FormatTOML   Format = "toml"
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// FormatFor picks the format from a path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Open returns the store for path, chosen by extension.
func Open(path string) (Store, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if f == FormatSQLite {
		return OpenSQLite(path)
	}
	return NewFileStore(path)
}
