// Package config provides the persisted settings for quire.
//
// Settings are layered in a fixed order, lowest first:
//
//	┌─────────────────────────────┐
//	│  3. Environment (QUIRE_*)   │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Settings store          │  ← settings.toml / .yaml / .json / .db
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A Store loads and saves the middle layer. The store is chosen by the file
// extension: TOML (go-toml/v2), YAML (yaml.v3), JSON, or a SQLite key/value
// table (modernc.org/sqlite). Values missing from the store keep their
// defaults.
//
// # Basic Usage
//
//	store, err := config.Open(config.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	cfg := config.New(store)
//	defer cfg.Close()
//	if err := cfg.Load(); err != nil {
//	    return err
//	}
//	geom := cfg.Settings().Page.Geometry()
//
// Changes are written back through Update, which validates first:
//
//	err := cfg.Update(func(s *config.Settings) {
//	    s.Page.Margins = document.Uniform(72)
//	})
//
// # Live Reload
//
// Watch starts an fsnotify watcher (see the watcher subpackage) on a file
// store. External edits are reloaded, validated and passed to OnChange
// handlers; an edit that does not parse or validate is logged and ignored.
//
// # Configuration Files
//
//	# ~/.config/quire/settings.toml
//	[page]
//	width = 816.0
//	height = 1056.0
//	orientation = "portrait"
//
//	[page.margins]
//	top = 96.0
//	right = 96.0
//	bottom = 96.0
//	left = 96.0
//
//	[history]
//	debounce_ms = 500
//	max_entries = 50
//
// # Error Handling
//
//   - ParseError: a store could not be decoded, with line and column when known
//   - ValidationError: a setting is out of range; matches ErrValidationFailed
//   - ErrUnsupportedFormat: no store for the path's extension
package config
