package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileStore keeps settings in a TOML, YAML or JSON file.
type FileStore struct {
	path   string
	format Format
}

// NewFileStore returns a store for path. The file need not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if f == FormatSQLite {
		return nil, fmt.Errorf("%w: %s is a database", ErrUnsupportedFormat, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: abs, format: f}, nil
}

// Path returns the absolute file path.
func (s *FileStore) Path() string { return s.path }

// Format returns the file encoding.
func (s *FileStore) Format() Format { return s.format }

// Load implements Store. A missing file yields Defaults.
func (s *FileStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return s.Decode(data)
}

// Decode parses data in the store's format on top of Defaults.
func (s *FileStore) Decode(data []byte) (Settings, error) {
	out := Defaults()
	var err error
	switch s.format {
	case FormatTOML:
		err = toml.Unmarshal(data, &out)
	case FormatYAML:
		if len(bytes.TrimSpace(data)) > 0 {
			err = yaml.Unmarshal(data, &out)
		}
	case FormatJSON:
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return Settings{}, s.parseError(err)
	}
	if len(out.Tabs.Stops) == 0 {
		out.Tabs.Stops = nil
	}
	return out, nil
}

func (s *FileStore) parseError(err error) error {
	pe := &ParseError{Path: s.path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
		pe.Message = derr.Error()
	}
	var serr *json.SyntaxError
	if errors.As(err, &serr) {
		pe.Line, pe.Column = position(s.path, serr.Offset)
	}
	return pe
}

// position converts a byte offset into a 1-based line and column.
func position(path string, offset int64) (int, int) {
	data, err := os.ReadFile(path)
	if err != nil || offset <= 0 || offset > int64(len(data)) {
		return 0, 0
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := int(offset) - (bytes.LastIndexByte(head, '\n') + 1)
	return line, col
}

// Encode renders s in the store's format.
func (s *FileStore) Encode(st Settings) ([]byte, error) {
	switch s.format {
	case FormatTOML:
		return toml.Marshal(st)
	case FormatYAML:
		return yaml.Marshal(st)
	default:
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(st Settings) error {
	data, err := s.Encode(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
