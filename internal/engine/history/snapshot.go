package history

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/zeebo/blake3"
)

// Snapshot is an immutable captured state. Document, Selection and
// Comments are JSON encoded by the Source.
type Snapshot struct {
	Time      time.Time
	Document  []byte
	Selection []byte
	Comments  []byte

	sum [32]byte
}

// Fingerprint returns the content hash of the snapshot. The selection is
// not part of it: moving the caret is not an undoable edit.
func (s *Snapshot) Fingerprint() [32]byte {
	return s.sum
}

func (s *Snapshot) seal() {
	buf := make([]byte, 0, len(s.Document)+len(s.Comments)+1)
	buf = append(buf, s.Document...)
	buf = append(buf, 0)
	buf = append(buf, s.Comments...)
	s.sum = blake3.Sum256(buf)
}

// Validate checks the shape of the snapshot without decoding it.
func (s *Snapshot) Validate() error {
	if !gjson.ValidBytes(s.Document) {
		return fmt.Errorf("%w: document is not valid JSON", ErrCorruptSnapshot)
	}
	if !gjson.GetBytes(s.Document, "order").IsArray() || !gjson.GetBytes(s.Document, "pages").IsObject() {
		return fmt.Errorf("%w: document has no pages", ErrCorruptSnapshot)
	}
	if len(s.Selection) > 0 && !gjson.ValidBytes(s.Selection) {
		return fmt.Errorf("%w: selection is not valid JSON", ErrCorruptSnapshot)
	}
	if len(s.Comments) > 0 {
		if !gjson.ValidBytes(s.Comments) || !gjson.ParseBytes(s.Comments).IsArray() {
			return fmt.Errorf("%w: comments are not a JSON array", ErrCorruptSnapshot)
		}
	}
	return nil
}

// Source produces and applies snapshots.
type Source interface {
	// Snapshot captures the current state. Time and fingerprint are set
	// by History.
	Snapshot() (*Snapshot, error)

	// Restore replaces the current state. It must leave the state
	// untouched when it returns an error.
	Restore(s *Snapshot) error
}
