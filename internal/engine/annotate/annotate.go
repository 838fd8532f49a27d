package annotate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/selection"
)

// Errors returned by comment operations.
var (
	ErrCollapsed       = errors.New("selection is collapsed")
	ErrEmptySpan       = errors.New("selection covers no text")
	ErrCommentNotFound = errors.New("comment not found")
)

// Anchor locates a comment. Block, Start and End record where the marker
// was last seen; Quote is the text it was created on.
type Anchor struct {
	Marker string           `json:"marker"`
	Block  document.BlockID `json:"block"`
	Start  int              `json:"start"`
	End    int              `json:"end"`
	Quote  string           `json:"quote"`
}

// Reply is a response in a comment thread.
type Reply struct {
	ID      string    `json:"id"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
}

// Comment is a note attached to a span of text.
type Comment struct {
	ID       string    `json:"id"`
	Anchor   Anchor    `json:"anchor"`
	Body     string    `json:"body"`
	Resolved bool      `json:"resolved"`
	Orphaned bool      `json:"orphaned"`
	Replies  []Reply   `json:"replies,omitempty"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

func (c *Comment) clone() Comment {
	out := *c
	out.Replies = slices.Clone(c.Replies)
	return out
}

// Logger receives annotation diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the generator for comment, reply and marker ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock sets the time source for comment timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine manages the comments of one document.
type Engine struct {
	doc      *document.Document
	comments []*Comment
	active   int

	newID func() string
	now   func() time.Time
	log   Logger
}

// New creates an annotation engine for doc.
func New(doc *document.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:    doc,
		active: -1,
		newID:  uuid.NewString,
		now:    time.Now,
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) find(id string) (int, *Comment) {
	for i, c := range e.comments {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

// AddComment wraps the selected text in a new marker and attaches a
// comment with body to it. The selection may span blocks.
func (e *Engine) AddComment(sel selection.Selection, body string) (Comment, error) {
	if sel.IsCollapsed() {
		return Comment{}, ErrCollapsed
	}
	start, end := sel.Ordered(e.doc.Compare)
	quote, err := e.doc.SpanText(start, end)
	if err != nil {
		return Comment{}, err
	}
	if quote == "" {
		return Comment{}, ErrEmptySpan
	}
	marker := "c-" + e.newID()
	if err := e.doc.WrapAnchor(start, end, marker); err != nil {
		return Comment{}, err
	}
	now := e.now()
	c := &Comment{
		ID:      e.newID(),
		Anchor:  Anchor{Marker: marker, Block: start.Block, Start: start.Offset, End: end.Offset, Quote: quote},
		Body:    body,
		Created: now,
		Updated: now,
	}
	e.comments = append(e.comments, c)
	e.active = len(e.comments) - 1
	return c.clone(), nil
}

// EditComment replaces the body of a comment.
func (e *Engine) EditComment(id, body string) error {
	_, c := e.find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	c.Body = body
	c.Updated = e.now()
	return nil
}

// AddReply appends a reply to a comment thread.
func (e *Engine) AddReply(id, body string) (Reply, error) {
	_, c := e.find(id)
	if c == nil {
		return Reply{}, fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	r := Reply{ID: e.newID(), Body: body, Created: e.now()}
	c.Replies = append(c.Replies, r)
	c.Updated = r.Created
	return r, nil
}

// ResolveComment marks a comment resolved or reopens it.
func (e *Engine) ResolveComment(id string, resolved bool) error {
	_, c := e.find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	c.Resolved = resolved
	c.Updated = e.now()
	return nil
}

// DeleteComment removes a comment and unwraps its marker. The text it
// covered is left unchanged.
func (e *Engine) DeleteComment(id string) error {
	i, c := e.find(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	e.doc.UnwrapAnchor(c.Anchor.Marker)
	e.comments = slices.Delete(e.comments, i, i+1)
	switch {
	case len(e.comments) == 0:
		e.active = -1
	case e.active >= i:
		e.active = max(e.active-1, 0)
	}
	return nil
}

// Comments returns copies of all comments in creation order.
func (e *Engine) Comments() []Comment {
	out := make([]Comment, len(e.comments))
	for i, c := range e.comments {
		out[i] = c.clone()
	}
	return out
}

// Comment returns a copy of one comment.
func (e *Engine) Comment(id string) (Comment, bool) {
	_, c := e.find(id)
	if c == nil {
		return Comment{}, false
	}
	return c.clone(), true
}

// Len returns the number of comments.
func (e *Engine) Len() int {
	return len(e.comments)
}

// Active returns the id of the comment last navigated to or added.
func (e *Engine) Active() string {
	if e.active < 0 || e.active >= len(e.comments) {
		return ""
	}
	return e.comments[e.active].ID
}

// Next moves to the following comment, wrapping to the first.
func (e *Engine) Next() (Comment, bool) {
	if len(e.comments) == 0 {
		return Comment{}, false
	}
	e.active = (e.active + 1) % len(e.comments)
	return e.comments[e.active].clone(), true
}

// Prev moves to the preceding comment, wrapping to the last.
func (e *Engine) Prev() (Comment, bool) {
	if len(e.comments) == 0 {
		return Comment{}, false
	}
	if e.active <= 0 {
		e.active = len(e.comments) - 1
	} else {
		e.active--
	}
	return e.comments[e.active].clone(), true
}

// Locate returns the current extent of a comment's marker. It reports
// false for unknown or orphaned comments.
func (e *Engine) Locate(id string) (selection.Selection, bool) {
	_, c := e.find(id)
	if c == nil {
		return selection.Selection{}, false
	}
	spans := e.doc.AnchorSpans(c.Anchor.Marker)
	if len(spans) == 0 {
		return selection.Selection{}, false
	}
	first, last := spans[0], spans[len(spans)-1]
	return selection.New(selection.At(first.Block, first.Start), selection.At(last.Block, last.End)), true
}

// Reconcile brings comments back in line with the document. Comments
// whose marker is present are refreshed; the others are re-anchored at the
// first occurrence of their quote, or flagged orphaned. Markers without a
// comment are unwrapped. It reports whether anything changed.
func (e *Engine) Reconcile() bool {
	present := make(map[string]bool)
	for _, m := range e.doc.Markers() {
		present[m] = true
	}
	changed := false
	known := make(map[string]bool, len(e.comments))

	for _, c := range e.comments {
		known[c.Anchor.Marker] = true
		if present[c.Anchor.Marker] {
			changed = e.refresh(c) || changed
			continue
		}
		if e.reattach(c) {
			changed = true
			continue
		}
		if !c.Orphaned {
			c.Orphaned = true
			changed = true
			e.log.Debug("annotate: comment %s orphaned, %q not found", c.ID, c.Anchor.Quote)
		}
	}

	for m := range present {
		if !known[m] {
			e.doc.UnwrapAnchor(m)
			e.log.Warn("annotate: removed stray marker %s", m)
			changed = true
		}
	}
	return changed
}

// refresh records the current position of a present marker.
func (e *Engine) refresh(c *Comment) bool {
	spans := e.doc.AnchorSpans(c.Anchor.Marker)
	first, last := spans[0], spans[len(spans)-1]
	moved := c.Anchor.Block != first.Block || c.Anchor.Start != first.Start || c.Anchor.End != last.End
	c.Anchor.Block, c.Anchor.Start, c.Anchor.End = first.Block, first.Start, last.End
	if c.Orphaned {
		c.Orphaned = false
		return true
	}
	return moved
}

// reattach wraps the first occurrence of the comment's quote.
func (e *Engine) reattach(c *Comment) bool {
	if c.Anchor.Quote == "" {
		return false
	}
	body := flatten(e.doc)
	off := strings.Index(body.text, c.Anchor.Quote)
	if off < 0 {
		return false
	}
	start, end := body.point(off), body.point(off+len(c.Anchor.Quote))
	if err := e.doc.WrapAnchor(start, end, c.Anchor.Marker); err != nil {
		e.log.Warn("annotate: re-anchor comment %s: %v", c.ID, err)
		return false
	}
	c.Anchor.Block, c.Anchor.Start, c.Anchor.End = start.Block, start.Offset, end.Offset
	c.Orphaned = false
	e.log.Debug("annotate: comment %s re-anchored in %s", c.ID, start.Block)
	return true
}

type segment struct {
	id    document.BlockID
	start int
	len   int
}

// flatText is the body text with blocks joined by "\n", the same way
// selections spanning blocks are quoted.
type flatText struct {
	text string
	segs []segment
}

func flatten(doc *document.Document) flatText {
	var b strings.Builder
	var segs []segment
	for _, id := range doc.Blocks() {
		blk := doc.Block(id)
		if blk.Kind == document.Table {
			continue
		}
		if len(segs) > 0 {
			b.WriteByte('\n')
		}
		text := blk.Text()
		segs = append(segs, segment{id: id, start: b.Len(), len: len(text)})
		b.WriteString(text)
	}
	return flatText{text: b.String(), segs: segs}
}

func (f flatText) point(off int) selection.Point {
	i := sort.Search(len(f.segs), func(i int) bool { return f.segs[i].start > off }) - 1
	s := f.segs[max(i, 0)]
	return selection.At(s.id, min(max(off-s.start, 0), s.len))
}

// Capture serializes every comment, anchors included.
func (e *Engine) Capture() ([]byte, error) {
	return json.Marshal(e.Comments())
}

// Restore replaces the comment list with a captured one and reconciles.
// The captured list is authoritative: comments added since the capture
// are dropped and comments deleted since come back, thread edits included.
// The active comment stays active when it is part of the list.
func (e *Engine) Restore(data []byte) error {
	var in []Comment
	if len(data) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("restore comments: %w", err)
		}
	}
	active := e.Active()
	e.comments = make([]*Comment, len(in))
	e.active = -1
	for i := range in {
		e.comments[i] = &in[i]
		if in[i].ID == active {
			e.active = i
		}
	}
	if e.Reconcile() {
		e.log.Debug("annotate: restored comments needed reconciling")
	}
	return nil
}
