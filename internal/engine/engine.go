package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/quire/internal/engine/annotate"
	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/lists"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/engine/paginate"
	"github.com/dshills/quire/internal/engine/selection"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/event/events"
	"github.com/dshills/quire/internal/event/topic"
)

// eventSource is the Metadata.Source of every engine notification.
const eventSource = "engine"

// Engine is the operation surface of the editor core. It owns one
// document and its pagination, list, history and comment engines.
//
// All operations are safe for concurrent use. They are serialized by one
// mutex; notifications on the public bus are delivered after it is
// released, so subscribers may call back into the Engine.
type Engine struct {
	mu sync.Mutex

	doc   *document.Document
	sel   selection.Selection
	pager *paginate.Paginator
	lists *lists.Engine
	notes *annotate.Engine
	hist  *history.History

	// internal carries content.changed to the pagination, annotation and
	// history listeners while the lock is held; bus gets every
	// notification once the lock is released.
	internal *event.Bus
	bus      *event.Bus
	outbox   []any

	log Logger
}

// New creates an engine holding one page with one empty paragraph, or the
// text given by WithText.
func New(opts ...Option) (*Engine, error) {
	s := settings{
		geometry: document.Letter(),
		measurer: measure.NewFixed(DefaultFontSize*0.6, DefaultFontSize*1.25),
		face:     measure.Face{Size: DefaultFontSize},
		tabWidth: DefaultTabWidth,
		log:      nopLogger{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.geometry.Oriented().Validate(); err != nil {
		return nil, err
	}
	if s.bus == nil {
		s.bus = event.NewBus()
	}

	docOpts := []document.Option{document.WithGeometry(s.geometry)}
	noteOpts := []annotate.Option{annotate.WithLogger(s.log)}
	if s.newID != nil {
		docOpts = append(docOpts, document.WithIDGenerator(s.newID))
		noteOpts = append(noteOpts, annotate.WithIDGenerator(s.newID))
	}

	e := &Engine{
		doc:      document.New(docOpts...),
		internal: event.NewBus(),
		bus:      s.bus,
		log:      s.log,
	}
	e.pager = paginate.New(e.doc, s.measurer,
		paginate.WithLogger(s.log),
		paginate.WithFace(s.face),
		paginate.WithTabStops(s.tabStops, s.tabWidth),
	)
	e.lists = lists.New(e.doc)
	e.notes = annotate.New(e.doc, noteOpts...)
	if first := e.doc.First(); first != nil {
		e.sel = selection.Caret(first.ID, 0)
	}

	if s.text != "" {
		if err := e.load(s.text); err != nil {
			return nil, err
		}
	}
	if err := e.subscribe(); err != nil {
		return nil, err
	}

	histOpts := []history.Option{
		history.WithLogger(s.log),
		history.WithGuard(e.guard),
		history.WithOnChange(e.historyChanged),
	}
	if s.clock != nil {
		histOpts = append(histOpts, history.WithClock(s.clock))
	}
	if s.delay > 0 {
		histOpts = append(histOpts, history.WithDelay(s.delay))
	}
	if s.maxEntries > 0 {
		histOpts = append(histOpts, history.WithMaxEntries(s.maxEntries))
	}
	hist, err := history.New(source{e}, histOpts...)
	if err != nil {
		return nil, err
	}
	e.hist = hist
	e.outbox = nil
	return e, nil
}

// load replaces the empty first paragraph with the paragraphs of text and
// lays them out.
func (e *Engine) load(text string) error {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.Trim(p, "\n"); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		return nil
	}
	first := e.doc.First()
	first.Runs = document.Plain(paras[0])
	prev := first.ID
	for _, p := range paras[1:] {
		b := e.doc.NewBlock(document.Paragraph, document.Plain(p))
		if err := e.doc.InsertAfter(prev, b); err != nil {
			return err
		}
		prev = b.ID
	}
	_, err := e.pager.ReflowAll()
	return err
}

// guard runs the history debounce callback under the engine lock.
func (e *Engine) guard(f func()) {
	e.lock()
	defer e.unlock()
	f()
}

func (e *Engine) lock() {
	e.mu.Lock()
}

// unlock releases the engine and delivers queued notifications.
func (e *Engine) unlock() {
	out := e.outbox
	e.outbox = nil
	e.mu.Unlock()
	for _, ev := range out {
		if err := e.bus.Publish(context.Background(), ev); err != nil {
			e.log.Warn("engine: notification handler failed: %v", err)
		}
	}
}

// emit queues a notification for the public bus and delivers it to the
// internal listeners now.
func emit[T any](e *Engine, t topic.Topic, payload T) {
	ev := event.NewEvent(t, payload, eventSource)
	e.outbox = append(e.outbox, ev)
	if err := e.internal.Publish(context.Background(), ev); err != nil {
		e.log.Warn("engine: %s listener failed: %v", t, err)
	}
}

// changed announces an edit touching the pages of blocks.
func (e *Engine) changed(op string, structural bool, blocks ...document.BlockID) {
	e.contentChanged(events.OriginEdit, op, structural, e.pagesOf(blocks...))
}

func (e *Engine) contentChanged(origin events.Origin, op string, structural bool, pages []document.PageID) {
	emit(e, events.TopicContentChanged, events.ContentChanged{
		Origin:     origin,
		Op:         op,
		Pages:      pages,
		Structural: structural,
	})
}

// pagesOf returns the pages holding blocks, in document order.
func (e *Engine) pagesOf(blocks ...document.BlockID) []document.PageID {
	var pages []document.PageID
	for _, id := range blocks {
		if b := e.doc.Block(id); b != nil && e.doc.Page(b.Page) != nil && !slices.Contains(pages, b.Page) {
			pages = append(pages, b.Page)
		}
	}
	slices.SortFunc(pages, func(a, b document.PageID) int {
		return e.doc.PageIndex(a) - e.doc.PageIndex(b)
	})
	return pages
}

func (e *Engine) historyChanged(st history.Stats) {
	emit(e, events.TopicHistoryChanged, events.HistoryChanged{
		UndoDepth: st.UndoDepth,
		RedoDepth: st.RedoDepth,
		Pending:   st.Pending,
	})
}

func (e *Engine) commentsChanged() {
	orphaned := 0
	for _, c := range e.notes.Comments() {
		if c.Orphaned {
			orphaned++
		}
	}
	emit(e, events.TopicCommentsChanged, events.CommentsChanged{
		Count:    e.notes.Len(),
		Orphaned: orphaned,
		Active:   e.notes.Active(),
	})
}

// Bus returns the bus notifications are published on.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Selection returns the current selection.
func (e *Engine) Selection() selection.Selection {
	e.lock()
	defer e.unlock()
	return e.sel
}

// SetSelection replaces the current selection. Offsets are clamped to the
// block text.
func (e *Engine) SetSelection(sel selection.Selection) error {
	e.lock()
	defer e.unlock()
	for _, p := range []selection.Point{sel.Anchor, sel.Focus} {
		if e.doc.Block(p.Block) == nil {
			return blockNotFound(p.Block)
		}
	}
	e.sel = sel.Clamp(e.doc.BlockLen)
	return nil
}

func blockNotFound(id document.BlockID) error {
	return fmt.Errorf("%w: %s", document.ErrBlockNotFound, id)
}

// remap moves a point that lies past the end of its block into the
// continuation blocks pagination split off it.
func (e *Engine) remap(p selection.Point) selection.Point {
	b := e.doc.Block(p.Block)
	for b != nil && p.Offset > b.Len() {
		next := e.doc.Next(b.ID)
		if next == nil || next.Continues != b.ID {
			return selection.At(b.ID, b.Len())
		}
		p = selection.At(next.ID, p.Offset-b.Len())
		b = next
	}
	return p
}
