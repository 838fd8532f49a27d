package paginate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/engine/selection"
)

// Logger receives pagination diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Option configures a Paginator.
type Option func(*Paginator)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(p *Paginator) {
		if l != nil {
			p.log = l
		}
	}
}

// WithFace sets the base face body text is measured in.
func WithFace(f measure.Face) Option {
	return func(p *Paginator) {
		p.face = f
	}
}

// WithTabStops sets explicit tab stop positions in pixels from the left
// content edge. Past the last stop, tabs advance by the tab width.
func WithTabStops(stops []float64, width float64) Option {
	return func(p *Paginator) {
		p.SetTabStops(stops, width)
	}
}

// Paginator keeps page content within page bounds.
type Paginator struct {
	doc      *document.Document
	m        measure.Measurer
	face     measure.Face
	tabStops []float64
	tabWidth float64
	log      Logger
}

// New creates a paginator for doc measuring with m.
func New(doc *document.Document, m measure.Measurer, opts ...Option) *Paginator {
	p := &Paginator{
		doc:      doc,
		m:        m,
		tabWidth: DefaultTabWidth,
		log:      nopLogger{},
	}
	if p.m == nil {
		p.m = measure.Unavailable{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTabStops replaces the tab stops. Non-positive widths keep the default.
func (p *Paginator) SetTabStops(stops []float64, width float64) {
	stops = slices.Clone(stops)
	slices.Sort(stops)
	p.tabStops = slices.DeleteFunc(stops, func(s float64) bool { return s <= 0 })
	if width > 0 {
		p.tabWidth = width
	}
}

// SetFace replaces the base face.
func (p *Paginator) SetFace(f measure.Face) {
	p.face = f
}

// SetMeasurer replaces the measurement surface.
func (p *Paginator) SetMeasurer(m measure.Measurer) {
	if m == nil {
		m = measure.Unavailable{}
	}
	p.m = m
}

// Result lists the pages a reflow touched and the pages it created.
type Result struct {
	Pages   []document.PageID
	Created []document.PageID
}

// Changed reports whether the reflow moved any content.
func (r Result) Changed() bool {
	return len(r.Pages) > 1 || len(r.Created) > 0
}

// Reflow moves content that overflows page down to the following pages,
// cascading until a page fits. When the measurement surface is
// unavailable the reflow is skipped and nothing is moved.
func (p *Paginator) Reflow(page document.PageID) (Result, error) {
	idx := p.doc.PageIndex(page)
	if idx < 0 {
		return Result{}, fmt.Errorf("%w: %s", document.ErrPageNotFound, page)
	}
	return p.reflowFrom(idx, false)
}

// ReflowAll reflows every page from the first.
func (p *Paginator) ReflowAll() (Result, error) {
	return p.reflowFrom(0, true)
}

func (p *Paginator) reflowFrom(idx int, all bool) (Result, error) {
	var res Result
	for ; idx < p.doc.PageCount(); idx++ {
		pg := p.doc.PageAt(idx)
		if err := pg.Geometry.Validate(); err != nil {
			return res, err
		}
		created, moved, err := p.fit(idx)
		if errors.Is(err, measure.ErrUnavailable) {
			p.log.Warn("pagination skipped on page %d: %v", idx+1, err)
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Pages = append(res.Pages, pg.ID)
		if created != "" {
			res.Created = append(res.Created, created)
		}
		if !moved && !all {
			break
		}
	}
	if len(res.Created) > 0 {
		p.log.Debug("reflow created %d page(s)", len(res.Created))
	}
	return res, nil
}

// fit measures page idx and moves the overflow to the next page. The
// first token or block on a page is always placed, so a page never ends
// up empty and the cascade terminates.
func (p *Paginator) fit(idx int) (created document.PageID, moved bool, err error) {
	pg := p.doc.PageAt(idx)
	limit := pg.Geometry.ContentHeight()
	width := pg.Geometry.ContentWidth()

	used, placed := 0.0, false
	for i, bid := range pg.Blocks {
		b := p.doc.Block(bid)
		if b.Kind.Atomic() {
			h, err := p.blockHeight(b, width)
			if err != nil {
				return "", false, err
			}
			if placed && used+h > limit {
				created, err := p.moveTail(idx, i, -1)
				return created, true, err
			}
			used += h
			placed = true
			continue
		}

		lines, err := p.layoutRuns(b, b.Runs, width-indent(b))
		if err != nil {
			return "", false, err
		}
		for li, ln := range lines {
			if placed && used+ln.height > limit {
				split := ln.start
				if li == 0 {
					split = -1
				}
				created, err := p.moveTail(idx, i, split)
				return created, true, err
			}
			used += ln.height
			placed = true
		}
		used += b.Style.SpaceAfter
	}
	return "", false, nil
}

// moveTail moves blocks [i:] of page idx to the front of the next page.
// When split is not negative, block i is split at that offset first and
// only its remainder moves.
func (p *Paginator) moveTail(idx, i, split int) (document.PageID, error) {
	pg := p.doc.PageAt(idx)
	ids := slices.Clone(pg.Blocks[i:])
	if split >= 0 {
		b := p.doc.Block(ids[0])
		rem := p.doc.NewBlock(b.Kind, b.Runs.Slice(split, b.Runs.Len()))
		rem.Style = b.Style
		rem.Continues = b.ID
		b.Runs = b.Runs.Slice(0, split)
		ids[0] = rem.ID
	}

	var created document.PageID
	next := p.doc.PageAt(idx + 1)
	if next == nil {
		np, err := p.doc.InsertPageAfter(pg.ID)
		if err != nil {
			return "", err
		}
		next, created = np, np.ID
	}
	if err := p.doc.MoveBlocks(ids, next.ID, 0); err != nil {
		return created, err
	}

	if len(next.Blocks) > len(ids) {
		last := p.doc.Block(ids[len(ids)-1])
		first := p.doc.Block(next.Blocks[len(ids)])
		if continuation(last, first) {
			if err := p.doc.Join(last.ID, first.ID); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

// continuation reports whether next continues prev: either it was split
// off prev, or both were split off the same block.
func continuation(prev, next *document.Block) bool {
	if next.Continues == "" {
		return false
	}
	return next.Continues == prev.ID || next.Continues == prev.Continues
}

// MergeUp appends the content of page to the previous page and deletes
// it. A leading block that continues the previous page's last block is
// joined back onto it. MergeUp does not reflow. It returns the caret at
// the seam and false when page is the first page.
func (p *Paginator) MergeUp(page document.PageID) (selection.Point, bool, error) {
	idx := p.doc.PageIndex(page)
	if idx < 0 {
		return selection.Point{}, false, fmt.Errorf("%w: %s", document.ErrPageNotFound, page)
	}
	pg := p.doc.PageAt(idx)
	var caret selection.Point
	if len(pg.Blocks) > 0 {
		caret = selection.At(pg.Blocks[0], 0)
	}
	if idx == 0 {
		return caret, false, nil
	}
	prev := p.doc.PageAt(idx - 1)
	ids := slices.Clone(pg.Blocks)
	var last *document.Block
	if n := len(prev.Blocks); n > 0 {
		last = p.doc.Block(prev.Blocks[n-1])
	}

	if err := p.doc.MoveBlocks(ids, prev.ID, len(prev.Blocks)); err != nil {
		return caret, false, err
	}
	if last != nil && len(ids) > 0 {
		first := p.doc.Block(ids[0])
		if first.Continues == last.ID && last.Kind != document.Table && first.Kind != document.Table {
			seam := selection.At(last.ID, last.Len())
			if err := p.doc.Join(last.ID, first.ID); err != nil {
				return caret, false, err
			}
			caret = seam
		}
	}
	if err := p.doc.DeletePage(page); err != nil {
		return caret, false, err
	}
	return caret, true, nil
}

// Height measures blocks laid out on a page with geometry g.
func (p *Paginator) Height(blocks []*document.Block, g document.Geometry) (float64, error) {
	total := 0.0
	for _, b := range blocks {
		h, err := p.blockHeight(b, g.ContentWidth())
		if err != nil {
			return 0, err
		}
		total += h
	}
	return total, nil
}

// PageHeight measures the body content of a page.
func (p *Paginator) PageHeight(page document.PageID) (float64, error) {
	pg := p.doc.Page(page)
	if pg == nil {
		return 0, fmt.Errorf("%w: %s", document.ErrPageNotFound, page)
	}
	blocks := make([]*document.Block, 0, len(pg.Blocks))
	for _, id := range pg.Blocks {
		blocks = append(blocks, p.doc.Block(id))
	}
	return p.Height(blocks, pg.Geometry)
}
