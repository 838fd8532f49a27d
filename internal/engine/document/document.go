package document

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Page is one page of the document.
type Page struct {
	ID       PageID    `json:"id"`
	Blocks   []BlockID `json:"blocks"`
	Geometry Geometry  `json:"geometry"`
	Header   BlockID   `json:"header,omitempty"`
	Footer   BlockID   `json:"footer,omitempty"`
}

// Document is the arena of pages, blocks and list nodes.
//
// Document is not safe for concurrent use; the engine facade serializes
// access to it.
type Document struct {
	order    []PageID
	pages    map[PageID]*Page
	blocks   map[BlockID]*Block
	lists    map[ListID]*ListNode
	geometry Geometry
	newID    func() string
}

// Option configures a Document.
type Option func(*Document)

// WithIDGenerator sets the id generator. The default generates uuids.
func WithIDGenerator(fn func() string) Option {
	return func(d *Document) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// WithGeometry sets the geometry of the first page and of pages created
// later without a predecessor.
func WithGeometry(g Geometry) Option {
	return func(d *Document) {
		d.geometry = g.Oriented()
	}
}

// New creates a document with one page holding one empty paragraph.
func New(opts ...Option) *Document {
	d := &Document{
		pages:    make(map[PageID]*Page),
		blocks:   make(map[BlockID]*Block),
		lists:    make(map[ListID]*ListNode),
		geometry: Letter(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	p := d.appendPage(d.geometry)
	b := d.NewBlock(Paragraph, nil)
	_ = d.InsertAt(p.ID, 0, b)
	return d
}

// NewID returns a fresh id from the document's generator.
func (d *Document) NewID() string {
	return d.newID()
}

// DefaultGeometry returns the geometry used for pages without a predecessor.
func (d *Document) DefaultGeometry() Geometry {
	return d.geometry
}

// SetDefaultGeometry validates and sets the default geometry.
func (d *Document) SetDefaultGeometry(g Geometry) error {
	g = g.Oriented()
	if err := g.Validate(); err != nil {
		return err
	}
	d.geometry = g
	return nil
}

// Pages returns the page ids in order.
func (d *Document) Pages() []PageID {
	return slices.Clone(d.order)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.order)
}

// Page returns the page with the given id, or nil.
func (d *Document) Page(id PageID) *Page {
	return d.pages[id]
}

// PageAt returns the page at index i, or nil.
func (d *Document) PageAt(i int) *Page {
	if i < 0 || i >= len(d.order) {
		return nil
	}
	return d.pages[d.order[i]]
}

// PageIndex returns the index of the page, or -1.
func (d *Document) PageIndex(id PageID) int {
	return slices.Index(d.order, id)
}

// SetPageGeometry validates and sets the geometry of one page.
func (d *Document) SetPageGeometry(id PageID, g Geometry) error {
	p := d.pages[id]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	g = g.Oriented()
	if err := g.Validate(); err != nil {
		return err
	}
	p.Geometry = g
	return nil
}

// Block returns the block with the given id, or nil.
func (d *Document) Block(id BlockID) *Block {
	return d.blocks[id]
}

// BlockLen returns the text length of a block, or 0 if it does not exist.
func (d *Document) BlockLen(id BlockID) int {
	if b := d.blocks[id]; b != nil {
		return b.Len()
	}
	return 0
}

// Blocks returns every body block id in document order.
func (d *Document) Blocks() []BlockID {
	var out []BlockID
	for _, pid := range d.order {
		out = append(out, d.pages[pid].Blocks...)
	}
	return out
}

// position returns the page index and index within the page of a body block.
func (d *Document) position(id BlockID) (int, int, bool) {
	b := d.blocks[id]
	if b == nil {
		return 0, 0, false
	}
	pi := d.PageIndex(b.Page)
	if pi < 0 {
		return 0, 0, false
	}
	bi := slices.Index(d.pages[b.Page].Blocks, id)
	if bi < 0 {
		return 0, 0, false
	}
	return pi, bi, true
}

// Compare orders two body blocks in document order. Unknown blocks sort
// after every known block.
func (d *Document) Compare(a, b BlockID) int {
	if a == b {
		return 0
	}
	ap, ai, aok := d.position(a)
	bp, bi, bok := d.position(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case ap != bp:
		return ap - bp
	default:
		return ai - bi
	}
}

// Next returns the block following id in document order, or nil.
func (d *Document) Next(id BlockID) *Block {
	pi, bi, ok := d.position(id)
	if !ok {
		return nil
	}
	for ; pi < len(d.order); pi++ {
		blocks := d.pages[d.order[pi]].Blocks
		if bi+1 < len(blocks) {
			return d.blocks[blocks[bi+1]]
		}
		bi = -1
	}
	return nil
}

// Prev returns the block preceding id in document order, or nil.
func (d *Document) Prev(id BlockID) *Block {
	pi, bi, ok := d.position(id)
	if !ok {
		return nil
	}
	for pi >= 0 {
		blocks := d.pages[d.order[pi]].Blocks
		if bi-1 >= 0 {
			return d.blocks[blocks[bi-1]]
		}
		pi--
		if pi >= 0 {
			bi = len(d.pages[d.order[pi]].Blocks)
		}
	}
	return nil
}

// First returns the first body block, or nil.
func (d *Document) First() *Block {
	for _, pid := range d.order {
		if blocks := d.pages[pid].Blocks; len(blocks) > 0 {
			return d.blocks[blocks[0]]
		}
	}
	return nil
}

// BlocksBetween returns the body blocks from a to b inclusive, in document
// order. The endpoints may be given in either order.
func (d *Document) BlocksBetween(a, b BlockID) []BlockID {
	if d.Compare(a, b) > 0 {
		a, b = b, a
	}
	var out []BlockID
	in := false
	for _, id := range d.Blocks() {
		if id == a {
			in = true
		}
		if in {
			out = append(out, id)
		}
		if id == b {
			break
		}
	}
	return out
}

// NewBlock allocates a block in the arena. The block is not placed on a
// page until it is inserted.
func (d *Document) NewBlock(kind Kind, runs Runs) *Block {
	b := &Block{ID: d.newID(), Kind: kind, Runs: runs.normalize()}
	d.blocks[b.ID] = b
	return b
}

// InsertAt places block b on page at index.
func (d *Document) InsertAt(page PageID, index int, b *Block) error {
	p := d.pages[page]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPageNotFound, page)
	}
	if _, ok := d.blocks[b.ID]; !ok {
		d.blocks[b.ID] = b
	}
	index = min(max(index, 0), len(p.Blocks))
	p.Blocks = slices.Insert(p.Blocks, index, b.ID)
	b.Page = page
	return nil
}

// InsertAfter places block b directly after the block with id after.
func (d *Document) InsertAfter(after BlockID, b *Block) error {
	_, bi, ok := d.position(after)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, after)
	}
	return d.InsertAt(d.blocks[after].Page, bi+1, b)
}

// InsertBefore places block b directly before the block with id before.
func (d *Document) InsertBefore(before BlockID, b *Block) error {
	_, bi, ok := d.position(before)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, before)
	}
	return d.InsertAt(d.blocks[before].Page, bi, b)
}

// detach removes a block from its page without deleting it.
func (d *Document) detach(id BlockID) {
	b := d.blocks[id]
	if b == nil {
		return
	}
	if p := d.pages[b.Page]; p != nil {
		if i := slices.Index(p.Blocks, id); i >= 0 {
			p.Blocks = slices.Delete(p.Blocks, i, i+1)
		}
	}
}

// MoveBlocks moves the given body blocks, in order, to page at index.
func (d *Document) MoveBlocks(ids []BlockID, page PageID, index int) error {
	p := d.pages[page]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPageNotFound, page)
	}
	for _, id := range ids {
		if d.blocks[id] == nil {
			return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
		}
	}
	for _, id := range ids {
		b := d.blocks[id]
		if b.Page == page {
			if i := slices.Index(p.Blocks, id); i >= 0 && i < index {
				index--
			}
		}
		d.detach(id)
	}
	index = min(max(index, 0), len(p.Blocks))
	p.Blocks = slices.Insert(p.Blocks, index, ids...)
	for _, id := range ids {
		d.blocks[id].Page = page
	}
	return nil
}

// DeleteBlock removes a body block from its page, its list and the arena.
// A list item's nested lists are kept; see RemoveItem.
func (d *Document) DeleteBlock(id BlockID) error {
	b := d.blocks[id]
	if b == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if b.List != nil {
		d.RemoveItem(id)
	}
	d.detach(id)
	delete(d.blocks, id)
	for _, other := range d.blocks {
		if other.Continues == id {
			other.Continues = ""
		}
	}
	return nil
}

// Join appends the runs of block b to block a and deletes b. Blocks that
// continued b continue a afterwards.
func (d *Document) Join(a, b BlockID) error {
	ab, bb := d.blocks[a], d.blocks[b]
	if ab == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, a)
	}
	if bb == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, b)
	}
	if ab.Kind == Table || bb.Kind == Table {
		return ErrNotEditable
	}
	ab.Runs = ab.Runs.Concat(bb.Runs)
	if bb.List != nil {
		d.RemoveItem(b)
	}
	d.detach(b)
	delete(d.blocks, b)
	for _, other := range d.blocks {
		if other.Continues == b {
			other.Continues = a
		}
	}
	return nil
}

func (d *Document) appendPage(g Geometry) *Page {
	p := &Page{ID: d.newID(), Geometry: g}
	d.pages[p.ID] = p
	d.order = append(d.order, p.ID)
	return p
}

// InsertPageAfter creates an empty page after the given page. The new page
// inherits the geometry of its predecessor and a copy of its header and
// footer.
func (d *Document) InsertPageAfter(after PageID) (*Page, error) {
	prev := d.pages[after]
	if prev == nil {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, after)
	}
	p := &Page{ID: d.newID(), Geometry: prev.Geometry}
	if h := d.blocks[prev.Header]; h != nil {
		c := h.Clone()
		c.ID, c.Page = d.newID(), p.ID
		d.blocks[c.ID] = c
		p.Header = c.ID
	}
	if f := d.blocks[prev.Footer]; f != nil {
		c := f.Clone()
		c.ID, c.Page = d.newID(), p.ID
		d.blocks[c.ID] = c
		p.Footer = c.ID
	}
	d.pages[p.ID] = p
	i := d.PageIndex(after)
	d.order = slices.Insert(d.order, i+1, p.ID)
	return p, nil
}

// DeletePage deletes a page together with its header, footer and any body
// blocks still on it. The last page cannot be deleted.
func (d *Document) DeletePage(id PageID) error {
	p := d.pages[id]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	if len(d.order) == 1 {
		return ErrLastPage
	}
	for _, bid := range slices.Clone(p.Blocks) {
		_ = d.DeleteBlock(bid)
	}
	delete(d.blocks, p.Header)
	delete(d.blocks, p.Footer)
	delete(d.pages, id)
	d.order = slices.DeleteFunc(d.order, func(pid PageID) bool { return pid == id })
	return nil
}

// SetHeader sets the header text of a page, creating the header block if
// needed. Empty text removes the header.
func (d *Document) SetHeader(page PageID, runs Runs) error {
	return d.setMargin(page, runs, func(p *Page) *BlockID { return &p.Header })
}

// SetFooter sets the footer text of a page.
func (d *Document) SetFooter(page PageID, runs Runs) error {
	return d.setMargin(page, runs, func(p *Page) *BlockID { return &p.Footer })
}

func (d *Document) setMargin(page PageID, runs Runs, slot func(*Page) *BlockID) error {
	p := d.pages[page]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPageNotFound, page)
	}
	id := slot(p)
	if runs.Len() == 0 {
		delete(d.blocks, *id)
		*id = ""
		return nil
	}
	b := d.blocks[*id]
	if b == nil {
		b = d.NewBlock(Paragraph, nil)
		b.Page = page
		*id = b.ID
	}
	b.Runs = runs.normalize()
	return nil
}
