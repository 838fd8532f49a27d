package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

type pageState struct {
	Geometry Geometry `json:"geometry"`
	Content  []*Block `json:"content"`
	Header   *Block   `json:"header,omitempty"`
	Footer   *Block   `json:"footer,omitempty"`
}

type state struct {
	Order    []PageID             `json:"order"`
	Pages    map[PageID]pageState `json:"pages"`
	Lists    map[ListID]*ListNode `json:"lists,omitempty"`
	Geometry Geometry             `json:"geometry"`
}

// Capture serializes the full content of the document: page order, every
// page's geometry, body blocks, header and footer, and the list trees.
// Equal documents produce identical bytes.
func (d *Document) Capture() ([]byte, error) {
	st := state{
		Order:    d.order,
		Pages:    make(map[PageID]pageState, len(d.pages)),
		Lists:    d.lists,
		Geometry: d.geometry,
	}
	for _, pid := range d.order {
		p := d.pages[pid]
		ps := pageState{
			Geometry: p.Geometry,
			Content:  make([]*Block, 0, len(p.Blocks)),
			Header:   d.blocks[p.Header],
			Footer:   d.blocks[p.Footer],
		}
		for _, bid := range p.Blocks {
			ps.Content = append(ps.Content, d.blocks[bid])
		}
		st.Pages[pid] = ps
	}
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("capture document: %w", err)
	}
	return data, nil
}

// Restore replaces the document content with a captured state. The
// document is left untouched when the state is invalid.
func (d *Document) Restore(data []byte) error {
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if len(st.Order) == 0 {
		return fmt.Errorf("%w: no pages", ErrCorruptState)
	}

	pages := make(map[PageID]*Page, len(st.Order))
	blocks := make(map[BlockID]*Block)
	add := func(pid PageID, b *Block) (BlockID, error) {
		if b == nil {
			return "", nil
		}
		if b.ID == "" {
			return "", fmt.Errorf("%w: block without id", ErrCorruptState)
		}
		if _, dup := blocks[b.ID]; dup {
			return "", fmt.Errorf("%w: duplicate block %s", ErrCorruptState, b.ID)
		}
		b.Page = pid
		b.Runs = b.Runs.normalize()
		blocks[b.ID] = b
		return b.ID, nil
	}
	for _, pid := range st.Order {
		ps, ok := st.Pages[pid]
		if !ok {
			return fmt.Errorf("%w: page %s missing", ErrCorruptState, pid)
		}
		if _, dup := pages[pid]; dup {
			return fmt.Errorf("%w: duplicate page %s", ErrCorruptState, pid)
		}
		p := &Page{ID: pid, Geometry: ps.Geometry}
		for _, b := range ps.Content {
			id, err := add(pid, b)
			if err != nil {
				return err
			}
			if id == "" {
				return fmt.Errorf("%w: null block on page %s", ErrCorruptState, pid)
			}
			p.Blocks = append(p.Blocks, id)
		}
		var err error
		if p.Header, err = add(pid, ps.Header); err != nil {
			return err
		}
		if p.Footer, err = add(pid, ps.Footer); err != nil {
			return err
		}
		pages[pid] = p
	}

	lists := st.Lists
	if lists == nil {
		lists = make(map[ListID]*ListNode)
	}
	for id, l := range lists {
		if l == nil || l.ID != id {
			return fmt.Errorf("%w: list %s", ErrCorruptState, id)
		}
		for _, item := range l.Items {
			b := blocks[item]
			if b == nil || b.List == nil || b.List.List != id {
				return fmt.Errorf("%w: list %s item %s", ErrCorruptState, id, item)
			}
		}
	}

	d.order = append([]PageID(nil), st.Order...)
	d.pages = pages
	d.blocks = blocks
	d.lists = lists
	if st.Geometry.Validate() == nil {
		d.geometry = st.Geometry
	}
	return nil
}

// Tree is a read-only deep copy of the document for export consumers.
type Tree struct {
	Pages []PageTree
	Lists map[ListID]ListNode
}

// PageTree is one page of a Tree.
type PageTree struct {
	ID       PageID
	Geometry Geometry
	Header   *Block
	Footer   *Block
	Blocks   []*Block
}

// Tree returns a deep copy of the document. Mutating it does not affect
// the document.
func (d *Document) Tree() Tree {
	t := Tree{Lists: make(map[ListID]ListNode, len(d.lists))}
	for _, pid := range d.order {
		p := d.pages[pid]
		pt := PageTree{ID: pid, Geometry: p.Geometry}
		if h := d.blocks[p.Header]; h != nil {
			pt.Header = h.Clone()
		}
		if f := d.blocks[p.Footer]; f != nil {
			pt.Footer = f.Clone()
		}
		for _, bid := range p.Blocks {
			pt.Blocks = append(pt.Blocks, d.blocks[bid].Clone())
		}
		t.Pages = append(t.Pages, pt)
	}
	for id, l := range d.lists {
		t.Lists[id] = *l.clone()
	}
	return t
}

// PlainText returns the body text, one block per line. A block split by
// pagination is rejoined with the block it continues.
func (d *Document) PlainText() string {
	var b strings.Builder
	prev := ""
	for i, id := range d.Blocks() {
		blk := d.blocks[id]
		if i > 0 && (blk.Continues == "" || blk.Continues != prev) {
			b.WriteByte('\n')
		}
		b.WriteString(blk.Text())
		prev = id
	}
	return b.String()
}

// PageText returns the concatenated text of a page's body blocks.
func (d *Document) PageText(id PageID) string {
	p := d.pages[id]
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, bid := range p.Blocks {
		b.WriteString(d.blocks[bid].Text())
	}
	return b.String()
}
