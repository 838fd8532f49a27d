package lists

import (
	"slices"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/selection"
)

// Engine manages nested list structure on a document.
type Engine struct {
	doc *document.Document
}

// New creates a list engine for doc.
func New(doc *document.Document) *Engine {
	return &Engine{doc: doc}
}

// ToggleList turns the blocks touched by sel into list items of kind. When
// every touched block already is an item of kind, they become paragraphs
// again. Items of the other kind have their list converted. Tables are
// never listed. It reports whether anything changed.
func (e *Engine) ToggleList(sel selection.Selection, kind document.ListKind) bool {
	start, end := sel.Ordered(e.doc.Compare)
	if e.doc.Block(start.Block) == nil || e.doc.Block(end.Block) == nil {
		return false
	}
	var ids []document.BlockID
	for _, id := range e.doc.BlocksBetween(start.Block, end.Block) {
		if e.doc.Block(id).Kind != document.Table {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return false
	}

	all := true
	for _, id := range ids {
		if l := e.doc.ListOf(id); l == nil || l.Kind != kind {
			all = false
			break
		}
	}
	if all {
		for _, id := range ids {
			e.Unlist(id)
		}
		return true
	}

	for _, id := range ids {
		l := e.doc.ListOf(id)
		switch {
		case l == nil:
			e.listify(id, kind)
		case l.Kind != kind:
			l.Kind = kind
			e.doc.Restyle(l.ID)
		}
	}
	for _, id := range ids {
		if l := e.doc.ListOf(id); l != nil {
			e.coalesceAround(e.doc.Root(l))
		}
	}
	return true
}

// listify makes a plain block a top level item of kind, joining the list
// that ends right before it when that list has the same kind.
func (e *Engine) listify(id document.BlockID, kind document.ListKind) {
	b := e.doc.Block(id)
	if b.Kind == document.Heading {
		b.Kind, b.Style.Level = document.Paragraph, 0
	}
	if prev := e.doc.Prev(id); prev != nil {
		if root := e.doc.Root(e.doc.ListOf(prev.ID)); root != nil && root.Kind == kind {
			e.doc.InsertItem(root.ID, len(root.Items), id)
			e.doc.Restyle(root.ID)
			return
		}
	}
	l := e.doc.NewList(kind)
	e.doc.InsertItem(l.ID, 0, id)
	e.doc.Restyle(l.ID)
}

// coalesceAround merges root with the root lists directly before and
// after it in page order when they have the same kind.
func (e *Engine) coalesceAround(root *document.ListNode) {
	if root == nil {
		return
	}
	blocks := e.doc.ListBlocks(root.ID)
	if len(blocks) == 0 {
		return
	}
	if next := e.doc.Next(blocks[len(blocks)-1]); next != nil {
		if nr := e.doc.Root(e.doc.ListOf(next.ID)); nr != nil && nr != root && nr.Kind == root.Kind {
			e.absorb(root, nr)
		}
	}
	if prev := e.doc.Prev(blocks[0]); prev != nil {
		if pr := e.doc.Root(e.doc.ListOf(prev.ID)); pr != nil && pr != root && pr.Kind == root.Kind {
			e.absorb(pr, root)
		}
	}
}

// absorb appends the items and nested lists of root src to root dst and
// deletes src.
func (e *Engine) absorb(dst, src *document.ListNode) {
	dst.Items = append(dst.Items, src.Items...)
	for _, cid := range src.Children {
		e.doc.List(cid).Parent = dst.ID
		dst.Children = append(dst.Children, cid)
	}
	src.Items, src.Children = nil, nil
	e.doc.DeleteList(src.ID)
	e.doc.Restyle(dst.ID)
}

// splitAfter moves the items after pos in l, with their nested lists, into
// a new root list. It returns nil when there are none.
func (e *Engine) splitAfter(l *document.ListNode, pos int) *document.ListNode {
	if pos+1 >= len(l.Items) {
		return nil
	}
	t := e.doc.NewList(l.Kind)
	tail := slices.Clone(l.Items[pos+1:])
	l.Items = l.Items[:pos+1]
	t.Items = tail
	var keep []document.ListID
	for _, cid := range l.Children {
		c := e.doc.List(cid)
		if slices.Contains(tail, c.ParentItem) {
			c.Parent = t.ID
			t.Children = append(t.Children, cid)
			continue
		}
		keep = append(keep, cid)
	}
	l.Children = keep
	return t
}

// Unlist turns item into a paragraph at the same position. The lists
// around it are broken at the item: its nested lists and every item after
// it continue as root lists. It reports false when id is not a list item.
func (e *Engine) Unlist(id document.BlockID) bool {
	l := e.doc.ListOf(id)
	if l == nil {
		return false
	}
	oldRoot := e.doc.Root(l)
	var roots []*document.ListNode

	for _, cid := range e.doc.ItemChildren(id) {
		e.doc.DetachList(cid)
		roots = append(roots, e.doc.List(cid))
	}

	cur, pos := l, slices.Index(l.Items, id)
	for cur != nil {
		if t := e.splitAfter(cur, pos); t != nil {
			roots = append(roots, t)
		}
		parent := e.doc.List(cur.Parent)
		if parent == nil {
			break
		}
		// Nested lists hanging off the same parent item after cur.
		siblings := e.doc.ItemChildren(cur.ParentItem)
		for _, cid := range siblings[slices.Index(siblings, cur.ID)+1:] {
			e.doc.DetachList(cid)
			roots = append(roots, e.doc.List(cid))
		}
		pos = slices.Index(parent.Items, cur.ParentItem)
		cur = parent
	}

	l.Items = slices.DeleteFunc(l.Items, func(item document.BlockID) bool { return item == id })
	b := e.doc.Block(id)
	b.Kind, b.List = document.Paragraph, nil
	if len(l.Items) == 0 {
		e.doc.DeleteList(l.ID)
	}
	if e.doc.List(oldRoot.ID) != nil {
		e.doc.Restyle(oldRoot.ID)
	}

	var prev *document.ListNode
	for _, r := range roots {
		e.doc.Restyle(r.ID)
		if prev != nil && prev.Kind == r.Kind {
			e.absorb(prev, r)
			continue
		}
		prev = r
	}
	return true
}

// Indent moves item into a nested list under its previous sibling, reusing
// the sibling's last nested list when it has one. The item's own nested
// lists move with it. It reports false when there is no previous sibling.
func (e *Engine) Indent(id document.BlockID) bool {
	l := e.doc.ListOf(id)
	if l == nil {
		return false
	}
	sib := e.doc.PrevSibling(id)
	if sib == "" {
		return false
	}

	var target *document.ListNode
	if children := e.doc.ItemChildren(sib); len(children) > 0 {
		target = e.doc.List(children[len(children)-1])
	} else {
		target = e.doc.NewList(l.Kind)
		e.doc.AttachList(target.ID, sib)
	}

	own := e.doc.ItemChildren(id)
	l.Items = slices.DeleteFunc(l.Items, func(item document.BlockID) bool { return item == id })
	target.Items = append(target.Items, id)
	for _, cid := range own {
		l.Children = slices.DeleteFunc(l.Children, func(c document.ListID) bool { return c == cid })
		e.doc.List(cid).Parent = target.ID
		target.Children = append(target.Children, cid)
	}
	e.doc.Restyle(l.ID)
	return true
}

// Outdent moves a nested item into the parent list, directly after the
// item its list hangs off. Siblings that followed it become its nested
// list, so page order never changes. An emptied list is deleted. It
// reports false for top level items.
func (e *Engine) Outdent(id document.BlockID) bool {
	l := e.doc.ListOf(id)
	if l == nil || l.Parent == "" {
		return false
	}
	parent := e.doc.List(l.Parent)
	if parent == nil {
		return false
	}
	pItem := l.ParentItem
	idx := slices.Index(l.Items, id)

	// Lists hanging off the parent item after l end up under id.
	siblings := e.doc.ItemChildren(pItem)
	later := slices.Clone(siblings[slices.Index(siblings, l.ID)+1:])

	tail := e.splitAfter(l, idx)
	own := e.doc.ItemChildren(id)

	l.Items = l.Items[:idx]
	for _, cid := range own {
		l.Children = slices.DeleteFunc(l.Children, func(c document.ListID) bool { return c == cid })
	}
	parent.Items = slices.Insert(parent.Items, slices.Index(parent.Items, pItem)+1, id)
	e.doc.Block(id).List = &document.ListMeta{List: parent.ID}
	for _, cid := range own {
		c := e.doc.List(cid)
		c.Parent, c.ParentItem = parent.ID, id
		parent.Children = append(parent.Children, cid)
	}
	if tail != nil {
		if len(own) > 0 {
			last := e.doc.List(own[len(own)-1])
			if last.Kind == tail.Kind {
				e.absorb(last, tail)
				tail = nil
			}
		}
		if tail != nil {
			e.doc.AttachList(tail.ID, id)
		}
	}
	for _, cid := range later {
		parent.Children = slices.DeleteFunc(parent.Children, func(c document.ListID) bool { return c == cid })
		e.doc.List(cid).ParentItem = id
		parent.Children = append(parent.Children, cid)
	}
	if len(l.Items) == 0 {
		e.doc.DeleteList(l.ID)
	}
	e.sortChildren(parent)
	e.doc.Restyle(parent.ID)
	return true
}

// sortChildren orders the nested lists of l by the position of the item
// they hang off, keeping the relative order of lists on the same item.
func (e *Engine) sortChildren(l *document.ListNode) {
	slices.SortStableFunc(l.Children, func(a, b document.ListID) int {
		return slices.Index(l.Items, e.doc.List(a).ParentItem) - slices.Index(l.Items, e.doc.List(b).ParentItem)
	})
}

// Enter handles the Enter key at p. A non empty item is split into two
// sibling items; an empty top level item becomes a paragraph; an empty
// nested item is outdented. It reports false when p is not in a list item.
func (e *Engine) Enter(p selection.Point) (selection.Point, bool, error) {
	b := e.doc.Block(p.Block)
	if b == nil || b.List == nil {
		return p, false, nil
	}
	if b.IsEmpty() {
		if b.List.Depth > 1 {
			return p, e.Outdent(b.ID), nil
		}
		return p, e.Unlist(b.ID), nil
	}
	next, err := e.doc.SplitBlock(p)
	if err != nil {
		return p, false, err
	}
	return next, true, nil
}

// Backspace handles Backspace at p. At the start of a nested item it
// outdents; at the start of an empty top level item it unlists. Anything
// else is not handled.
func (e *Engine) Backspace(p selection.Point) (selection.Point, bool) {
	b := e.doc.Block(p.Block)
	if b == nil || b.List == nil || p.Offset != 0 {
		return p, false
	}
	if b.List.Depth > 1 {
		return p, e.Outdent(b.ID)
	}
	if b.IsEmpty() {
		return p, e.Unlist(b.ID)
	}
	return p, false
}
