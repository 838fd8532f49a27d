package document

import (
	"cmp"
	"slices"
)

// ListNode is a bulleted or numbered list. Nested lists hang off one of
// the parent list's items.
//
// The page order of list items is always the pre-order walk of the tree:
// an item, then its nested lists, then the next item.
type ListNode struct {
	ID         ListID    `json:"id"`
	Kind       ListKind  `json:"kind"`
	Items      []BlockID `json:"items"`
	Children   []ListID  `json:"children,omitempty"`
	Parent     ListID    `json:"parent,omitempty"`
	ParentItem BlockID   `json:"parentItem,omitempty"`
	Depth      int       `json:"depth"`
	Style      string    `json:"style"`
}

func (l *ListNode) clone() *ListNode {
	c := *l
	c.Items = slices.Clone(l.Items)
	c.Children = slices.Clone(l.Children)
	return &c
}

// List returns the list with the given id, or nil.
func (d *Document) List(id ListID) *ListNode {
	return d.lists[id]
}

// ListOf returns the list containing item, or nil.
func (d *Document) ListOf(item BlockID) *ListNode {
	b := d.blocks[item]
	if b == nil || b.List == nil {
		return nil
	}
	return d.lists[b.List.List]
}

// Lists returns every list id. The order is unspecified.
func (d *Document) Lists() []ListID {
	out := make([]ListID, 0, len(d.lists))
	for id := range d.lists {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// NewList registers an empty root list.
func (d *Document) NewList(kind ListKind) *ListNode {
	l := &ListNode{ID: d.newID(), Kind: kind, Depth: 1, Style: StyleFor(kind, 1)}
	d.lists[l.ID] = l
	return l
}

// Root returns the root list of the tree containing l.
func (d *Document) Root(l *ListNode) *ListNode {
	for l != nil && l.Parent != "" {
		p := d.lists[l.Parent]
		if p == nil {
			break
		}
		l = p
	}
	return l
}

// ItemChildren returns the nested lists hanging off item, in order.
func (d *Document) ItemChildren(item BlockID) []ListID {
	l := d.ListOf(item)
	if l == nil {
		return nil
	}
	var out []ListID
	for _, cid := range l.Children {
		if c := d.lists[cid]; c != nil && c.ParentItem == item {
			out = append(out, cid)
		}
	}
	return out
}

// PrevSibling returns the item before item in its list, or "".
func (d *Document) PrevSibling(item BlockID) BlockID {
	l := d.ListOf(item)
	if l == nil {
		return ""
	}
	i := slices.Index(l.Items, item)
	if i <= 0 {
		return ""
	}
	return l.Items[i-1]
}

// Subtree returns item followed by every item of its nested lists in
// pre-order.
func (d *Document) Subtree(item BlockID) []BlockID {
	out := []BlockID{item}
	for _, cid := range d.ItemChildren(item) {
		out = append(out, d.ListBlocks(cid)...)
	}
	return out
}

// ListBlocks returns every item of a list tree in pre-order.
func (d *Document) ListBlocks(id ListID) []BlockID {
	l := d.lists[id]
	if l == nil {
		return nil
	}
	var out []BlockID
	for _, item := range l.Items {
		out = append(out, d.Subtree(item)...)
	}
	return out
}

// InsertItem adds block item to list at index and turns it into a list
// item. The caller restyles the tree afterwards.
func (d *Document) InsertItem(list ListID, index int, item BlockID) {
	l, b := d.lists[list], d.blocks[item]
	if l == nil || b == nil {
		return
	}
	index = min(max(index, 0), len(l.Items))
	l.Items = slices.Insert(l.Items, index, item)
	b.Kind = ListItem
	b.Style.Level = 0
	b.List = &ListMeta{List: l.ID, Depth: l.Depth, Style: l.Style}
}

// AttachList hangs child off item. The child keeps its items.
func (d *Document) AttachList(child ListID, item BlockID) {
	c := d.lists[child]
	parent := d.ListOf(item)
	if c == nil || parent == nil {
		return
	}
	d.DetachList(child)
	c.Parent = parent.ID
	c.ParentItem = item
	parent.Children = append(parent.Children, child)
	d.sortChildren(parent)
}

// DetachList unhooks a list from its parent, making it a root.
func (d *Document) DetachList(id ListID) {
	l := d.lists[id]
	if l == nil || l.Parent == "" {
		return
	}
	if p := d.lists[l.Parent]; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c ListID) bool { return c == id })
	}
	l.Parent, l.ParentItem = "", ""
}

// DeleteList removes an empty list from the arena.
func (d *Document) DeleteList(id ListID) {
	d.DetachList(id)
	delete(d.lists, id)
}

// sortChildren keeps nested lists ordered by the position of the item
// they hang off.
func (d *Document) sortChildren(l *ListNode) {
	slices.SortStableFunc(l.Children, func(a, b ListID) int {
		ai := slices.Index(l.Items, d.lists[a].ParentItem)
		bi := slices.Index(l.Items, d.lists[b].ParentItem)
		return cmp.Compare(ai, bi)
	})
}

// RemoveItem takes item out of its list and turns it into a paragraph in
// place. Nested lists of the item move to the previous sibling when there
// is one; otherwise their items are hoisted into the list at the item's
// position. Empty lists are deleted and the tree is restyled.
func (d *Document) RemoveItem(item BlockID) {
	b := d.blocks[item]
	l := d.ListOf(item)
	if b == nil {
		return
	}
	b.Kind = Paragraph
	b.List = nil
	if l == nil {
		return
	}
	idx := slices.Index(l.Items, item)
	if idx < 0 {
		return
	}
	children := d.itemChildrenIn(l, item)
	if idx > 0 {
		prev := l.Items[idx-1]
		for _, cid := range children {
			d.lists[cid].ParentItem = prev
		}
		l.Items = slices.Delete(l.Items, idx, idx+1)
		d.sortChildren(l)
	} else {
		l.Items = slices.Delete(l.Items, idx, idx+1)
		at := idx
		for _, cid := range children {
			c := d.lists[cid]
			l.Items = slices.Insert(l.Items, at, c.Items...)
			at += len(c.Items)
			for _, gc := range c.Children {
				d.lists[gc].Parent = l.ID
				l.Children = append(l.Children, gc)
			}
			c.Items, c.Children = nil, nil
			d.DeleteList(cid)
		}
		d.sortChildren(l)
	}
	root := d.Root(l)
	if len(l.Items) == 0 {
		d.DeleteList(l.ID)
		if root == l {
			root = nil
		}
	}
	if root != nil {
		d.Restyle(root.ID)
	}
}

func (d *Document) itemChildrenIn(l *ListNode, item BlockID) []ListID {
	var out []ListID
	for _, cid := range l.Children {
		if c := d.lists[cid]; c != nil && c.ParentItem == item {
			out = append(out, cid)
		}
	}
	return out
}

// Restyle walks the whole tree containing list top-down, assigning depth
// and the depth's style to every list and item.
func (d *Document) Restyle(list ListID) {
	root := d.Root(d.lists[list])
	if root == nil {
		return
	}
	d.restyle(root, 1)
}

func (d *Document) restyle(l *ListNode, depth int) {
	l.Depth = depth
	l.Style = StyleFor(l.Kind, depth)
	for _, item := range l.Items {
		if b := d.blocks[item]; b != nil {
			b.Kind = ListItem
			b.List = &ListMeta{List: l.ID, Depth: depth, Style: l.Style}
		}
	}
	for _, cid := range l.Children {
		if c := d.lists[cid]; c != nil {
			c.Parent = l.ID
			d.restyle(c, depth+1)
		}
	}
}
