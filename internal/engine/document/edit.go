package document

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/quire/internal/engine/selection"
)

// Span is a byte range within one block.
type Span struct {
	Block BlockID
	Start int
	End   int
}

// textBlock returns the editable block at p with its offset snapped to a
// rune boundary.
func (d *Document) textBlock(p selection.Point) (*Block, int, error) {
	b := d.blocks[p.Block]
	if b == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrBlockNotFound, p.Block)
	}
	if b.Kind == Table {
		return nil, 0, fmt.Errorf("%w: %s is a table", ErrNotEditable, p.Block)
	}
	if _, _, ok := d.position(p.Block); !ok {
		return nil, 0, fmt.Errorf("%w: %s is not in the body", ErrNotEditable, p.Block)
	}
	if p.Offset < 0 || p.Offset > b.Len() {
		return nil, 0, fmt.Errorf("%w: %s (len %d)", ErrOffsetOutOfRange, p, b.Len())
	}
	return b, clampOffset(b.Runs.Text(), p.Offset), nil
}

// InsertText inserts text at p using the format of the preceding character.
// It returns the caret after the inserted text.
func (d *Document) InsertText(p selection.Point, text string) (selection.Point, error) {
	b, off, err := d.textBlock(p)
	if err != nil {
		return p, err
	}
	b.Runs = b.Runs.Insert(off, text, b.Runs.FormatAt(off))
	return selection.At(b.ID, off+len(text)), nil
}

// InsertRuns inserts formatted runs at p.
func (d *Document) InsertRuns(p selection.Point, runs Runs) (selection.Point, error) {
	b, off, err := d.textBlock(p)
	if err != nil {
		return p, err
	}
	b.Runs = b.Runs.Slice(0, off).Concat(runs).Concat(b.Runs.Slice(off, b.Runs.Len()))
	return selection.At(b.ID, off+runs.Len()), nil
}

// ordered validates both endpoints and returns them in document order.
func (d *Document) ordered(a, b selection.Point) (start, end selection.Point, err error) {
	start, end = selection.New(a, b).Ordered(d.Compare)
	for _, p := range []selection.Point{start, end} {
		blk := d.blocks[p.Block]
		if blk == nil {
			return start, end, fmt.Errorf("%w: %s", ErrBlockNotFound, p.Block)
		}
		if p.Offset < 0 || p.Offset > blk.Len() {
			return start, end, fmt.Errorf("%w: %s", ErrOffsetOutOfRange, p)
		}
	}
	return start, end, nil
}

// DeleteRange deletes the text between a and b. Blocks strictly inside the
// range are removed; the tail of the last block is joined onto the first.
// Pages left empty are deleted. It returns the collapsed caret.
func (d *Document) DeleteRange(a, b selection.Point) (selection.Point, error) {
	start, end, err := d.ordered(a, b)
	if err != nil {
		return a, err
	}
	sb, eb := d.blocks[start.Block], d.blocks[end.Block]
	if start.Block == end.Block {
		if sb.Kind == Table {
			return start, ErrNotEditable
		}
		text := sb.Runs.Text()
		sb.Runs = sb.Runs.Delete(clampOffset(text, start.Offset), clampOffset(text, end.Offset))
		return start, nil
	}

	span := d.BlocksBetween(start.Block, end.Block)
	if sb.Kind != Table {
		sb.Runs = sb.Runs.Slice(0, clampOffset(sb.Runs.Text(), start.Offset))
	}
	if eb.Kind != Table {
		eb.Runs = eb.Runs.Slice(clampOffset(eb.Runs.Text(), end.Offset), eb.Runs.Len())
	}
	for _, id := range span[1 : len(span)-1] {
		if err := d.DeleteBlock(id); err != nil {
			return start, err
		}
	}
	if sb.Kind != Table && eb.Kind != Table {
		if err := d.Join(sb.ID, eb.ID); err != nil {
			return start, err
		}
	}
	d.pruneEmptyPages()
	return start, nil
}

// pruneEmptyPages deletes pages without body blocks, keeping at least one.
func (d *Document) pruneEmptyPages() {
	for _, pid := range slices.Clone(d.order) {
		if len(d.order) == 1 {
			return
		}
		if len(d.pages[pid].Blocks) == 0 {
			_ = d.DeletePage(pid)
		}
	}
}

// SplitBlock splits the block at p into two. The new block follows the
// original and takes the text after p. Splitting a list item inserts a
// sibling item, which inherits the nested lists of the original. Splitting
// at the end of a heading starts a paragraph.
func (d *Document) SplitBlock(p selection.Point) (selection.Point, error) {
	b, off, err := d.textBlock(p)
	if err != nil {
		return p, err
	}
	tail := b.Runs.Slice(off, b.Runs.Len())
	b.Runs = b.Runs.Slice(0, off)

	nb := d.NewBlock(b.Kind, tail)
	nb.Style = b.Style
	if b.Kind == Heading && tail.Len() == 0 {
		nb.Kind = Paragraph
		nb.Style.Level = 0
	}
	if err := d.InsertAfter(b.ID, nb); err != nil {
		delete(d.blocks, nb.ID)
		return p, err
	}
	for _, other := range d.blocks {
		if other.Continues == b.ID {
			other.Continues = nb.ID
		}
	}
	if l := d.ListOf(b.ID); l != nil {
		idx := slices.Index(l.Items, b.ID)
		d.InsertItem(l.ID, idx+1, nb.ID)
		for _, cid := range d.itemChildrenIn(l, b.ID) {
			d.lists[cid].ParentItem = nb.ID
		}
		d.sortChildren(l)
		d.Restyle(l.ID)
	}
	return selection.At(nb.ID, 0), nil
}

// MergeWithPrevious joins block id onto the block before it in document
// order. It reports false when there is no previous block or either block
// is a table.
func (d *Document) MergeWithPrevious(id BlockID) (selection.Point, bool, error) {
	b := d.blocks[id]
	if b == nil {
		return selection.Point{}, false, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	prev := d.Prev(id)
	if prev == nil || prev.Kind == Table || b.Kind == Table {
		return selection.At(id, 0), false, nil
	}
	at := selection.At(prev.ID, prev.Len())
	if err := d.Join(prev.ID, id); err != nil {
		return selection.At(id, 0), false, err
	}
	d.pruneEmptyPages()
	return at, true, nil
}

// eachSpan calls fn with the per block ranges covered by [a, b], skipping
// tables.
func (d *Document) eachSpan(a, b selection.Point, fn func(blk *Block, start, end int)) error {
	start, end, err := d.ordered(a, b)
	if err != nil {
		return err
	}
	for _, id := range d.BlocksBetween(start.Block, end.Block) {
		blk := d.blocks[id]
		if blk.Kind == Table {
			continue
		}
		text := blk.Runs.Text()
		s, e := 0, len(text)
		if id == start.Block {
			s = clampOffset(text, start.Offset)
		}
		if id == end.Block {
			e = clampOffset(text, end.Offset)
		}
		if s < e {
			fn(blk, s, e)
		}
	}
	return nil
}

// ApplyFormat applies fn to the format of every run between a and b.
func (d *Document) ApplyFormat(a, b selection.Point, fn func(Format) Format) error {
	return d.eachSpan(a, b, func(blk *Block, s, e int) {
		blk.Runs = blk.Runs.Apply(s, e, fn)
	})
}

// SpanText returns the text between a and b, joining blocks with "\n".
func (d *Document) SpanText(a, b selection.Point) (string, error) {
	var parts []string
	err := d.eachSpan(a, b, func(blk *Block, s, e int) {
		parts = append(parts, blk.Runs.Text()[s:e])
	})
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// WrapAnchor wraps the text between a and b in the comment marker.
func (d *Document) WrapAnchor(a, b selection.Point, marker string) error {
	return d.ApplyFormat(a, b, func(f Format) Format { return f.WithAnchor(marker) })
}

// UnwrapAnchor removes the comment marker everywhere. Text is unchanged.
// It reports whether the marker was present.
func (d *Document) UnwrapAnchor(marker string) bool {
	found := false
	for _, id := range d.Blocks() {
		blk := d.blocks[id]
		if !slices.ContainsFunc(blk.Runs, func(r Run) bool { return r.Format.HasAnchor(marker) }) {
			continue
		}
		found = true
		blk.Runs = blk.Runs.Apply(0, blk.Runs.Len(), func(f Format) Format { return f.WithoutAnchor(marker) })
	}
	return found
}

// AnchorSpans returns the ranges wrapped by marker, one per block, in
// document order.
func (d *Document) AnchorSpans(marker string) []Span {
	var out []Span
	for _, id := range d.Blocks() {
		s, e := -1, -1
		d.blocks[id].Runs.Spans(func(start, end int, r Run) {
			if !r.Format.HasAnchor(marker) {
				return
			}
			if s < 0 {
				s = start
			}
			e = end
		})
		if s >= 0 {
			out = append(out, Span{Block: id, Start: s, End: e})
		}
	}
	return out
}

// Markers returns every comment marker present in the body, sorted.
func (d *Document) Markers() []string {
	seen := make(map[string]bool)
	for _, id := range d.Blocks() {
		for _, r := range d.blocks[id].Runs {
			for _, m := range r.Format.Anchors {
				seen[m] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// InsertTable inserts an empty rows x cols table after block after.
func (d *Document) InsertTable(after BlockID, rows, cols int) (*Block, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: table %dx%d", ErrOffsetOutOfRange, rows, cols)
	}
	grid := make([][]Cell, rows)
	for i := range grid {
		grid[i] = make([]Cell, cols)
	}
	t := d.NewBlock(Table, nil)
	t.Table = &TableData{Rows: grid}
	if err := d.InsertAfter(after, t); err != nil {
		delete(d.blocks, t.ID)
		return nil, err
	}
	return t, nil
}

// SetCell replaces the text of one table cell.
func (d *Document) SetCell(table BlockID, row, col int, text string) error {
	t := d.blocks[table]
	if t == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, table)
	}
	if t.Kind != Table || t.Table == nil {
		return fmt.Errorf("%w: %s is not a table", ErrNotEditable, table)
	}
	if row < 0 || row >= len(t.Table.Rows) || col < 0 || col >= len(t.Table.Rows[row]) {
		return fmt.Errorf("%w: cell %d,%d", ErrOffsetOutOfRange, row, col)
	}
	t.Table.Rows[row][col] = Cell{Runs: Plain(text)}
	return nil
}

// SetHeading turns a paragraph into a heading of the given level, or back
// into a paragraph when level is 0.
func (d *Document) SetHeading(id BlockID, level int) error {
	b := d.blocks[id]
	if b == nil {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if b.Kind == Table || b.Kind == ListItem {
		return fmt.Errorf("%w: %s is a %s", ErrNotEditable, id, b.Kind)
	}
	if level <= 0 {
		b.Kind, b.Style.Level = Paragraph, 0
		return nil
	}
	b.Kind, b.Style.Level = Heading, min(level, 6)
	return nil
}
