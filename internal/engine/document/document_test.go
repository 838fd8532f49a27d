package document

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dshills/quire/internal/engine/selection"
)

func seqIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id%d", n)
	})
}

// newDoc creates a document whose first page holds one paragraph per text.
func newDoc(t *testing.T, texts ...string) (*Document, []BlockID) {
	t.Helper()
	d := New(seqIDs())
	first := d.First()
	ids := []BlockID{first.ID}
	if len(texts) == 0 {
		return d, ids
	}
	first.Runs = Plain(texts[0])
	prev := first.ID
	for _, text := range texts[1:] {
		b := d.NewBlock(Paragraph, Plain(text))
		if err := d.InsertAfter(prev, b); err != nil {
			t.Fatalf("InsertAfter: %v", err)
		}
		ids = append(ids, b.ID)
		prev = b.ID
	}
	return d, ids
}

// ============================================================================
// Runs
// ============================================================================

func TestRunsInsertInheritsFormat(t *testing.T) {
	rs := Runs{{Text: "bold", Format: Format{Bold: true}}, {Text: " plain"}}
	rs = rs.Insert(4, "er", rs.FormatAt(4))

	if got := rs.Text(); got != "bolder plain" {
		t.Errorf("expected %q, got %q", "bolder plain", got)
	}
	if len(rs) != 2 || rs[0].Text != "bolder" || !rs[0].Format.Bold {
		t.Errorf("expected bold run to grow, got %+v", rs)
	}
}

func TestRunsNormalize(t *testing.T) {
	rs := Runs{{Text: "a"}, {Text: ""}, {Text: "b"}, {Text: "c", Format: Format{Italic: true}}}
	rs = rs.normalize()
	if len(rs) != 2 {
		t.Fatalf("expected 2 runs, got %d: %+v", len(rs), rs)
	}
	if rs[0].Text != "ab" {
		t.Errorf("expected merged run %q, got %q", "ab", rs[0].Text)
	}
}

func TestRunsApply(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wantRuns   int
	}{
		{"whole", 0, 11, 1},
		{"prefix", 0, 5, 2},
		{"middle", 3, 8, 3},
		{"suffix", 6, 11, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := Plain("hello world").Apply(tt.start, tt.end, func(f Format) Format {
				f.Underline = true
				return f
			})
			if len(rs) != tt.wantRuns {
				t.Errorf("expected %d runs, got %d: %+v", tt.wantRuns, len(rs), rs)
			}
			if rs.Text() != "hello world" {
				t.Errorf("text changed: %q", rs.Text())
			}
		})
	}
}

func TestAnchorsStaySorted(t *testing.T) {
	f := Format{}.WithAnchor("m2").WithAnchor("m1").WithAnchor("m3")
	want := []string{"m1", "m2", "m3"}
	for i, m := range want {
		if f.Anchors[i] != m {
			t.Fatalf("expected %v, got %v", want, f.Anchors)
		}
	}
	g := Format{}.WithAnchor("m3").WithAnchor("m1").WithAnchor("m2")
	if !f.Equal(g) {
		t.Error("expected formats with the same markers to be equal")
	}
	if f.WithoutAnchor("m2").HasAnchor("m2") {
		t.Error("expected marker to be removed")
	}
	if len(Format{}.WithAnchor("x").WithoutAnchor("x").Anchors) != 0 {
		t.Error("expected no anchors")
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#FF0000", "#ff0000", false},
		{"00ff00", "#00ff00", false},
		{"", "", false},
		{"#zzz", "", true},
		{"red", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeColor(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColor) {
					t.Errorf("expected ErrInvalidColor, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClampOffsetRuneBoundary(t *testing.T) {
	text := "héllo"
	if got := clampOffset(text, 2); got != 1 {
		t.Errorf("expected offset inside é to snap to 1, got %d", got)
	}
	if got := clampOffset(text, 99); got != len(text) {
		t.Errorf("expected %d, got %d", len(text), got)
	}
}

// ============================================================================
// Geometry
// ============================================================================

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Geometry
		wantErr bool
	}{
		{"letter", Letter(), false},
		{"zero width", Geometry{Height: 100}, true},
		{"negative margin", Geometry{Width: 100, Height: 100, Margins: Margins{Top: -1}}, true},
		{"margins eat page", Geometry{Width: 100, Height: 100, Margins: Uniform(50)}, true},
		{"bad orientation", Geometry{Width: 100, Height: 100, Orientation: "diagonal"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGeometryOriented(t *testing.T) {
	g := Letter()
	g.Orientation = Landscape
	g = g.Oriented()
	if g.Width != 1056 || g.Height != 816 {
		t.Errorf("expected 1056x816, got %vx%v", g.Width, g.Height)
	}
}

// ============================================================================
// Editing
// ============================================================================

func TestInsertText(t *testing.T) {
	d, ids := newDoc(t, "hello")
	p, err := d.InsertText(selection.At(ids[0], 5), " world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Offset != 11 {
		t.Errorf("expected caret at 11, got %d", p.Offset)
	}
	if got := d.Block(ids[0]).Text(); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}

	if _, err := d.InsertText(selection.At(ids[0], 99), "x"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := d.InsertText(selection.At("nope", 0), "x"); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}
}

func TestSplitAndMerge(t *testing.T) {
	d, ids := newDoc(t, "hello world")
	p, err := d.SplitBlock(selection.At(ids[0], 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.Block(ids[0]).Text(); got != "hello" {
		t.Errorf("expected head %q, got %q", "hello", got)
	}
	if got := d.Block(p.Block).Text(); got != " world" {
		t.Errorf("expected tail %q, got %q", " world", got)
	}
	if d.Compare(ids[0], p.Block) >= 0 {
		t.Error("expected new block after the original")
	}

	at, ok, err := d.MergeWithPrevious(p.Block)
	if err != nil || !ok {
		t.Fatalf("MergeWithPrevious() = %v, %v", ok, err)
	}
	if at != selection.At(ids[0], 5) {
		t.Errorf("expected caret %v, got %v", selection.At(ids[0], 5), at)
	}
	if got := d.PlainText(); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}

	if _, ok, _ := d.MergeWithPrevious(ids[0]); ok {
		t.Error("expected merge of the first block to be a no-op")
	}
}

func TestDeleteRangeAcrossBlocks(t *testing.T) {
	d, ids := newDoc(t, "alpha", "beta", "gamma")
	p, err := d.DeleteRange(selection.At(ids[2], 2), selection.At(ids[0], 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != selection.At(ids[0], 3) {
		t.Errorf("expected caret at start of range, got %v", p)
	}
	if got := d.PlainText(); got != "alpmma" {
		t.Errorf("expected %q, got %q", "alpmma", got)
	}
	if d.Block(ids[1]) != nil || d.Block(ids[2]) != nil {
		t.Error("expected inner and last blocks to be removed")
	}
}

func TestDeleteRangePrunesEmptyPages(t *testing.T) {
	d, ids := newDoc(t, "one")
	p2, _ := d.InsertPageAfter(d.Pages()[0])
	b := d.NewBlock(Paragraph, Plain("two"))
	_ = d.InsertAt(p2.ID, 0, b)

	if _, err := d.DeleteRange(selection.At(ids[0], 3), selection.At(b.ID, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", d.PageCount())
	}
}

func TestAnchorWrapUnwrap(t *testing.T) {
	d, ids := newDoc(t, "hello world")
	before := d.PlainText()

	if err := d.WrapAnchor(selection.At(ids[0], 6), selection.At(ids[0], 11), "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spans := d.AnchorSpans("m1")
	if len(spans) != 1 || spans[0].Start != 6 || spans[0].End != 11 {
		t.Errorf("unexpected spans %+v", spans)
	}
	if !d.UnwrapAnchor("m1") {
		t.Error("expected marker to be found")
	}
	if len(d.Block(ids[0]).Runs) != 1 {
		t.Errorf("expected runs to coalesce after unwrap, got %+v", d.Block(ids[0]).Runs)
	}
	if d.PlainText() != before {
		t.Errorf("expected text %q, got %q", before, d.PlainText())
	}
}

func TestInsertTable(t *testing.T) {
	d, ids := newDoc(t, "intro")
	tb, err := d.InsertTable(ids[0], 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.SetCell(tb.ID, 1, 2, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tb.Text(); got != "\t\t\n\t\tx" {
		t.Errorf("unexpected table text %q", got)
	}
	if _, err := d.InsertText(selection.At(tb.ID, 0), "x"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("expected ErrNotEditable, got %v", err)
	}
}

// ============================================================================
// Pages
// ============================================================================

func TestInsertPageClonesHeaderFooter(t *testing.T) {
	d, _ := newDoc(t, "x")
	first := d.Pages()[0]
	if err := d.SetHeader(first, Plain("Title")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := d.InsertPageAfter(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Header == "" || p.Header == d.Page(first).Header {
		t.Fatal("expected a cloned header block")
	}
	if got := d.Block(p.Header).Text(); got != "Title" {
		t.Errorf("expected %q, got %q", "Title", got)
	}
	if p.Geometry != d.Page(first).Geometry {
		t.Error("expected inherited geometry")
	}

	if err := d.DeletePage(p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.DeletePage(first); !errors.Is(err, ErrLastPage) {
		t.Errorf("expected ErrLastPage, got %v", err)
	}
}

func TestPlainTextJoinsContinuations(t *testing.T) {
	d, ids := newDoc(t, "first half ", "other")
	p2, _ := d.InsertPageAfter(d.Pages()[0])
	c := d.NewBlock(Paragraph, Plain("second half"))
	c.Continues = ids[0]
	_ = d.InsertAt(p2.ID, 0, c)
	_ = d.MoveBlocks([]BlockID{ids[1]}, p2.ID, 1)

	if got, want := d.PlainText(), "first half second half\nother"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// ============================================================================
// Lists
// ============================================================================

func TestRemoveItemHoistsChildren(t *testing.T) {
	d, ids := newDoc(t, "a", "a1", "a2", "b")
	root := d.NewList(Bulleted)
	d.InsertItem(root.ID, 0, ids[0])
	d.InsertItem(root.ID, 1, ids[3])
	child := d.NewList(Bulleted)
	d.InsertItem(child.ID, 0, ids[1])
	d.InsertItem(child.ID, 1, ids[2])
	d.AttachList(child.ID, ids[0])
	d.Restyle(root.ID)

	if got := d.Block(ids[1]).List.Style; got != "circle" {
		t.Fatalf("expected nested style circle, got %q", got)
	}

	d.RemoveItem(ids[0])

	if d.Block(ids[0]).List != nil || d.Block(ids[0]).Kind != Paragraph {
		t.Error("expected removed item to become a paragraph")
	}
	want := []BlockID{ids[1], ids[2], ids[3]}
	got := d.List(root.ID).Items
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected items %v, got %v", want, got)
	}
	if d.Block(ids[1]).List.Depth != 1 || d.Block(ids[1]).List.Style != "disc" {
		t.Errorf("expected hoisted item at depth 1, got %+v", d.Block(ids[1]).List)
	}
	if d.List(child.ID) != nil {
		t.Error("expected emptied child list to be deleted")
	}
}

func TestRemoveItemReparentsToSibling(t *testing.T) {
	d, ids := newDoc(t, "a", "b", "b1")
	root := d.NewList(Numbered)
	d.InsertItem(root.ID, 0, ids[0])
	d.InsertItem(root.ID, 1, ids[1])
	child := d.NewList(Numbered)
	d.InsertItem(child.ID, 0, ids[2])
	d.AttachList(child.ID, ids[1])
	d.Restyle(root.ID)

	if err := d.DeleteBlock(ids[1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.List(child.ID).ParentItem; got != ids[0] {
		t.Errorf("expected child list to hang off %s, got %s", ids[0], got)
	}
	if got := d.Block(ids[2]).List.Style; got != "lower-alpha" {
		t.Errorf("expected lower-alpha, got %q", got)
	}
}

func TestStyleFor(t *testing.T) {
	for d := 1; d <= 13; d++ {
		if got, want := StyleFor(Bulleted, d), BulletStyles[(d-1)%6]; got != want {
			t.Errorf("bulleted depth %d: expected %q, got %q", d, want, got)
		}
		if got, want := StyleFor(Numbered, d), NumberStyles[(d-1)%5]; got != want {
			t.Errorf("numbered depth %d: expected %q, got %q", d, want, got)
		}
	}
}

// ============================================================================
// State
// ============================================================================

func TestCaptureRestoreRoundTrip(t *testing.T) {
	d, ids := newDoc(t, "a", "b")
	l := d.NewList(Bulleted)
	d.InsertItem(l.ID, 0, ids[1])
	d.Restyle(l.ID)
	_ = d.ApplyFormat(selection.At(ids[0], 0), selection.At(ids[0], 1), func(f Format) Format {
		f.Bold = true
		return f
	})

	before, err := d.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if _, err := d.InsertText(selection.At(ids[0], 1), "zzz"); err != nil {
		t.Fatal(err)
	}
	if err := d.Restore(before); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	after, _ := d.Capture()
	if string(before) != string(after) {
		t.Errorf("expected identical state\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestRestoreCorruptLeavesState(t *testing.T) {
	d, _ := newDoc(t, "keep")
	for _, data := range []string{`{`, `{"order":[]}`, `{"order":["p"],"pages":{}}`} {
		if err := d.Restore([]byte(data)); !errors.Is(err, ErrCorruptState) {
			t.Errorf("Restore(%s): expected ErrCorruptState, got %v", data, err)
		}
	}
	if d.PlainText() != "keep" {
		t.Errorf("expected state untouched, got %q", d.PlainText())
	}
}

func TestTreeIsDeepCopy(t *testing.T) {
	d, ids := newDoc(t, "text")
	tree := d.Tree()
	tree.Pages[0].Blocks[0].Runs[0].Text = "changed"
	if d.Block(ids[0]).Text() != "text" {
		t.Error("expected tree mutation not to affect the document")
	}
}
