package paginate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/quire/internal/engine/document"
	"github.com/dshills/quire/internal/engine/measure"
	"github.com/dshills/quire/internal/engine/selection"
)

type recordLogger struct {
	warnings []string
}

func (l *recordLogger) Debug(string, ...any) {}
func (l *recordLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(msg, args...))
}

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "aaaa"
	}
	return strings.Join(w, " ")
}

func geometry(w, h, margin float64) document.Geometry {
	return document.Geometry{Width: w, Height: h, Margins: document.Uniform(margin)}
}

func newPaginator(doc *document.Document) *Paginator {
	return New(doc, measure.NewFixed(10, 20))
}

// ============================================================================
// Scenario
// ============================================================================

func TestReflowScenario(t *testing.T) {
	g := document.Geometry{Width: 816, Height: 1000, Margins: document.Uniform(96), Orientation: document.Portrait}
	doc := document.New(document.WithGeometry(g))
	b := doc.First()
	original := words(720)
	b.Runs = document.Plain(original)
	p := newPaginator(doc)

	h, err := p.Height([]*document.Block{b}, g)
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if h != 1200 {
		t.Fatalf("expected block height 1200, got %v", h)
	}

	res, err := p.Reflow(doc.Pages()[0])
	if err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if doc.PageCount() != 2 || len(res.Created) != 1 {
		t.Fatalf("expected 2 pages with 1 created, got %d pages, %+v", doc.PageCount(), res)
	}

	p1, p2 := doc.Pages()[0], doc.Pages()[1]
	if got, want := doc.PageText(p1), strings.Repeat("aaaa ", 480); got != want {
		t.Errorf("page 1: expected 480 words, got %d bytes", len(got))
	}
	if got := doc.PageText(p1) + doc.PageText(p2); got != original {
		t.Error("expected page 1 + page 2 to equal the original content")
	}
	if h, _ := p.PageHeight(p1); h != 800 {
		t.Errorf("expected page 1 height 800, got %v", h)
	}
	if h, _ := p.PageHeight(p2); h != 400 {
		t.Errorf("expected page 2 height 400, got %v", h)
	}
	rem := doc.Block(doc.Page(p2).Blocks[0])
	if rem.Continues != b.ID {
		t.Errorf("expected remainder to continue %s, got %q", b.ID, rem.Continues)
	}
	if doc.Page(p2).Geometry != doc.Page(p1).Geometry {
		t.Error("expected new page to inherit geometry")
	}

	caret, ok, err := p.MergeUp(p2)
	if err != nil || !ok {
		t.Fatalf("MergeUp() = %v, %v", ok, err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount())
	}
	blocks := doc.Page(p1).Blocks
	if len(blocks) != 1 || doc.Block(blocks[0]).Text() != original {
		t.Error("expected a single block equal to the original content")
	}
	if caret != selection.At(b.ID, len(strings.Repeat("aaaa ", 480))) {
		t.Errorf("unexpected caret %v", caret)
	}
}

func TestReflowRoundTrip(t *testing.T) {
	for _, n := range []int{1, 11, 12, 13, 100, 480, 481, 1500} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			doc := document.New(document.WithGeometry(geometry(816, 1000, 96)))
			original := words(n)
			doc.First().Runs = document.Plain(original)
			p := newPaginator(doc)

			if _, err := p.Reflow(doc.Pages()[0]); err != nil {
				t.Fatalf("Reflow: %v", err)
			}
			var got strings.Builder
			for _, pid := range doc.Pages() {
				got.WriteString(doc.PageText(pid))
				if h, _ := p.PageHeight(pid); h > 808 {
					t.Errorf("page %s overflows: %v", pid, h)
				}
			}
			if got.String() != original {
				t.Error("content lost or duplicated across pages")
			}
			if doc.PlainText() != original {
				t.Error("expected plain text to rejoin continuations")
			}
		})
	}
}

func TestReflowJoinsExistingContinuation(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(816, 1000, 96)))
	b := doc.First()
	b.Runs = document.Plain(words(720))
	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatal(err)
	}

	if _, err := doc.InsertText(selection.At(b.ID, 0), "bbbb "); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatal(err)
	}
	p2 := doc.Page(doc.Pages()[1])
	if len(p2.Blocks) != 1 {
		t.Fatalf("expected remainder joined with the existing continuation, got %d blocks", len(p2.Blocks))
	}
	if got, want := doc.PlainText(), "bbbb "+words(720); got != want {
		t.Error("expected content preserved after second reflow")
	}
}

// ============================================================================
// Atomic content
// ============================================================================

func TestAtomicBlocksMoveWhole(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(200, 100, 10)))
	first := doc.First()
	first.Runs = document.Plain("one")
	second := doc.NewBlock(document.Paragraph, document.Plain("two"))
	_ = doc.InsertAfter(first.ID, second)
	item := doc.NewBlock(document.Paragraph, document.Plain("a\nb\nc"))
	_ = doc.InsertAfter(second.ID, item)
	l := doc.NewList(document.Bulleted)
	doc.InsertItem(l.ID, 0, item.ID)
	doc.Restyle(l.ID)

	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	if got := doc.Page(doc.Pages()[1]).Blocks; len(got) != 1 || got[0] != item.ID {
		t.Errorf("expected the list item to move whole, got %v", got)
	}
}

func TestOversizedFirstTokenIsPlaced(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(400, 30, 10)))
	first := doc.First()
	first.Runs = document.Plain("aaaa aaaa")
	next := doc.NewBlock(document.Paragraph, document.Plain("bbbb"))
	_ = doc.InsertAfter(first.ID, next)

	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	for _, pid := range doc.Pages() {
		if len(doc.Page(pid).Blocks) != 1 {
			t.Errorf("expected one block on page %s", pid)
		}
	}
}

func TestSplitNeverInsideCommentSpan(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(120, 40, 10)))
	b := doc.First()
	b.Runs = document.Plain("aaaa bbbb cccc")
	_ = doc.WrapAnchor(selection.At(b.ID, 5), selection.At(b.ID, 14), "m1")

	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatalf("Reflow: %v", err)
	}
	pages := doc.Pages()
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if got := doc.PageText(pages[0]); got != "aaaa " {
		t.Errorf("page 1: expected %q, got %q", "aaaa ", got)
	}
	if got := doc.PageText(pages[1]); got != "bbbb cccc" {
		t.Errorf("page 2: expected %q, got %q", "bbbb cccc", got)
	}
}

// ============================================================================
// Failure semantics
// ============================================================================

func TestReflowSkipsWhenUnavailable(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(816, 1000, 96)))
	doc.First().Runs = document.Plain(words(2000))
	log := &recordLogger{}
	p := New(doc, measure.Unavailable{}, WithLogger(log))

	res, err := p.Reflow(doc.Pages()[0])
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Changed() || doc.PageCount() != 1 {
		t.Error("expected reflow to be skipped")
	}
	if len(log.warnings) != 1 {
		t.Errorf("expected one warning, got %v", log.warnings)
	}
	if doc.PlainText() != words(2000) {
		t.Error("content must never be dropped")
	}
}

func TestReflowInvalidGeometry(t *testing.T) {
	doc := document.New()
	doc.PageAt(0).Geometry = geometry(100, 100, 60)
	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); !errors.Is(err, document.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestMergeUpFirstPage(t *testing.T) {
	doc := document.New()
	p := newPaginator(doc)
	if _, ok, err := p.MergeUp(doc.Pages()[0]); ok || err != nil {
		t.Errorf("MergeUp() = %v, %v; want false, nil", ok, err)
	}
}

func TestGeometryChangeCascades(t *testing.T) {
	doc := document.New(document.WithGeometry(geometry(816, 1000, 96)))
	doc.First().Runs = document.Plain(words(600))
	p := newPaginator(doc)
	if _, err := p.Reflow(doc.Pages()[0]); err != nil {
		t.Fatal(err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	// Shrink every page to 10 lines of content.
	for _, pid := range doc.Pages() {
		if err := doc.SetPageGeometry(pid, geometry(816, 392, 96)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := p.ReflowAll(); err != nil {
		t.Fatal(err)
	}
	if doc.PageCount() != 5 {
		t.Errorf("expected 5 pages of 10 lines, got %d", doc.PageCount())
	}
	if doc.PlainText() != words(600) {
		t.Error("expected content preserved")
	}
}

// ============================================================================
// Layout
// ============================================================================

func TestTokenize(t *testing.T) {
	toks := tokenize(document.Plain("hello, world\tx\ny"))
	text := "hello, world\tx\ny"
	want := []struct {
		text string
		kind tokenKind
	}{
		{"hello,", tokWord},
		{" ", tokSpace},
		{"world", tokWord},
		{"\t", tokTab},
		{"x", tokWord},
		{"\n", tokNewline},
		{"y", tokWord},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if got := text[toks[i].start:toks[i].end]; got != w.text || toks[i].kind != w.kind {
			t.Errorf("token %d: expected %q/%d, got %q/%d", i, w.text, w.kind, got, toks[i].kind)
		}
	}
}

func TestNextTab(t *testing.T) {
	p := newPaginator(document.New())
	if got := p.nextTab(0); got != 48 {
		t.Errorf("expected 48, got %v", got)
	}
	if got := p.nextTab(48); got != 96 {
		t.Errorf("expected 96, got %v", got)
	}

	p.SetTabStops([]float64{200, 100}, 48)
	tests := []struct {
		x, want float64
	}{
		{0, 100},
		{100, 200},
		{150, 200},
		{250, 296},
	}
	for _, tt := range tests {
		if got := p.nextTab(tt.x); got != tt.want {
			t.Errorf("nextTab(%v): expected %v, got %v", tt.x, tt.want, got)
		}
	}
}

func TestHeadingIsTaller(t *testing.T) {
	doc := document.New()
	b := doc.First()
	b.Runs = document.Plain("Title")
	p := newPaginator(doc)
	g := doc.DefaultGeometry()

	plain, _ := p.Height([]*document.Block{b}, g)
	_ = doc.SetHeading(b.ID, 1)
	heading, _ := p.Height([]*document.Block{b}, g)
	if heading != 2*plain {
		t.Errorf("expected h1 to be twice as tall, got %v vs %v", heading, plain)
	}
}

func TestTableHeight(t *testing.T) {
	doc := document.New()
	tb, err := doc.InsertTable(doc.First().ID, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	_ = doc.SetCell(tb.ID, 0, 0, "x\ny")
	p := newPaginator(doc)
	h, err := p.Height([]*document.Block{tb}, doc.DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if h != 80 {
		t.Errorf("expected 80 (2 + 1 + 1 lines), got %v", h)
	}
}
