package document

import "strings"

// PageID identifies a page.
type PageID = string

// BlockID identifies a block.
type BlockID = string

// ListID identifies a list node.
type ListID = string

// Kind is the structural kind of a block.
type Kind string

const (
	Paragraph Kind = "paragraph"
	ListItem  Kind = "list-item"
	Table     Kind = "table"
	Heading   Kind = "heading"
)

// Atomic reports whether blocks of this kind are moved whole between pages.
func (k Kind) Atomic() bool {
	return k != Paragraph
}

// Align is horizontal block alignment.
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Style holds block level style attributes.
type Style struct {
	Align       Align   `json:"align,omitempty"`
	LineSpacing float64 `json:"lineSpacing,omitempty"`
	Indent      float64 `json:"indent,omitempty"`
	SpaceAfter  float64 `json:"spaceAfter,omitempty"`
	Level       int     `json:"level,omitempty"` // heading level, 1-6
}

// Spacing returns the line spacing multiplier, defaulting to 1.
func (s Style) Spacing() float64 {
	if s.LineSpacing <= 0 {
		return 1
	}
	return s.LineSpacing
}

// ListMeta is the list membership of a list item block.
type ListMeta struct {
	List  ListID `json:"list"`
	Depth int    `json:"depth"`
	Style string `json:"style"`
}

// Cell is one table cell.
type Cell struct {
	Runs Runs `json:"runs,omitempty"`
}

// TableData is the grid content of a table block.
type TableData struct {
	Rows [][]Cell `json:"rows"`
}

// Cols returns the widest row length.
func (t *TableData) Cols() int {
	n := 0
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	return n
}

func (t *TableData) clone() *TableData {
	if t == nil {
		return nil
	}
	rows := make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]Cell, len(row))
		for j, c := range row {
			rows[i][j] = Cell{Runs: c.Runs.Clone()}
		}
	}
	return &TableData{Rows: rows}
}

// Block is a structural document unit.
type Block struct {
	ID        BlockID    `json:"id"`
	Kind      Kind       `json:"kind"`
	Page      PageID     `json:"page"`
	Runs      Runs       `json:"runs,omitempty"`
	Style     Style      `json:"style"`
	List      *ListMeta  `json:"list,omitempty"`
	Table     *TableData `json:"table,omitempty"`
	Continues BlockID    `json:"continues,omitempty"`
}

// Text returns the plain text of the block. Tables render one row per line
// with tab separated cells.
func (b *Block) Text() string {
	if b.Kind == Table && b.Table != nil {
		return b.TableText()
	}
	return b.Runs.Text()
}

// Len returns the length of the block's editable text in bytes.
func (b *Block) Len() int {
	if b.Kind == Table {
		return 0
	}
	return b.Runs.Len()
}

// IsEmpty reports whether the block holds no text.
func (b *Block) IsEmpty() bool {
	return b.Kind != Table && b.Runs.Len() == 0
}

// TableText renders table cells as tab separated rows.
func (b *Block) TableText() string {
	if b.Table == nil {
		return ""
	}
	lines := make([]string, len(b.Table.Rows))
	for i, row := range b.Table.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.Runs.Text()
		}
		lines[i] = strings.Join(cells, "\t")
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := *b
	c.Runs = b.Runs.Clone()
	if b.List != nil {
		meta := *b.List
		c.List = &meta
	}
	c.Table = b.Table.clone()
	return &c
}
