// Package paginate keeps page content within page bounds.
//
// Reflow lays out every block on a page against the measurement surface,
// greedily wrapping tokens into lines at the page's content width. When
// the accumulated height passes the content height the page is split
// before the offending line: the rest of the block, plus every block after
// it, moves to the front of the next page, which is created with the same
// geometry when missing. The next page is then reflowed in turn.
//
// Lines only start at token boundaries, so a split never lands inside a
// word, a link or a comment span. List items, headings and tables are
// moved whole. The remainder of a split paragraph records the block it
// continues; MergeUp and later reflows use that to join the pieces again.
package paginate
