// Package lists implements the list engine: toggling blocks in and out of
// bulleted and numbered lists, indent and outdent, and the Enter and
// Backspace behavior of list items.
//
// Lists form trees of document.ListNode. Every structural change keeps the
// page order of items equal to the pre-order walk of their tree and ends
// with a top-down restyle, so an item's style is always
//
//	table[(depth-1) mod len(table)]
//
// for the bullet or number table of its list's kind.
//
// Operations whose preconditions are unmet (indent without a previous
// sibling, outdent at depth 1) report false and change nothing; callers
// fall back to plain text editing.
package lists
