// Package document implements the document model: an arena of pages,
// blocks and list nodes addressed by id.
//
// A Document owns every Block. Pages hold ordered block ids; list nodes
// hold ordered item ids and nested list ids. Nothing holds a pointer to
// anything it does not own, so the whole model serializes to a flat JSON
// state (see Capture and Restore) that the history engine snapshots.
//
// Inline content is a normalized sequence of Runs. Adjacent runs never share
// a format, so runs split exactly where formatting changes. Comment markers
// are carried in the run format (Format.Anchors) and survive any edit that
// keeps the text they wrap.
//
// Offsets are byte offsets into a block's text and are snapped back to a
// rune boundary before use.
package document
