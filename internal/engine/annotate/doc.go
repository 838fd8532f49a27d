// Package annotate anchors comments to spans of document text.
//
// A comment owns a marker id that is carried in the Anchors of every run
// it covers, plus the verbatim text it was created on. Edits that keep the
// wrapped text keep the marker. When the marker disappears (the text was
// deleted, or an undo restored older content) Reconcile re-wraps the first
// occurrence of the stored text anywhere in the body; when there is none
// the comment is kept and flagged orphaned until the text comes back.
//
// Reconciliation does not track which occurrence a comment was on. With a
// repeated quote it may reattach to an earlier copy.
package annotate
