package engine

import (
	"github.com/dshills/quire/internal/engine/annotate"
	"github.com/dshills/quire/internal/engine/selection"
)

// Comment is a note attached to a span of text.
type Comment = annotate.Comment

// Reply is a response in a comment thread.
type Reply = annotate.Reply

// AddComment attaches a comment to the selected text. The selection may
// span blocks but must not be collapsed.
func (e *Engine) AddComment(sel selection.Selection, body string) (Comment, error) {
	e.lock()
	defer e.unlock()

	start, end, err := e.checkRange(sel)
	if err != nil {
		return Comment{}, err
	}
	c, err := e.notes.AddComment(sel, body)
	if err != nil {
		return Comment{}, err
	}
	e.sel = sel
	e.changed("add-comment", false, e.doc.BlocksBetween(start.Block, end.Block)...)
	e.commentsChanged()
	return c, nil
}

// EditComment replaces the body of a comment. Thread changes are undo
// steps like text edits.
func (e *Engine) EditComment(id, body string) error {
	e.lock()
	defer e.unlock()

	if err := e.notes.EditComment(id, body); err != nil {
		return err
	}
	e.hist.MarkCheckpoint()
	e.commentsChanged()
	return nil
}

// AddReply appends a reply to a comment thread.
func (e *Engine) AddReply(id, body string) (Reply, error) {
	e.lock()
	defer e.unlock()

	r, err := e.notes.AddReply(id, body)
	if err != nil {
		return Reply{}, err
	}
	e.hist.MarkCheckpoint()
	e.commentsChanged()
	return r, nil
}

// ResolveComment marks a comment resolved, or reopens it.
func (e *Engine) ResolveComment(id string, resolved bool) error {
	e.lock()
	defer e.unlock()

	if err := e.notes.ResolveComment(id, resolved); err != nil {
		return err
	}
	e.hist.MarkCheckpoint()
	e.commentsChanged()
	return nil
}

// DeleteComment removes a comment. The text it covered is unchanged.
func (e *Engine) DeleteComment(id string) error {
	e.lock()
	defer e.unlock()

	c, ok := e.notes.Comment(id)
	var blocks []string
	if ok {
		for _, s := range e.doc.AnchorSpans(c.Anchor.Marker) {
			blocks = append(blocks, s.Block)
		}
	}
	if err := e.notes.DeleteComment(id); err != nil {
		return err
	}
	e.changed("delete-comment", false, blocks...)
	e.commentsChanged()
	return nil
}

// NextComment makes the following comment active and selects its text.
// The selection is unchanged for orphaned comments. It reports false
// when there are no comments.
func (e *Engine) NextComment() (Comment, selection.Selection, bool) {
	return e.cycle(e.notes.Next)
}

// PrevComment makes the preceding comment active and selects its text.
func (e *Engine) PrevComment() (Comment, selection.Selection, bool) {
	return e.cycle(e.notes.Prev)
}

func (e *Engine) cycle(step func() (Comment, bool)) (Comment, selection.Selection, bool) {
	e.lock()
	defer e.unlock()

	c, ok := step()
	if !ok {
		return Comment{}, e.sel, false
	}
	if sel, found := e.notes.Locate(c.ID); found {
		e.sel = sel
	}
	e.commentsChanged()
	return c, e.sel, true
}

// Comments returns copies of all comments in creation order.
func (e *Engine) Comments() []Comment {
	e.lock()
	defer e.unlock()
	return e.notes.Comments()
}

// Comment returns a copy of one comment.
func (e *Engine) Comment(id string) (Comment, bool) {
	e.lock()
	defer e.unlock()
	return e.notes.Comment(id)
}
