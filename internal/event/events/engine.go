package events

import "github.com/dshills/quire/internal/event/topic"

// Engine notification topics.
const (
	// TopicContentChanged is published after document content is mutated.
	TopicContentChanged topic.Topic = "content.changed"

	// TopicPaginationChanged is published after a reflow moved content or
	// created pages.
	TopicPaginationChanged topic.Topic = "pagination.changed"

	// TopicHistoryChanged is published when the undo or redo stack changes.
	TopicHistoryChanged topic.Topic = "history.changed"

	// TopicCommentsChanged is published when comments are added, edited or
	// reconciled.
	TopicCommentsChanged topic.Topic = "comments.changed"

	// TopicSettingsChanged is published when persisted settings change.
	TopicSettingsChanged topic.Topic = "settings.changed"
)

// Origin tells subscribers why content changed.
type Origin string

const (
	// OriginEdit is a user edit.
	OriginEdit Origin = "edit"

	// OriginHistory is an undo or redo restoring a snapshot.
	OriginHistory Origin = "history"

	// OriginMerge is a page merge; the content is already laid out.
	OriginMerge Origin = "merge"
)

// ContentChanged is published after a mutating engine operation.
type ContentChanged struct {
	// Origin is the kind of change.
	Origin Origin

	// Op names the operation, e.g. "insert-text" or "toggle-list".
	Op string

	// Pages are the pages whose content changed, in document order.
	Pages []string

	// Structural is set when blocks or lists were created or removed.
	Structural bool
}

// PaginationChanged is published after a reflow.
type PaginationChanged struct {
	// Pages are the pages whose content moved.
	Pages []string

	// Created are the pages added by the reflow.
	Created []string

	// PageCount is the number of pages after the reflow.
	PageCount int
}

// HistoryChanged is published when the history stacks change.
type HistoryChanged struct {
	UndoDepth int
	RedoDepth int
	Pending   bool
}

// CommentsChanged is published when the comment list or anchors change.
type CommentsChanged struct {
	// Count is the number of comments.
	Count int

	// Orphaned is the number of comments whose text is gone.
	Orphaned int

	// Active is the id of the current comment, if any.
	Active string
}

// SettingsChanged is published when settings were saved or reloaded.
type SettingsChanged struct {
	// Path is the settings location.
	Path string

	// Reloaded is set when the change came from the file on disk.
	Reloaded bool
}
