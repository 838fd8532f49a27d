// Package topic provides dot separated event topics and wildcard patterns.
//
// Engine topics name what changed:
//
//	content.changed
//	pagination.changed
//	history.changed
//	comments.changed
//
// Patterns use "*" for exactly one segment and "**" for any number:
//
//	*.changed      matches every engine notification
//	settings.**    matches settings.changed, settings.file.reloaded
//	**             matches everything
package topic
