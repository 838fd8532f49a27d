package topic

import "strings"

// Topic is a hierarchical event type such as "content.changed".
type Topic string

// Wildcards and the segment separator.
const (
	WildcardSingle = "*"
	WildcardMulti  = "**"
	Separator      = "."
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Base returns the last segment: "content.changed" -> "changed".
func (t Topic) Base() string {
	s := string(t)
	return s[strings.LastIndex(s, Separator)+1:]
}

// Root returns the first segment: "content.changed" -> "content".
func (t Topic) Root() string {
	s := string(t)
	if i := strings.Index(s, Separator); i >= 0 {
		return s[:i]
	}
	return s
}

// IsWildcard reports whether the topic is a pattern.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), WildcardSingle)
}

// IsValid reports whether the topic is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether t matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return match(t.Segments(), pattern.Segments())
}

func match(topic, pattern []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == WildcardMulti {
			for i := 0; i <= len(topic); i++ {
				if match(topic[i:], pattern[1:]) {
					return true
				}
			}
			return false
		}
		if len(topic) == 0 || (head != WildcardSingle && head != topic[0]) {
			return false
		}
		topic, pattern = topic[1:], pattern[1:]
	}
	return len(topic) == 0
}

// Join joins segments into a topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
