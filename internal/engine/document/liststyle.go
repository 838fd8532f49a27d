package document

// ListKind is the kind of a list.
type ListKind string

const (
	Bulleted ListKind = "bulleted"
	Numbered ListKind = "numbered"
)

// Bullet styles, cycled by depth.
var BulletStyles = []string{"disc", "circle", "square", "arrow", "dash", "star"}

// Number styles, cycled by depth.
var NumberStyles = []string{"decimal", "lower-alpha", "lower-roman", "upper-alpha", "upper-roman"}

// StyleFor returns the style token for a list of the given kind at depth
// (1-indexed). Depths below 1 are treated as 1.
func StyleFor(kind ListKind, depth int) string {
	table := BulletStyles
	if kind == Numbered {
		table = NumberStyles
	}
	if depth < 1 {
		depth = 1
	}
	return table[(depth-1)%len(table)]
}
