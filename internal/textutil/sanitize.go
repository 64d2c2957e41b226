package textutil

import "strings"

// DefaultProjectName is used when a project title is blank.
const DefaultProjectName = "video_project"

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with an
// underscore and lowercases the result. Each rejected rune becomes exactly one
// underscore, so the output has the same rune count as the input.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ProjectName sanitizes title, substituting DefaultProjectName when the title
// is blank.
func ProjectName(title string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultProjectName
	}
	return SanitizeFilename(title)
}
