package bookmeta

import (
	"regexp"
	"strings"
)

// knownExtensions are stripped from the end of a filename before pattern matching.
var knownExtensions = []string{
	".pdf", ".epub", ".mobi", ".azw3", ".azw", ".fb2", ".djvu", ".txt", ".rtf", ".doc", ".docx",
}

var (
	trailingParenPattern = regexp.MustCompile(`^(.*?)\s*\((.*?)\)\s*$`)
	byPattern            = regexp.MustCompile(`(?i)^(.*?)\s+by\s+(.*?)$`)
)

// ParseFilename guesses title and author from common naming conventions:
// "Author - Title", "Title (Author)", "Title by Author". The first match wins;
// otherwise the whole name is the title.
func ParseFilename(filename string) (title, author string) {
	name := stripKnownExtension(filename)

	if left, right, ok := strings.Cut(name, " - "); ok {
		return strings.TrimSpace(right), strings.TrimSpace(left)
	}
	if m := trailingParenPattern.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := byPattern.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(name), ""
}

func stripKnownExtension(filename string) string {
	for _, ext := range knownExtensions {
		cut := len(filename) - len(ext)
		if cut >= 0 && strings.EqualFold(filename[cut:], ext) {
			return filename[:cut]
		}
	}
	return filename
}
