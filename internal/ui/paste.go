package ui

import (
	"strings"
	"unicode"
)

const (
	bracketedPasteOn  = "\x1b[200~"
	bracketedPasteOff = "\x1b[201~"
)

// sanitizePaste reduces pasted content to the first non-blank line with
// bracketed-paste markers and control characters removed.
func sanitizePaste(content string) string {
	content = strings.ReplaceAll(content, bracketedPasteOn, "")
	content = strings.ReplaceAll(content, bracketedPasteOff, "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	line := ""
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, line)
}
