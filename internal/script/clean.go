package script

import (
	"regexp"
	"strings"
)

var (
	headingPattern     = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	bulletPattern      = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d+[.)])[ \t]+`)
	speakerPattern     = regexp.MustCompile(`(?mi)^[ \t]*\**[ \t]*(?:narrator|host|speaker(?:[ \t]*\d+)?|announcer|voice[- ]?over|vo)[ \t]*\**[ \t]*:[ \t]*\**[ \t]*`)
	bracketPattern     = regexp.MustCompile(`\[[^\]]*\]`)
	parenPattern       = regexp.MustCompile(`\([^)]*\)`)
	emphasisPattern    = regexp.MustCompile("\\*+|`+|~~")
	underscorePattern  = regexp.MustCompile(`_{1,2}([^_\s][^_\n]*?)_{1,2}`)
	spacePattern       = regexp.MustCompile(`[ \t]+`)
	paragraphPattern   = regexp.MustCompile(`\n[ \t]*\n\s*`)
	lineBreakPattern   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	punctSpacePattern  = regexp.MustCompile(`[ \t]+([.,!?;:])`)
	paragraphSeparator = "\n\n"
)

// Clean turns model output into text a speech engine can read aloud. Markdown
// markers, bracketed directions, parenthetical asides and speaker labels are
// removed and whitespace is collapsed. Paragraph breaks survive as a blank line.
func Clean(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	text = headingPattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = speakerPattern.ReplaceAllString(text, "")
	text = bracketPattern.ReplaceAllString(text, "")
	text = parenPattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "")
	text = underscorePattern.ReplaceAllString(text, "$1")

	paragraphs := paragraphPattern.Split(text, -1)
	cleaned := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = lineBreakPattern.ReplaceAllString(p, " ")
		p = spacePattern.ReplaceAllString(p, " ")
		p = punctSpacePattern.ReplaceAllString(p, "$1")
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}

	return strings.Join(cleaned, paragraphSeparator)
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}
