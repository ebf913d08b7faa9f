package normalize

import (
	"regexp"
	"strings"
)

// Bullet is the single glyph every list marker becomes.
const Bullet = "•"

// hspace is every rune unicode.IsSpace accepts except '\n', so the final
// TrimSpace never uncovers a marker the earlier passes did not see.
const hspace = `[\p{Zs}\t\v\f\r\x{85}\x{2028}\x{2029}]`

var (
	emphasis        = regexp.MustCompile(`\*`)
	headingMarker   = regexp.MustCompile(`#{1,6}` + hspace + `+`)
	bulletMarker    = regexp.MustCompile(`(?m)^` + hspace + `*[-+•]` + hspace + `+`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
	horizontalSpace = regexp.MustCompile(hspace + `+`)
)

// CleanChatReply strips markdown from a chat reply. The steps run in a fixed
// order: emphasis must go before bullets so "*-" never survives as a marker.
// Applying it twice gives the same result as once.
func CleanChatReply(text string) string {
	s := emphasis.ReplaceAllString(text, "")
	s = headingMarker.ReplaceAllString(s, "")
	s = bulletMarker.ReplaceAllString(s, Bullet+" ")
	s = extraNewlines.ReplaceAllString(s, "\n\n")
	s = horizontalSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

type LineKind string

const (
	LineText   LineKind = "text"
	LineBullet LineKind = "bullet"
	LineBlank  LineKind = "blank"
)

type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// ChatLines splits a cleaned reply into typed lines for rendering.
func ChatLines(cleaned string) []Line {
	if cleaned == "" {
		return nil
	}
	raw := strings.Split(cleaned, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
			lines = append(lines, Line{Kind: LineBlank})
		case strings.HasPrefix(l, Bullet+" "):
			lines = append(lines, Line{Kind: LineBullet, Text: strings.TrimPrefix(l, Bullet+" ")})
		default:
			lines = append(lines, Line{Kind: LineText, Text: l})
		}
	}
	return lines
}
