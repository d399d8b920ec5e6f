package tts

import "strings"

// Sanitize strips what reads badly aloud: emoji, markdown asterisks,
// and table/separator characters, which otherwise become long pauses.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case isEmoji(r):
		case r == '*':
		case r == '|' || r == ':' || r == '-':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2300 && r <= 0x27BF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0xFE0F: // variation selector
		return true
	}
	return false
}
