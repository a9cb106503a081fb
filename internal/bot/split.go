package bot

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Telegram's hard limit on message text, in characters.
const maxMessageLength = 4096

// SplitMessage splits text into chunks of at most limit characters,
// preferring to break on line boundaries so formatted result lists stay
// readable. Cuts always land on rune boundaries so multibyte text survives
// the hard cut intact.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		window := runePrefix(text, limit)
		cut := strings.LastIndex(window, "\n")
		if cut <= 0 {
			cut = len(window)
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// runePrefix returns the longest prefix of s holding at most n runes.
func runePrefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
