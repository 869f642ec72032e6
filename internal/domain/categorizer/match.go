package categorizer

import (
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
)

// MatchCategory resolves a sanitized classifier answer against the valid
// category names. The ladder is exact, case-insensitive, emoji-stripped,
// then a loose word overlap: first words equal and at least half of the
// answer's words present in the category.
func MatchCategory(answer string, valid []string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}

	for _, name := range valid {
		if name == answer {
			return name, true
		}
	}

	lower := strings.ToLower(answer)
	for _, name := range valid {
		if strings.ToLower(name) == lower {
			return name, true
		}
	}

	stripped := StripEmoji(lower)
	for _, name := range valid {
		s := strings.ToLower(StripEmoji(name))
		if s == lower || s == stripped {
			return name, true
		}
	}

	answerWords := words(stripped)
	if len(answerWords) == 0 {
		return "", false
	}
	for _, name := range valid {
		nameWords := words(strings.ToLower(StripEmoji(name)))
		if len(nameWords) == 0 || nameWords[0] != answerWords[0] {
			continue
		}
		if 2*overlap(answerWords, nameWords) >= len(answerWords) {
			return name, true
		}
	}
	return "", false
}

// StripEmoji removes emoji and the spacing around them, e.g. "🎒 Gear" -> "Gear".
func StripEmoji(s string) string {
	s = gomoji.RemoveEmojis(s)
	return strings.TrimSpace(strings.Trim(s, "\ufe0f\u200d "))
}

// words splits on non-alphanumeric runs and de-duplicates, preserving order.
func words(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func overlap(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, w := range b {
		set[w] = true
	}
	n := 0
	for _, w := range a {
		if set[w] {
			n++
		}
	}
	return n
}
