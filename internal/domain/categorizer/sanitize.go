package categorizer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var explanationMarkers = []string{" - ", " since ", " because "}

var sizeWordPattern = regexp.MustCompile(`\b(oz|ounces?|pack|count|ct)\b`)

// productRule is a named check for classifier answers that echo a product
// listing instead of naming a category.
type productRule struct {
	name  string
	match func(s, lower string) bool
}

var productRules = []productRule{
	{name: "too_long", match: func(s, _ string) bool { return utf8.RuneCountInString(s) > 40 }},
	{name: "comma", match: func(s, _ string) bool { return strings.Contains(s, ",") }},
	{name: "size_or_count", match: func(_, lower string) bool { return sizeWordPattern.MatchString(lower) }},
	{name: "descriptor_prefix", match: func(_, lower string) bool { return strings.HasPrefix(lower, "organic ") }},
	{name: "store_brand", match: func(s, lower string) bool {
		return strings.Contains(s, "365 ") || strings.Contains(lower, "by whole foods")
	}},
}

// ProductRule returns the name of the first rule that flags s as a product
// name, or "" when s reads like a category.
func ProductRule(s string) string {
	lower := strings.ToLower(s)
	for _, rule := range productRules {
		if rule.match(s, lower) {
			return rule.name
		}
	}
	return ""
}

// LooksLikeProduct reports whether s reads like a product listing.
func LooksLikeProduct(s string) bool {
	return ProductRule(s) != ""
}

// Sanitize strips trailing explanations from a classifier answer.
func Sanitize(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), `"'*`)
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	for _, marker := range explanationMarkers {
		if i := indexFold(s, marker); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// ParseNumbered parses "N. answer" lines into a zero-based index map.
// Lines without a leading number are ignored; the first answer for an index wins.
func ParseNumbered(text string) map[int]string {
	answers := make(map[int]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		dot := strings.Index(line, ".")
		if dot <= 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[:dot]))
		if err != nil || n < 1 {
			continue
		}
		if _, seen := answers[n-1]; !seen {
			answers[n-1] = strings.TrimSpace(line[dot+1:])
		}
	}
	return answers
}

// firstAnswer extracts a single-item answer, numbered or not.
func firstAnswer(text string) string {
	if answers := ParseNumbered(text); len(answers) > 0 {
		if a, ok := answers[0]; ok {
			return a
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// indexFold is a case-insensitive strings.Index for ASCII needles.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
