package categorizer

import "strings"

// SuspiciousRules maps a category to product keywords that must never land in it.
type SuspiciousRules map[string][]string

// DefaultSuspiciousRules are the miscategorizations seen often enough to check for.
func DefaultSuspiciousRules() SuspiciousRules {
	return SuspiciousRules{
		"Meats":              {"banana", "tofu", "avocado"},
		"Bananas":            {"chicken", "beef", "bacon"},
		"Frozen":             {"broccoli", "spinach", "peas", "mango", "blueberries"},
		"🎒 Gear":             {"diaper", "wipes"},
		"Household Supplies": {"diaper", "wipes"},
	}
}

// Merge returns the union of both rule sets.
func (r SuspiciousRules) Merge(other SuspiciousRules) SuspiciousRules {
	out := make(SuspiciousRules, len(r)+len(other))
	for cat, keywords := range r {
		out[cat] = append(out[cat], keywords...)
	}
	for cat, keywords := range other {
		out[cat] = append(out[cat], keywords...)
	}
	return out
}

// Flags reports whether assigning category to item matches a rule. The
// category is compared both as given and with emoji stripped.
func (r SuspiciousRules) Flags(item, category string) bool {
	itemLower := strings.ToLower(item)
	catLower := strings.ToLower(category)
	catStripped := strings.ToLower(StripEmoji(category))

	for ruleCat, keywords := range r {
		ruleLower := strings.ToLower(ruleCat)
		ruleStripped := strings.ToLower(StripEmoji(ruleCat))
		if ruleLower != catLower && ruleStripped != catStripped {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(itemLower, kw) {
				return true
			}
		}
	}
	return false
}
