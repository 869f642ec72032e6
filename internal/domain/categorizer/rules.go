package categorizer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxRuleExamples = 12

// CategoryRule is per-category guidance from the rules file.
type CategoryRule struct {
	Description string            `yaml:"description"`
	Examples    []string          `yaml:"examples"`
	Brands      []string          `yaml:"brands"`
	NotThis     map[string]string `yaml:"not_this"` // product keyword -> better category
	Notes       string            `yaml:"notes"`
}

// Rules is the category rules file.
//
//	fallback_category: Household Supplies
//	excluded_groups: [Bills]
//	categories:
//	  Snacks:
//	    description: chips, crackers, cookies
//	    not_this:
//	      protein bar: Supplements
type Rules struct {
	FallbackCategory string                  `yaml:"fallback_category"`
	ExcludedGroups   []string                `yaml:"excluded_groups"`
	Categories       map[string]CategoryRule `yaml:"categories"`
}

// LoadRules reads a rules file. A missing file yields empty rules.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Rules{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses rules YAML.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &rules, nil
}

// Descriptions returns category descriptions keyed by category name.
func (r *Rules) Descriptions() map[string]string {
	out := make(map[string]string)
	if r == nil {
		return out
	}
	for name, rule := range r.Categories {
		if rule.Description != "" {
			out[name] = rule.Description
		}
	}
	return out
}

// Guidance renders the rules as prompt text, sorted by category.
func (r *Rules) Guidance() string {
	if r == nil || len(r.Categories) == 0 {
		return ""
	}

	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		rule := r.Categories[name]
		var parts []string
		if len(rule.Examples) > 0 {
			examples := rule.Examples
			if len(examples) > maxRuleExamples {
				examples = examples[:maxRuleExamples]
			}
			parts = append(parts, "examples: "+strings.Join(examples, ", "))
		}
		if len(rule.Brands) > 0 {
			parts = append(parts, "brands: "+strings.Join(rule.Brands, ", "))
		}
		if len(rule.NotThis) > 0 {
			keywords := sortedKeys(rule.NotThis)
			var not []string
			for _, k := range keywords {
				not = append(not, fmt.Sprintf("%s -> %s", k, rule.NotThis[k]))
			}
			parts = append(parts, "not for: "+strings.Join(not, ", "))
		}
		if rule.Notes != "" {
			parts = append(parts, rule.Notes)
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, strings.Join(parts, "; "))
	}
	return b.String()
}

// SuspiciousRules derives keyword rules from every category's not_this list.
func (r *Rules) SuspiciousRules() SuspiciousRules {
	out := SuspiciousRules{}
	if r == nil {
		return out
	}
	for name, rule := range r.Categories {
		for _, keyword := range sortedKeys(rule.NotThis) {
			out[name] = append(out[name], strings.ToLower(keyword))
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
