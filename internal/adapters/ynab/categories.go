package ynab

import (
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
)

// internalGroups never hold spendable categories.
var internalGroups = []string{"Internal Master Category", "Credit Card Payments"}

// CategoryIndex resolves category names to ids.
type CategoryIndex struct {
	byName  map[string]string
	byLower map[string]string
	names   []string
	groups  map[string]string // category name -> group name
}

// NewCategoryIndex indexes visible categories, skipping hidden or deleted
// ones, internal groups and any excluded groups.
func NewCategoryIndex(groups []CategoryGroup, excludedGroups []string) *CategoryIndex {
	excluded := make(map[string]bool)
	for _, g := range append(excludedGroups, internalGroups...) {
		excluded[strings.ToLower(g)] = true
	}

	idx := &CategoryIndex{
		byName:  make(map[string]string),
		byLower: make(map[string]string),
		groups:  make(map[string]string),
	}
	for _, g := range groups {
		if g.Hidden || g.Deleted || excluded[strings.ToLower(g.Name)] {
			continue
		}
		for _, cat := range g.Categories {
			if cat.Hidden || cat.Deleted {
				continue
			}
			if _, dup := idx.byName[cat.Name]; !dup {
				idx.names = append(idx.names, cat.Name)
				idx.groups[cat.Name] = g.Name
			}
			idx.byName[cat.Name] = cat.ID
			idx.byLower[strings.ToLower(cat.Name)] = cat.ID
		}
	}
	return idx
}

// Find returns the id for a category name: exact, then case-insensitive,
// then the first category whose name contains (or is contained in) name.
func (i *CategoryIndex) Find(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if id, ok := i.byName[name]; ok {
		return id, true
	}
	lower := strings.ToLower(name)
	if id, ok := i.byLower[lower]; ok {
		return id, true
	}
	for _, n := range i.names {
		nl := strings.ToLower(n)
		if strings.Contains(nl, lower) || strings.Contains(lower, nl) {
			return i.byName[n], true
		}
	}
	return "", false
}

// Names returns the indexed category names in budget order.
func (i *CategoryIndex) Names() []string {
	return i.names
}

// Group returns the group a category belongs to.
func (i *CategoryIndex) Group(name string) string {
	return i.groups[name]
}

// Catalog builds the categorizer catalog from the indexed categories.
// Category notes from the budget become descriptions.
func Catalog(groups []CategoryGroup, excludedGroups []string) categorizer.Catalog {
	idx := NewCategoryIndex(groups, excludedGroups)
	notes := make(map[string]string)
	for _, g := range groups {
		for _, cat := range g.Categories {
			if cat.Note != "" {
				notes[cat.Name] = strings.TrimSpace(cat.Note)
			}
		}
	}

	categories := make([]categorizer.Category, 0, len(idx.names))
	for _, name := range idx.names {
		categories = append(categories, categorizer.Category{
			Name:        name,
			Group:       idx.groups[name],
			Description: notes[name],
		})
	}
	return categorizer.NewCatalog(categories, excludedGroups)
}
