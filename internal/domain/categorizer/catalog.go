package categorizer

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a budget category the classifier may choose.
type Category struct {
	Name        string
	Group       string
	Description string
}

// Catalog is the set of categories offered to the classifier.
type Catalog struct {
	categories []Category
	excluded   map[string]bool
}

// NewCatalog builds a catalog, dropping categories in excluded groups.
func NewCatalog(categories []Category, excludedGroups []string) Catalog {
	excluded := make(map[string]bool, len(excludedGroups))
	for _, g := range excludedGroups {
		excluded[strings.ToLower(strings.TrimSpace(g))] = true
	}
	return Catalog{categories: categories, excluded: excluded}
}

// CatalogFromNames builds a catalog of bare category names.
func CatalogFromNames(names ...string) Catalog {
	categories := make([]Category, len(names))
	for i, n := range names {
		categories[i] = Category{Name: n}
	}
	return NewCatalog(categories, nil)
}

// Categories returns the non-excluded categories in catalog order.
func (c Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for _, cat := range c.categories {
		if c.excluded[strings.ToLower(cat.Group)] {
			continue
		}
		out = append(out, cat)
	}
	return out
}

// Names returns the valid category names in catalog order.
func (c Catalog) Names() []string {
	cats := c.Categories()
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	return names
}

// Listing renders the sorted category list shown to the classifier.
func (c Catalog) Listing() string {
	cats := c.Categories()
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })

	var b strings.Builder
	for _, cat := range cats {
		switch {
		case cat.Description != "":
			fmt.Fprintf(&b, "- %s (%s)\n", cat.Name, cat.Description)
		case cat.Group != "":
			fmt.Fprintf(&b, "- %s (%s group)\n", cat.Name, cat.Group)
		default:
			fmt.Fprintf(&b, "- %s\n", cat.Name)
		}
	}
	return b.String()
}

// WithDescriptions returns a copy with descriptions filled from the map
// (keyed by category name) where the category has none.
func (c Catalog) WithDescriptions(descriptions map[string]string) Catalog {
	categories := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		if cat.Description == "" {
			cat.Description = descriptions[cat.Name]
		}
		categories[i] = cat
	}
	return Catalog{categories: categories, excluded: c.excluded}
}

// Without returns a copy without the named categories.
func (c Catalog) Without(names ...string) Catalog {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[strings.ToLower(strings.TrimSpace(n))] = true
	}
	categories := make([]Category, 0, len(c.categories))
	for _, cat := range c.categories {
		if !drop[strings.ToLower(cat.Name)] {
			categories = append(categories, cat)
		}
	}
	return Catalog{categories: categories, excluded: c.excluded}
}
