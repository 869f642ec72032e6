package categorizer

import (
	"fmt"
	"strings"
)

const maxPromptNameRunes = 80

func promptName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > maxPromptNameRunes {
		return string(runes[:maxPromptNameRunes])
	}
	return string(runes)
}

func writeCatalog(b *strings.Builder, catalog Catalog, guidance string) {
	b.WriteString("Available categories:\n")
	b.WriteString(catalog.Listing())
	if guidance != "" {
		b.WriteString("\nCategory rules:\n")
		b.WriteString(guidance)
	}
}

// batchPrompt asks for one numbered category per product.
func batchPrompt(items []string, catalog Catalog, guidance string) string {
	var b strings.Builder
	b.WriteString("Categorize each product below into exactly one budget category.\n\n")
	writeCatalog(&b, catalog, guidance)

	b.WriteString("\nProducts:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, promptName(item))
	}

	b.WriteString("\nReply with one line per product in the form \"N. Category\". ")
	b.WriteString("Use only category names from the list above. Do not explain.\n")
	return b.String()
}

// singlePrompt asks for one product's category.
func singlePrompt(item string, catalog Catalog, guidance string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Which budget category does this product belong to?\n\nProduct: %s\n\n", promptName(item))
	writeCatalog(&b, catalog, guidance)
	b.WriteString("\nReply with only the category name, exactly as listed.\n")
	return b.String()
}

// correctivePrompt resubmits a product whose category was rejected.
func correctivePrompt(item, rejected string, catalog Catalog, guidance string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The product %q was categorized as %q, which is wrong for this product.\n", promptName(item), rejected)
	b.WriteString("Choose the correct category instead.\n\n")
	writeCatalog(&b, catalog, guidance)
	fmt.Fprintf(&b, "\nReply with only the category name, exactly as listed. Do not answer %q.\n", rejected)
	return b.String()
}
