package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
)

func newCacheCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or correct the product category cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <item>",
			Short: "Show the cached category for a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCache(cmd.Context(), app, func(cache *categorizer.CategoryCache) error {
					category, found := cache.Get(args[0])
					if !found {
						return fmt.Errorf("no cached category for %q", args[0])
					}
					fmt.Fprintf(app.out, "%s -> %s\n", categorizer.NormalizeKey(args[0]), category)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <item> <category>",
			Short: "Correct the category of a product",
			Long: `Stores a manual correction. The next process run uses it for every
product with the same normalized name without asking the classifier.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, category := args[0], strings.TrimSpace(args[1])
				if strings.TrimSpace(item) == "" || category == "" {
					return fmt.Errorf("item and category must not be empty")
				}
				return withCache(cmd.Context(), app, func(cache *categorizer.CategoryCache) error {
					previous, _ := cache.Get(item)
					cache.Put(item, category)
					if _, err := cache.Flush(cmd.Context()); err != nil {
						return err
					}
					app.logger("cache").Info("cache entry updated", "item", item, "previous", previous, "category", category)
					okColor.Fprintf(app.out, "%s -> %s\n", categorizer.NormalizeKey(item), category)
					return nil
				})
			},
		},
	)
	return cmd
}

// withCache loads the configured cache backend for fn.
func withCache(ctx context.Context, app *App, fn func(*categorizer.CategoryCache) error) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cache := categorizer.NewCategoryCache(app.cacheStore(store))
	if err := cache.Load(ctx); err != nil {
		return err
	}
	return fn(cache)
}
