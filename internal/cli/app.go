package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/adapters/llm"
	"github.com/charliesneath/ynab-toolkit/internal/adapters/statements"
	"github.com/charliesneath/ynab-toolkit/internal/adapters/ynab"
	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/charliesneath/ynab-toolkit/internal/domain/charge"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/config"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/filestore"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/logging"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
	"github.com/charliesneath/ynab-toolkit/internal/observability"
)

// App carries what every command needs once flags and config are resolved.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	out    io.Writer
	errOut io.Writer
}

func (a *App) logger(system string) *slog.Logger {
	return logging.WithSystem(a.Logger, system)
}

// openStore opens the sqlite database, creating its directory if needed.
func (a *App) openStore() (*storage.Storage, error) {
	path := a.Config.Storage.DatabasePath
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return storage.NewStorage(path)
}

// cacheStore returns the configured category cache backend.
func (a *App) cacheStore(store *storage.Storage) categorizer.CacheStore {
	if a.Config.Storage.CacheBackend == config.CacheBackendJSON {
		return filestore.NewCategoryFile(a.Config.CacheFilePath())
	}
	return store
}

// newLedger creates a YNAB client and resolves budget and account names.
func (a *App) newLedger(ctx context.Context) (*ynab.Client, error) {
	token := a.Config.YNABToken()
	if token == "" {
		return nil, fmt.Errorf("a YNAB token is required (set YNAB_TOKEN or ynab.token)")
	}
	cfg := a.Config.YNAB
	client := ynab.NewClient(ynab.Config{
		Token:         token,
		BaseURL:       cfg.BaseURL,
		BudgetID:      cfg.BudgetID,
		AccountID:     cfg.AccountID,
		RateLimitWait: cfg.RateLimitWait,
	}, a.logger("ynab"))

	if err := client.ResolveBudget(ctx, cfg.BudgetName); err != nil {
		return nil, err
	}
	if cfg.AccountName != "" {
		if err := client.ResolveAccount(ctx, cfg.AccountName); err != nil {
			return nil, err
		}
	}
	return client, nil
}

// loadRules reads the category rules file; a missing file yields empty rules.
func (a *App) loadRules() (*categorizer.Rules, error) {
	return categorizer.LoadRules(a.Config.Categories.RulesPath)
}

// excludedGroups merges configured exclusions with those from the rules file.
func (a *App) excludedGroups(rules *categorizer.Rules) []string {
	groups := append([]string{}, a.Config.Categories.ExcludedGroups...)
	if rules != nil {
		groups = append(groups, rules.ExcludedGroups...)
	}
	return groups
}

// loadCatalog builds the category catalog from the budget, then layers on
// rule and CSV descriptions and drops excluded categories.
func (a *App) loadCatalog(ctx context.Context, ledger *ynab.Client, rules *categorizer.Rules) (categorizer.Catalog, *ynab.CategoryIndex, error) {
	groups, err := ledger.CategoryGroups(ctx)
	if err != nil {
		return categorizer.Catalog{}, nil, err
	}
	excluded := a.excludedGroups(rules)
	catalog := ynab.Catalog(groups, excluded).WithDescriptions(rules.Descriptions())

	if path := a.Config.Categories.DescriptionsPath; path != "" {
		desc, err := filestore.ReadCategoryDescriptions(path)
		if err != nil {
			return categorizer.Catalog{}, nil, err
		}
		catalog = catalog.WithDescriptions(desc.Descriptions).Without(desc.Excluded...)
	}
	return catalog, ynab.NewCategoryIndex(groups, excluded), nil
}

// newCategorizer wires the classifier, cache and miscategorization log.
func (a *App) newCategorizer(cache *categorizer.CategoryCache, rules *categorizer.Rules) (*categorizer.Categorizer, error) {
	cfg := a.Config.Classifier
	classifier, err := llm.New(llm.Config{
		Provider:   cfg.Provider,
		APIKey:     a.Config.ClassifierAPIKey(),
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	fallback := a.Config.Categories.FallbackCategory
	if rules != nil && rules.FallbackCategory != "" {
		fallback = rules.FallbackCategory
	}
	c := categorizer.NewCategorizer(classifier, cache, categorizer.Config{
		ChunkSize:        cfg.ChunkSize,
		FallbackCategory: fallback,
		Rules:            rules,
	}, a.logger("categorizer"))
	c.SetMiscategorizationLog(filestore.NewMiscategorizationLog(a.Config.MiscategorizationLogPath()))
	c.SetMetrics(a.Metrics)
	return c, nil
}

// readStatements reads bank charges from register CSV and OFX/QFX files,
// choosing the reader by extension.
func readStatements(paths []string, logger *slog.Logger) ([]charge.BankCharge, error) {
	var all []charge.BankCharge
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		var charges []charge.BankCharge
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ofx", ".qfx":
			charges, err = statements.ReadOFX(f, logger)
		default:
			charges, err = statements.ReadRegister(f, nil, logger)
		}
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		logger.Info("read statement", "path", path, "charges", len(charges))
		all = append(all, charges...)
	}
	return all, nil
}
