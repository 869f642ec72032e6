package categorizer

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultChunkSize is the number of products sent per classifier call.
const DefaultChunkSize = 30

// DefaultFallbackCategory is assigned when no category can be resolved.
const DefaultFallbackCategory = "Household Supplies"

// Classifier is the opaque text classifier (an LLM).
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// MiscategorizationLog records corrections made by resubmission.
type MiscategorizationLog interface {
	Record(item, original, corrected string) error
}

// Recorder receives categorizer metrics.
type Recorder interface {
	ClassifierCall(outcome string)
	CacheLookup(hit bool)
}

// Config holds categorizer configuration
type Config struct {
	ChunkSize        int
	FallbackCategory string
	Rules            *Rules
}

// Result contains all categorization results
type Result struct {
	// Categories maps each product name, as given, to its category.
	Categories map[string]string

	// Unmatched products got the fallback category.
	Unmatched []string

	// Uncategorized products were skipped by a failed chunk or missing
	// from the response. They are not cached and are retried next run.
	Uncategorized []string

	CacheHits   int
	Classified  int
	Resubmitted int
}

// Category returns the category assigned to a product.
func (r *Result) Category(name string) (string, bool) {
	cat, ok := r.Categories[name]
	return cat, ok
}

// Categorizer handles product categorization using a classifier and a cache
type Categorizer struct {
	classifier Classifier
	cache      *CategoryCache
	config     Config
	suspicious SuspiciousRules
	guidance   string
	misLog     MiscategorizationLog
	metrics    Recorder
	logger     *slog.Logger
}

// NewCategorizer creates a new categorizer
func NewCategorizer(classifier Classifier, cache *CategoryCache, config Config, logger *slog.Logger) *Categorizer {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.FallbackCategory == "" && config.Rules != nil {
		config.FallbackCategory = config.Rules.FallbackCategory
	}
	if config.FallbackCategory == "" {
		config.FallbackCategory = DefaultFallbackCategory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		classifier: classifier,
		cache:      cache,
		config:     config,
		suspicious: DefaultSuspiciousRules().Merge(config.Rules.SuspiciousRules()),
		guidance:   config.Rules.Guidance(),
		logger:     logger,
	}
}

// SetMiscategorizationLog sets where resubmission fixes are recorded.
func (c *Categorizer) SetMiscategorizationLog(log MiscategorizationLog) {
	c.misLog = log
}

// SetMetrics sets the metrics recorder.
func (c *Categorizer) SetMetrics(r Recorder) {
	c.metrics = r
}

// FallbackCategory returns the category used for unresolvable products.
func (c *Categorizer) FallbackCategory() string {
	return c.config.FallbackCategory
}

// Categorize assigns a category to every product name.
//
// Cached products never reach the classifier. A chunk whose call fails with
// a retryable error is logged and skipped. Quota exhaustion or rejected
// credentials stop the run: the partial result is returned with the error.
func (c *Categorizer) Categorize(ctx context.Context, items []string, catalog Catalog) (*Result, error) {
	result := &Result{Categories: make(map[string]string)}

	var misses []string
	seen := make(map[string]bool, len(items))
	for _, name := range items {
		if seen[name] {
			continue
		}
		seen[name] = true

		if category, ok := c.cache.Get(name); ok {
			result.Categories[name] = category
			result.CacheHits++
			c.recordLookup(true)
			continue
		}
		c.recordLookup(false)
		misses = append(misses, name)
	}

	if len(misses) == 0 {
		return result, nil
	}

	valid := catalog.Names()
	for start := 0; start < len(misses); start += c.config.ChunkSize {
		end := min(start+c.config.ChunkSize, len(misses))
		if err := c.categorizeChunk(ctx, misses[start:end], catalog, valid, result); err != nil {
			return result, err
		}
	}

	c.logger.Info("categorized items",
		"cache_hits", result.CacheHits,
		"classified", result.Classified,
		"resubmitted", result.Resubmitted,
		"unmatched", len(result.Unmatched),
		"uncategorized", len(result.Uncategorized))

	return result, nil
}

func (c *Categorizer) categorizeChunk(ctx context.Context, chunk []string, catalog Catalog, valid []string, result *Result) error {
	out := c.classify(ctx, batchPrompt(chunk, catalog, c.guidance))
	switch {
	case out.Halts():
		return fmt.Errorf("categorizing %d items: %w", len(chunk), out.Err)
	case out.Kind == OutcomeRetryable:
		c.logger.Warn("classifier call failed, skipping chunk", "items", len(chunk), "error", out.Err)
		result.Uncategorized = append(result.Uncategorized, chunk...)
		return nil
	}

	answers := ParseNumbered(out.Text)
	for i, name := range chunk {
		raw, ok := answers[i]
		if !ok {
			result.Uncategorized = append(result.Uncategorized, name)
			continue
		}

		category, matched := resolve(raw, valid)
		if !matched {
			var err error
			category, matched, err = c.retrySingle(ctx, name, catalog, valid)
			if err != nil {
				return err
			}
		}
		if !matched {
			c.logger.Warn("no category matched, using fallback", "item", name, "answer", raw, "fallback", c.config.FallbackCategory)
			result.Categories[name] = c.config.FallbackCategory
			result.Unmatched = append(result.Unmatched, name)
			continue
		}

		category, err := c.checkSuspicious(ctx, name, category, catalog, valid, result)
		if err != nil {
			return err
		}

		result.Categories[name] = category
		result.Classified++
		c.cache.Put(name, category)
	}
	return nil
}

// retrySingle asks about one product on its own.
func (c *Categorizer) retrySingle(ctx context.Context, name string, catalog Catalog, valid []string) (string, bool, error) {
	out := c.classify(ctx, singlePrompt(name, catalog, c.guidance))
	if out.Halts() {
		return "", false, fmt.Errorf("categorizing %q: %w", name, out.Err)
	}
	if out.Kind != OutcomeOK {
		return "", false, nil
	}
	category, ok := resolve(firstAnswer(out.Text), valid)
	return category, ok, nil
}

// checkSuspicious resubmits a product once when its category trips a rule.
// The original category is kept unless the resubmission yields a different,
// valid, non-suspicious one.
func (c *Categorizer) checkSuspicious(ctx context.Context, name, category string, catalog Catalog, valid []string, result *Result) (string, error) {
	if !c.suspicious.Flags(name, category) {
		return category, nil
	}

	out := c.classify(ctx, correctivePrompt(name, category, catalog, c.guidance))
	if out.Halts() {
		return "", fmt.Errorf("resubmitting %q: %w", name, out.Err)
	}
	if out.Kind != OutcomeOK {
		return category, nil
	}

	corrected, ok := resolve(firstAnswer(out.Text), valid)
	if !ok || corrected == category || c.suspicious.Flags(name, corrected) {
		return category, nil
	}

	c.logger.Info("corrected suspicious category", "item", name, "from", category, "to", corrected)
	result.Resubmitted++
	if c.misLog != nil {
		if err := c.misLog.Record(name, category, corrected); err != nil {
			c.logger.Warn("failed to record miscategorization", "item", name, "error", err)
		}
	}
	return corrected, nil
}

func (c *Categorizer) classify(ctx context.Context, prompt string) Outcome {
	out := NewOutcome(c.classifier.Classify(ctx, prompt))
	if c.metrics != nil {
		c.metrics.ClassifierCall(out.Kind.String())
	}
	return out
}

func (c *Categorizer) recordLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.CacheLookup(hit)
	}
}

// resolve sanitizes a raw answer and matches it to a valid category.
func resolve(raw string, valid []string) (string, bool) {
	answer := Sanitize(raw)
	if answer == "" || LooksLikeProduct(answer) {
		return "", false
	}
	return MatchCategory(answer, valid)
}
