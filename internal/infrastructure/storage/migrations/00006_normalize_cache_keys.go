package migrations

import (
	"context"
	"database/sql"

	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upNormalizeCacheKeys, downNormalizeCacheKeys)
}

// upNormalizeCacheKeys rewrites category cache keys imported from older JSON
// caches, which stored raw product names, to the normalized form lookups use.
// An entry already stored under the normalized key wins over raw duplicates.
func upNormalizeCacheKeys(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT item, category, updated_at FROM category_cache ORDER BY rowid`)
	if err != nil {
		return err
	}

	type entry struct {
		item, category string
		updatedAt      sql.NullTime
	}
	var stale []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.item, &e.category, &e.updatedAt); err != nil {
			_ = rows.Close()
			return err
		}
		if categorizer.NormalizeKey(e.item) != e.item {
			stale = append(stale, e)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM category_cache WHERE item = ?`, e.item); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO category_cache (item, category, updated_at)
			VALUES (?, ?, COALESCE(?, CURRENT_TIMESTAMP))
		`, categorizer.NormalizeKey(e.item), e.category, e.updatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// downNormalizeCacheKeys is a no-op; raw names are not recoverable.
func downNormalizeCacheKeys(ctx context.Context, tx *sql.Tx) error {
	return nil
}
