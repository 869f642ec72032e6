package storage

import (
	"context"
	"fmt"
	"time"
)

// MarkSynced records that an import id reached the ledger.
func (s *Storage) MarkSynced(ctx context.Context, record SyncRecord) error {
	if record.SyncedAt.IsZero() {
		record.SyncedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO synced_imports (import_id, remote_id, content_hash, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(import_id) DO UPDATE SET
			remote_id = CASE WHEN excluded.remote_id != '' THEN excluded.remote_id ELSE synced_imports.remote_id END,
			content_hash = excluded.content_hash,
			synced_at = excluded.synced_at
	`, record.ImportID, record.RemoteID, record.ContentHash, record.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", record.ImportID, err)
	}
	return nil
}

// SyncedSet returns every synced import keyed by import id.
func (s *Storage) SyncedSet(ctx context.Context) (map[string]SyncRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT import_id, remote_id, content_hash, synced_at FROM synced_imports`)
	if err != nil {
		return nil, fmt.Errorf("failed to read synced imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	set := make(map[string]SyncRecord)
	for rows.Next() {
		var r SyncRecord
		if err := rows.Scan(&r.ImportID, &r.RemoteID, &r.ContentHash, &r.SyncedAt); err != nil {
			return nil, err
		}
		set[r.ImportID] = r
	}
	return set, rows.Err()
}

// Claim creates the claim for key. Exactly one caller wins a key; everyone
// else, in this or another process, gets false.
func (s *Storage) Claim(ctx context.Context, key, owner string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO claims (claim_key, owner, claimed_at) VALUES (?, ?, ?)`,
		key, owner, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return n == 1, nil
}

// Release deletes the claim so a later run can retry the guarded work.
func (s *Storage) Release(ctx context.Context, key, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE claim_key = ? AND owner = ?`, key, owner)
	if err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// LoadCategoryCache returns all cached categorizations.
func (s *Storage) LoadCategoryCache(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item, category FROM category_cache`)
	if err != nil {
		return nil, fmt.Errorf("failed to read category cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]string)
	for rows.Next() {
		var item, category string
		if err := rows.Scan(&item, &category); err != nil {
			return nil, err
		}
		entries[item] = category
	}
	return entries, rows.Err()
}

// SaveCategoryCache upserts every entry in one transaction.
func (s *Storage) SaveCategoryCache(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO category_cache (item, category, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(item) DO UPDATE SET category = excluded.category, updated_at = excluded.updated_at
		WHERE category_cache.category != excluded.category
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache save: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for item, category := range entries {
		if _, err := stmt.ExecContext(ctx, item, category, now); err != nil {
			return fmt.Errorf("failed to save cache entry %q: %w", item, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache save: %w", err)
	}
	return nil
}
