package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu      sync.Mutex
	records map[string]*splitter.Record
	synced  map[string]SyncRecord
	claims  map[string]string
	cache   map[string]string
	runs    map[string]*SyncRun
	runIDs  []string

	// Hooks for test assertions
	SaveRecordCalls int
	CacheSaves      int

	// Error injection for testing error paths
	SaveRecordErr error
	GetStatsErr   error
	MarkSyncedErr error
	ClaimErr      error
	StartRunErr   error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		records: make(map[string]*splitter.Record),
		synced:  make(map[string]SyncRecord),
		claims:  make(map[string]string),
		cache:   make(map[string]string),
		runs:    make(map[string]*SyncRun),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) SaveRecord(_ context.Context, record *splitter.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRecordCalls++
	if m.SaveRecordErr != nil {
		return m.SaveRecordErr
	}
	// Copy to avoid test mutations
	copied := *record
	m.records[record.ImportID] = &copied
	return nil
}

func (m *MockRepository) GetRecord(_ context.Context, importID string) (*splitter.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[importID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", importID, ErrNotFound)
	}
	copied := *r
	return &copied, nil
}

func (m *MockRepository) HasSettledRecord(_ context.Context, importID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[importID]
	return ok && r.Settled(), nil
}

func (m *MockRepository) ListRecords(_ context.Context, filters RecordFilters) (*RecordList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*splitter.Record
	for _, r := range m.records {
		if filters.Status != "" && string(r.Status) != filters.Status {
			continue
		}
		if filters.OrderID != "" && r.OrderID != filters.OrderID {
			continue
		}
		if !filters.Since.IsZero() && r.Date.Before(filters.Since) {
			continue
		}
		matched = append(matched, r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ImportID < matched[j].ImportID
	})

	result := &RecordList{TotalCount: len(matched), Limit: filters.Limit, Offset: filters.Offset, Records: []*splitter.Record{}}
	if result.Limit == 0 {
		result.Limit = defaultListLimit
	}
	end := len(matched)
	if result.Limit > 0 && filters.Offset+result.Limit < end {
		end = filters.Offset + result.Limit
	}
	if filters.Offset < end {
		result.Records = append(result.Records, matched[filters.Offset:end]...)
	}
	return result, nil
}

func (m *MockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{ByStatus: make(map[string]int), Synced: len(m.synced), CacheEntries: len(m.cache)}
	total := decimal.Zero
	for _, r := range m.records {
		stats.TotalRecords++
		stats.ByStatus[string(r.Status)]++
		if r.LowConfidence {
			stats.LowConfidence++
		}
		if r.NeedsAttention() {
			stats.NeedsAttention++
		}
		total = total.Add(r.Amount)
	}
	stats.TotalAmount = total.StringFixed(2)
	return stats, nil
}

func (m *MockRepository) MarkSynced(_ context.Context, record SyncRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkSyncedErr != nil {
		return m.MarkSyncedErr
	}
	if prev, ok := m.synced[record.ImportID]; ok && record.RemoteID == "" {
		record.RemoteID = prev.RemoteID
	}
	m.synced[record.ImportID] = record
	return nil
}

func (m *MockRepository) SyncedSet(_ context.Context) (map[string]SyncRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]SyncRecord, len(m.synced))
	for k, v := range m.synced {
		set[k] = v
	}
	return set, nil
}

func (m *MockRepository) Claim(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	if _, taken := m.claims[key]; taken {
		return false, nil
	}
	m.claims[key] = owner
	return true, nil
}

func (m *MockRepository) Release(_ context.Context, key, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[key] == owner {
		delete(m.claims, key)
	}
	return nil
}

func (m *MockRepository) LoadCategoryCache(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make(map[string]string, len(m.cache))
	for k, v := range m.cache {
		entries[k] = v
	}
	return entries, nil
}

func (m *MockRepository) SaveCategoryCache(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheSaves++
	for k, v := range entries {
		m.cache[k] = v
	}
	return nil
}

func (m *MockRepository) StartRun(_ context.Context, kind string, dryRun bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartRunErr != nil {
		return "", m.StartRunErr
	}
	id := uuid.NewString()
	m.runs[id] = &SyncRun{ID: id, Kind: kind, StartedAt: time.Now().UTC(), DryRun: dryRun, Status: RunStatusRunning}
	m.runIDs = append(m.runIDs, id)
	return id, nil
}

func (m *MockRepository) CompleteRun(_ context.Context, id string, counts RunCounts, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	now := time.Now().UTC()
	run.CompletedAt = &now
	run.RunCounts = counts
	run.Status = runStatus(counts, runErr)
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return nil
}

func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = defaultListLimit
	}
	runs := []SyncRun{}
	for i := len(m.runIDs) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, *m.runs[m.runIDs[i]])
	}
	return runs, nil
}

func (m *MockRepository) GetRun(_ context.Context, id string) (*SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// AddRecord adds a record directly (for test setup)
func (m *MockRepository) AddRecord(record *splitter.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ImportID] = record
}

// Claims returns the current claims keyed by key (for test assertions)
func (m *MockRepository) Claims() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.claims))
	for k, v := range m.claims {
		out[k] = v
	}
	return out
}
