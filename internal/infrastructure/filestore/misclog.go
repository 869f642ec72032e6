package filestore

import (
	"sync"
	"time"
)

// DefaultMiscategorizationFile is the log file name inside the data directory.
const DefaultMiscategorizationFile = "miscategorization_log.json"

const maxLoggedItemRunes = 100

// Miscategorization is one corrected categorization.
type Miscategorization struct {
	Timestamp         string `json:"timestamp"`
	Item              string `json:"item"`
	OriginalCategory  string `json:"original_category"`
	CorrectedCategory string `json:"corrected_category"`
}

type miscategorizationFile struct {
	Runs  []any               `json:"runs"`
	Items []Miscategorization `json:"items"`
}

// MiscategorizationLog appends corrections to a JSON file for later review
// of recurring classifier mistakes.
type MiscategorizationLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewMiscategorizationLog creates a log at path.
func NewMiscategorizationLog(path string) *MiscategorizationLog {
	return &MiscategorizationLog{path: path, now: time.Now}
}

// Record appends one correction.
func (l *MiscategorizationLog) Record(item, original, corrected string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file := miscategorizationFile{Runs: []any{}, Items: []Miscategorization{}}
	if _, err := ReadJSON(l.path, &file); err != nil {
		return err
	}
	if runes := []rune(item); len(runes) > maxLoggedItemRunes {
		item = string(runes[:maxLoggedItemRunes])
	}
	file.Items = append(file.Items, Miscategorization{
		Timestamp:         l.now().Format(time.RFC3339),
		Item:              item,
		OriginalCategory:  original,
		CorrectedCategory: corrected,
	})
	return WriteJSONAtomic(l.path, file)
}

// Entries returns every logged correction.
func (l *MiscategorizationLog) Entries() ([]Miscategorization, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var file miscategorizationFile
	if _, err := ReadJSON(l.path, &file); err != nil {
		return nil, err
	}
	return file.Items, nil
}
