package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/domain/orderhistory"
)

// CategoryDescriptions are per-category hints kept next to the budget.
type CategoryDescriptions struct {
	Descriptions map[string]string
	Excluded     []string
}

// ReadCategoryDescriptions reads a category,description,exclude CSV. A
// missing file yields empty descriptions. Any exclude value other than
// empty, "no", "false" or "0" excludes the category.
func ReadCategoryDescriptions(path string) (*CategoryDescriptions, error) {
	out := &CategoryDescriptions{Descriptions: make(map[string]string)}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := orderhistory.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, row := range rows {
		name := strings.TrimSpace(row["category"])
		if name == "" {
			continue
		}
		if d := strings.TrimSpace(row["description"]); d != "" {
			out.Descriptions[name] = d
		}
		switch strings.ToLower(strings.TrimSpace(row["exclude"])) {
		case "", "no", "false", "0":
		default:
			out.Excluded = append(out.Excluded, name)
		}
	}
	return out, nil
}
