package orderhistory

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultFilePattern is the substring order-history export file names contain.
const DefaultFilePattern = "OrderHistory"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header-keyed CSV export into raw rows. A leading UTF-8
// byte order mark is dropped.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadCSV builds an Index from one or more CSV exports.
func LoadCSV(aliases AliasTable, readers ...io.Reader) (*Index, error) {
	var all []map[string]string
	for _, r := range readers {
		rows, err := ReadCSV(r)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return Load(all, aliases), nil
}

// FindFiles walks dirs for CSV files whose name contains pattern.
// Missing directories are skipped. Results are sorted for stable loading.
func FindFiles(dirs []string, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}

	var files []string
	for _, dir := range dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if !d.IsDir() && strings.Contains(name, pattern) && strings.HasSuffix(strings.ToLower(name), ".csv") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDirs finds every order-history export under dirs and indexes them together.
func LoadDirs(dirs []string, pattern string, aliases AliasTable) (*Index, []string, error) {
	files, err := FindFiles(dirs, pattern)
	if err != nil {
		return nil, nil, err
	}

	var all []map[string]string
	for _, path := range files {
		rows, err := readFile(path)
		if err != nil {
			return nil, nil, err
		}
		all = append(all, rows...)
	}
	return Load(all, aliases), files, nil
}

func readFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
