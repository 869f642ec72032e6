package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/logging"
)

// isolate points every path the commands touch at a temp dir.
func isolate(t *testing.T, cacheBackend string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ITEMIZE_DB_PATH", filepath.Join(dir, "db", "itemize.db"))
	t.Setenv("ITEMIZE_DATA_DIR", dir)
	t.Setenv("ITEMIZE_CACHE_BACKEND", cacheBackend)
	t.Setenv("YNAB_TOKEN", "")
	t.Setenv("YNAB_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", filepath.Join(dir, "missing.env"),
	}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCacheCommands(t *testing.T) {
	for _, backend := range []string{"sqlite", "json"} {
		t.Run(backend, func(t *testing.T) {
			// Arrange
			dir := isolate(t, backend)

			// Act
			setOut, setErr := execute(t, dir, "cache", "set", "  USB-C Cable ", "Electronics")
			getOut, getErr := execute(t, dir, "cache", "get", "usb-c cable")
			_, missingErr := execute(t, dir, "cache", "get", "garden hose")

			// Assert
			require.NoError(t, setErr)
			assert.Contains(t, setOut, "usb-c cable -> Electronics")
			require.NoError(t, getErr)
			assert.Contains(t, getOut, "usb-c cable -> Electronics")
			assert.Error(t, missingErr)
		})
	}
}

func TestCacheCommands_JSONBackendWritesFile(t *testing.T) {
	dir := isolate(t, "json")

	_, err := execute(t, dir, "cache", "set", "Dish Soap", "Household Supplies")

	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "category_cache.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dish soap")
}

func TestCacheSet_RejectsEmptyCategory(t *testing.T) {
	dir := isolate(t, "sqlite")

	_, err := execute(t, dir, "cache", "set", "Dish Soap", " ")

	assert.Error(t, err)
}

func TestReportCommand_Offline(t *testing.T) {
	dir := isolate(t, "sqlite")
	outPath := filepath.Join(dir, "report.csv")

	_, err := execute(t, dir, "report", "--offline", "--out", outPath)

	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Order ID,Amount"))
}

func TestSyncCommand_NothingStored(t *testing.T) {
	dir := isolate(t, "sqlite")

	out, err := execute(t, dir, "sync", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "No stored records")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	dir := isolate(t, "redis")

	_, err := execute(t, dir, "cache", "get", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_backend")
}

func TestProcessFlags_ToOptions(t *testing.T) {
	tests := []struct {
		name      string
		flags     processFlags
		wantSince time.Time
		wantErr   bool
	}{
		{name: "no filters", flags: processFlags{}},
		{
			name:      "date range",
			flags:     processFlags{since: "2025-01-01", until: "2025-01-31", orderID: "111-0000001-0000001"},
			wantSince: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "bad date", flags: processFlags{since: "01/01/2025"}, wantErr: true},
		{name: "inverted range", flags: processFlags{since: "2025-02-01", until: "2025-01-01"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.flags.toOptions()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSince, opts.Since)
			assert.Equal(t, tt.flags.orderID, opts.OrderID)
		})
	}
}

func TestReadStatements(t *testing.T) {
	dir := t.TempDir()
	register := filepath.Join(dir, "register.csv")
	content := "Date,Payee,Memo,Outflow,Inflow\n" +
		"01/10/2025,Amazon.com,Order: 111-0000001-0000001,$140.00,\n" +
		"01/11/2025,Target,,$9.00,\n"
	require.NoError(t, os.WriteFile(register, []byte(content), 0o644))

	charges, err := readStatements([]string{register}, logging.Discard())

	require.NoError(t, err)
	require.Len(t, charges, 2)
	assert.Equal(t, "111-0000001-0000001", charges[0].OrderID)
	assert.Equal(t, "-140.00", charges[0].Amount.StringFixed(2))

	_, err = readStatements([]string{filepath.Join(dir, "missing.csv")}, logging.Discard())
	assert.Error(t, err)
}
