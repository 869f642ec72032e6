package orderhistory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Order ID,Product Name,Total Owed,Ship Date,Quantity,Shipping Option,Unit Price
112-0000001-0000001,USB Cable,'$12.00',2025-01-04T14:02:10Z,1,standard,12.00
112-0000001-0000001,Desk Lamp,"$1,020.50",2025-01-02T09:00:00Z,1,standard,1020.50
112-0000001-0000001,Batteries,8.00,2025-01-04T20:00:00Z,2,standard,4.00
112-0000001-0000001,Mystery,5.00,Not Available,1,standard,5.00
112-0000002-0000002,Bananas,3.00,2025-01-05T10:00:00Z,1,scheduled-houdini,3.00
112-0000002-0000002,Milk,4.50,2025-01-05T10:00:00Z,1,scheduled-one-houdini,4.50
112-0000003-0000003,Apples,2.00,2025-01-05T10:00:00Z,1,scheduled-houdini,2.00
112-0000003-0000003,Toaster,30.00,2025-01-06T10:00:00Z,1,standard,30.00
,Orphan,9.99,2025-01-05T10:00:00Z,1,standard,9.99
112-0000004-0000004,Free Sample,0.00,2025-01-05T10:00:00Z,1,standard,0.00
112-0000004-0000004,No Price,,2025-01-05T10:00:00Z,1,standard,
`

func loadSample(t *testing.T) *Index {
	t.Helper()
	idx, err := LoadCSV(DefaultAliases, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return idx
}

func TestLoad_GroupsItemsIntoShipmentsByDate(t *testing.T) {
	// Arrange & Act
	idx := loadSample(t)

	// Assert
	order, ok := idx.Lookup("112-0000001-0000001")
	require.True(t, ok)
	require.Len(t, order.Shipments, 3)
	assert.Len(t, order.Items, 4)

	assert.Equal(t, "2025-01-02", order.Shipments[0].Key())
	assert.True(t, order.Shipments[0].Total.Equal(decimal.RequireFromString("1020.50")))

	assert.Equal(t, "2025-01-04", order.Shipments[1].Key())
	assert.Len(t, order.Shipments[1].Items, 2)
	assert.True(t, order.Shipments[1].Total.Equal(decimal.NewFromInt(20)))

	assert.Equal(t, "unknown", order.Shipments[2].Key())
	assert.False(t, order.Shipments[2].HasDate())
}

func TestLoad_ShipmentTotalEqualsItemSum(t *testing.T) {
	idx := loadSample(t)
	order, _ := idx.Lookup("112-0000001-0000001")

	for _, s := range order.Shipments {
		sum := decimal.Zero
		for _, item := range s.Items {
			sum = sum.Add(item.TotalOwed)
		}
		assert.True(t, sum.Equal(s.Total), "shipment %s", s.Key())
	}
}

func TestLoad_DropsRowsWithoutOrderIDOrPrice(t *testing.T) {
	idx := loadSample(t)

	assert.Equal(t, 3, idx.Dropped())
	_, ok := idx.Lookup("112-0000004-0000004")
	assert.False(t, ok)
	assert.Equal(t, 3, idx.Len())
}

func TestLoad_GroceryClassification(t *testing.T) {
	idx := loadSample(t)

	grocery, _ := idx.Lookup("112-0000002-0000002")
	assert.True(t, grocery.IsGrocery)
	assert.True(t, grocery.Shipments[0].IsGrocery)

	mixed, _ := idx.Lookup("112-0000003-0000003")
	assert.False(t, mixed.IsGrocery)
	assert.True(t, mixed.Shipments[0].IsGrocery)
	assert.False(t, mixed.Shipments[1].IsGrocery)
}

func TestLoad_ParsesQuantityAndUnitPrice(t *testing.T) {
	idx := loadSample(t)
	order, _ := idx.Lookup("112-0000001-0000001")

	var batteries OrderItem
	for _, item := range order.Items {
		if item.Name == "Batteries" {
			batteries = item
		}
	}
	assert.Equal(t, 2, batteries.Quantity)
	assert.True(t, batteries.UnitPrice.Equal(decimal.NewFromInt(4)))
}

func TestLookup_MissingOrder(t *testing.T) {
	idx := loadSample(t)

	order, ok := idx.Lookup("999-9999999-9999999")

	assert.False(t, ok)
	assert.Nil(t, order)
}

func TestLoad_UsesAliasSynonyms(t *testing.T) {
	rows := []map[string]string{
		{"order_id": "111-1111111-1111111", "Title": "Book", "Item Total": "$15.00", "Shipment Date": "2025-03-01"},
	}

	idx := Load(rows, DefaultAliases)

	order, ok := idx.Lookup("111-1111111-1111111")
	require.True(t, ok)
	assert.Equal(t, "Book", order.Items[0].Name)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), order.Shipments[0].ShipDate)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "$1,234.56", want: "1234.56"},
		{in: "'12.00'", want: "12"},
		{in: " 7 ", want: "7"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseShipDate_NormalizesToUTCDate(t *testing.T) {
	got, err := ParseShipDate("2025-01-04T23:30:00-05:00")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), got)
}

func TestFindFiles_MatchesPatternAndSkipsMissingDirs(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "2024")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Retail.OrderHistory.1.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Retail.OrderHistory.2.csv"), []byte(sampleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Returns.csv"), []byte("x"), 0o644))

	files, err := FindFiles([]string{dir, filepath.Join(dir, "missing")}, "")

	require.NoError(t, err)
	assert.Len(t, files, 2)

	idx, loaded, err := LoadDirs([]string{dir}, DefaultFilePattern, nil)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	order, _ := idx.Lookup("112-0000002-0000002")
	assert.Len(t, order.Items, 4)
}
