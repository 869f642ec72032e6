package filestore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
)

const (
	reportMaxItems     = 5
	reportMaxItemRunes = 50
)

var reportHeader = []string{
	"Date", "Order ID", "Amount", "Type", "Status", "Payee",
	"Category Groups", "Categories", "Items", "Last Updated", "Notes",
}

// WriteReport writes one CSV row per record for manual review. groupOf maps
// a category to its group; nil reports every group as "Unknown".
func WriteReport(w io.Writer, records []*splitter.Record, groupOf func(category string) string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(reportRow(r, groupOf)); err != nil {
			return fmt.Errorf("failed to write report row %s: %w", r.ImportID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportFile writes the report to path.
func WriteReportFile(path string, records []*splitter.Record, groupOf func(string) string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := WriteReport(f, records, groupOf); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func reportRow(r *splitter.Record, groupOf func(string) string) []string {
	kind := "Purchase"
	if r.IsRefund {
		kind = "Refund"
	}
	status := "OK"
	if r.NeedsAttention() {
		status = "NEEDS ATTENTION"
	}

	var categories []string
	groups := make(map[string]bool)
	for _, s := range r.Splits {
		if s.Category == "" {
			continue
		}
		categories = append(categories, s.Category)
		group := ""
		if groupOf != nil {
			group = groupOf(s.Category)
		}
		if group == "" {
			group = "Unknown"
		}
		groups[group] = true
	}
	groupNames := make([]string, 0, len(groups))
	for g := range groups {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	lastUpdated := ""
	if !r.UpdatedAt.IsZero() {
		lastUpdated = r.UpdatedAt.Format("2006-01-02 15:04")
	}

	return []string{
		r.Date.Format("2006-01-02"),
		r.OrderID,
		"$" + r.Amount.Abs().StringFixed(2),
		kind,
		status,
		r.Payee,
		strings.Join(groupNames, "; "),
		strings.Join(categories, "; "),
		reportItems(r),
		lastUpdated,
		reportNotes(r),
	}
}

func reportItems(r *splitter.Record) string {
	items := r.Items
	if len(items) == 0 {
		items = r.AllItems
	}
	shown := items
	if len(shown) > reportMaxItems {
		shown = shown[:reportMaxItems]
	}
	parts := make([]string, len(shown))
	for i, item := range shown {
		if runes := []rune(item); len(runes) > reportMaxItemRunes {
			item = string(runes[:reportMaxItemRunes])
		}
		parts[i] = item
	}
	out := strings.Join(parts, "; ")
	if extra := len(items) - len(shown); extra > 0 {
		out += fmt.Sprintf(" (+%d more)", extra)
	}
	return out
}

func reportNotes(r *splitter.Record) string {
	switch {
	case r.Status == splitter.StatusNeedsItemization:
		return "Order not found - need order history export"
	case r.Status == splitter.StatusNoShipmentMatch:
		return "Items found but charge doesn't match - may need manual review"
	case r.Status == splitter.StatusPendingCategories:
		return "Some items not categorized - rerun process"
	case len(r.Splits) == 0:
		return "No splits created"
	case r.LowConfidence:
		return "Best-fit shipment match - check split amounts"
	default:
		return ""
	}
}
