package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/charliesneath/ynab-toolkit/internal/application/itemize"
	"github.com/charliesneath/ynab-toolkit/internal/application/sync"
)

var (
	headerColor = color.New(color.BgBlue, color.FgWhite)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed, color.Bold)
)

// printHeader prints the command banner.
func printHeader(w io.Writer, command string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	headerColor.Fprintf(w, " itemize %s ", command)
	fmt.Fprintf(w, " (%s mode)\n\n", mode)
}

// newProgressBar returns a bar on w sized to total charges.
func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// printProcessSummary prints the result of a process run.
func printProcessSummary(w io.Writer, result *itemize.Result, dryRun bool) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Processed=%d Itemized=%d Grocery=%d Tips=%d Skipped=%d\n",
		result.Processed, result.Itemized, result.Grocery, result.Tips, result.Skipped)
	fmt.Fprintf(w, "Cached=%d LowConfidence=%d\n", result.Cached, result.LowConfidence)

	if attention := result.NotFound + result.NoShipmentMatch; attention > 0 {
		warnColor.Fprintf(w, "Needs manual itemization: %d (no order or not in history: %d, no shipment match: %d)\n",
			attention, result.NotFound, result.NoShipmentMatch)
	}
	if result.PendingCategories > 0 {
		warnColor.Fprintf(w, "Waiting on categories: %d (retried next run)\n", result.PendingCategories)
	}
	printErrors(w, result.Failed, result.Errors)

	switch {
	case dryRun:
		fmt.Fprintln(w, "\nDry run: nothing was stored.")
	case result.Processed > 0 && result.Failed == 0:
		okColor.Fprintln(w, "\nRecords stored. Run `itemize sync` to write them to YNAB.")
	}
}

// printSyncSummary prints the result of a sync run.
func printSyncSummary(w io.Writer, stats *sync.Stats, dryRun bool) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Processed=%d Created=%d Updated=%d Skipped=%d Duplicates=%d\n",
		stats.Processed, stats.Created, stats.Updated, stats.Skipped, stats.Duplicates)
	printErrors(w, stats.Failed, stats.Errors)

	switch {
	case dryRun:
		fmt.Fprintln(w, "\nDry run: nothing was written to YNAB.")
	case stats.Failed == 0:
		okColor.Fprintln(w, "\nSync completed successfully.")
	}
}

func printErrors(w io.Writer, failed int, errs []error) {
	if failed == 0 && len(errs) == 0 {
		return
	}
	errColor.Fprintf(w, "Failed: %d\n", failed)
	for _, err := range errs {
		fmt.Fprintf(w, "  - %v\n", err)
	}
}
