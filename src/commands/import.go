package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/username/sbiledger/src/config"
	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/storage"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [pdf...]",
		Short: "Parse statement PDFs and merge them into the master ledger",
		Long: `Parse one or more SBI statement PDFs and merge their transactions into
the cumulative ledger CSV. With no arguments, statement PDFs are picked up
from the downloads directory, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initApp()
			return runImport(args)
		},
	}
}

func runImport(args []string) error {
	pdfPaths := args
	if len(pdfPaths) == 0 {
		found, err := findStatementPDFs(config.Cfg.DownloadsDir)
		if err != nil || len(found) == 0 {
			fmt.Println("No statement PDFs found in", config.Cfg.DownloadsDir)
			fmt.Println("Usage: sbiledger import <pdf1> [pdf2] ...")
			return errors.New("no statement PDFs to import")
		}
		fmt.Printf("Found %d statement PDF(s) in %s:\n\n", len(found), config.Cfg.DownloadsDir)
		pdfPaths = found
	}

	service := newImportService()

	totalNew := 0
	// One bad PDF skips; the rest keep importing.
	for _, path := range pdfPaths {
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("  SKIP: %s (not found)\n", path)
			continue
		}

		fmt.Printf("Parsing: %s\n", filepath.Base(path))
		report, err := service.ImportFile(path)
		if err != nil {
			fmt.Printf("  ERROR: %v\n", err)
			continue
		}

		if report.Period.From != "" && report.Period.To != "" {
			fmt.Printf("  Period: %s to %s  (%d pages)\n", report.Period.From, report.Period.To, report.Pages)
		}
		fmt.Printf("  Found: %d total,  %d new,  %d duplicates skipped\n\n",
			report.Parsed, report.New, report.DuplicatesSkipped)
		totalNew += report.New
	}

	if totalNew == 0 {
		fmt.Println("No new transactions to add.")
		fmt.Println("Master ledger unchanged:", config.Cfg.LedgerPath)
		return nil
	}

	return printLedgerSummary(totalNew)
}

func printLedgerSummary(added int) error {
	store := storage.NewStore(config.Cfg.LedgerPath)
	merged, _, err := store.Load()
	if err != nil {
		return fmt.Errorf("reading back ledger: %w", err)
	}

	totalDr, totalCr := ledgerTotals(merged)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Added %d new transactions\n", added)
	fmt.Println("Master ledger:", config.Cfg.LedgerPath)
	fmt.Printf("  Total: %d  |  Debits: %s  |  Credits: %s\n", len(merged), totalDr.StringFixed(2), totalCr.StringFixed(2))
	if len(merged) > 0 {
		fmt.Printf("  Date range: %s to %s\n", merged[0].PostDate, merged[len(merged)-1].PostDate)
	}
	return nil
}

// ledgerTotals sums the debit and credit columns. Amounts are canonical
// decimal strings by this point; anything unparseable counts as zero.
func ledgerTotals(txns []models.Transaction) (totalDr, totalCr decimal.Decimal) {
	for _, txn := range txns {
		if txn.Debit != "" {
			if d, err := decimal.NewFromString(txn.Debit); err == nil {
				totalDr = totalDr.Add(d)
			}
		}
		if txn.Credit != "" {
			if c, err := decimal.NewFromString(txn.Credit); err == nil {
				totalCr = totalCr.Add(c)
			}
		}
	}
	return totalDr, totalCr
}

// findStatementPDFs lists "*statement*.pdf" files in dir, newest first.
func findStatementPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path  string
		mtime int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".pdf") || !strings.Contains(name, "statement") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:  filepath.Join(dir, entry.Name()),
			mtime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime > candidates[j].mtime })
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.path)
	}
	return paths, nil
}
