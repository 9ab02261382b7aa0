// Package export renders a user's ledger to CSV or XLSX and ships the file to
// Cloud Storage from the export job queue.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

var header = []string{"Date", "Type", "Amount", "Category", "Description", "From account", "To account", "Tags", "Transaction ID"}

// ContentType returns the MIME type of format.
func ContentType(format jobs.ExportFormat) string {
	if format == jobs.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat validates an export format; empty means CSV.
func ParseFormat(s string) (jobs.ExportFormat, error) {
	switch jobs.ExportFormat(strings.ToLower(s)) {
	case "", jobs.FormatCSV:
		return jobs.FormatCSV, nil
	case jobs.FormatXLSX:
		return jobs.FormatXLSX, nil
	}
	return "", domain.Invalid("format", "must be csv or xlsx")
}

func record(tx *domain.Transaction, accountNames map[string]string) []string {
	name := func(id string) string {
		if id == "" {
			return ""
		}
		if n, ok := accountNames[id]; ok {
			return n
		}
		return id
	}
	return []string{
		tx.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		string(tx.Kind),
		tx.Amount.StringFixed(2),
		tx.CategoryLabel(),
		tx.Description,
		name(tx.FromAccountID),
		name(tx.ToAccountID),
		strings.Join(tx.Metadata.Tags(), ";"),
		tx.ID,
	}
}

// Render writes txs to w in format. accountNames maps account IDs to display
// names; unknown IDs are written as-is.
func Render(w io.Writer, format jobs.ExportFormat, txs []*domain.Transaction, accountNames map[string]string) error {
	switch format {
	case jobs.FormatCSV:
		return renderCSV(w, txs, accountNames)
	case jobs.FormatXLSX:
		return renderXLSX(w, txs, accountNames)
	}
	return fmt.Errorf("Render: unknown format %q", format)
}

func renderCSV(w io.Writer, txs []*domain.Transaction, accountNames map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("renderCSV: writing header: %w", err)
	}
	for _, tx := range txs {
		if err := cw.Write(record(tx, accountNames)); err != nil {
			return fmt.Errorf("renderCSV: writing row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("renderCSV: %w", err)
	}
	return nil
}

func renderXLSX(w io.Writer, txs []*domain.Transaction, accountNames map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renderXLSX: naming sheet: %w", err)
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("renderXLSX: writing header: %w", err)
		}
	}

	for r, tx := range txs {
		row := r + 2
		values := record(tx, accountNames)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			var value interface{} = v
			if c == 2 {
				// Amounts go in as numbers so the sheet can sum them.
				value = tx.Amount.InexactFloat64()
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("renderXLSX: writing row %s: %w", tx.ID, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 20)
	_ = f.SetColWidth(sheetName, "B", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "D", 18)
	_ = f.SetColWidth(sheetName, "E", "E", 30)
	_ = f.SetColWidth(sheetName, "F", "G", 16)
	_ = f.SetColWidth(sheetName, "I", "I", 38)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("renderXLSX: %w", err)
	}
	return nil
}
