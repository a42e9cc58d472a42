// Package export renders project finance reports as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"go-project-finance/internal/database"
)

const sheetName = "Projects"

var header = []any{"Code", "Name", "Client", "Status", "Locked", "Revenue", "Expense", "Billed", "Collected", "Outstanding", "Profit"}

// firstMoneyCol is the 1-based column of "Revenue".
const firstMoneyCol = 6

// ProjectSummaries writes one row per project plus a totals row.
func ProjectSummaries(w io.Writer, rows []database.ProjectSummary, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	boldMoney, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheetName, "A1", "Project finance report, generated "+generated.Format("2006-01-02 15:04")); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A3", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheetName, "A3", lastCol+"3", bold); err != nil {
		return err
	}

	totals := make([]decimal.Decimal, len(header)-firstMoneyCol+1)
	for i, s := range rows {
		r := i + 4
		amounts := []decimal.Decimal{s.Revenue, s.Expense, s.Billed, s.Collected, s.Outstanding, s.Profit}
		values := []any{s.Code, s.Name, s.Client, string(s.Status), yesNo(s.IsLocked)}
		for j, a := range amounts {
			values = append(values, a.InexactFloat64())
			totals[j] = totals[j].Add(a)
		}
		cell := fmt.Sprintf("A%d", r)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		if err := styleMoney(f, r, money); err != nil {
			return err
		}
	}

	totalRow := len(rows) + 4
	values := []any{"TOTAL", "", "", "", ""}
	for _, t := range totals {
		values = append(values, t.InexactFloat64())
	}
	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", totalRow), &values); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("E%d", totalRow), bold); err != nil {
		return err
	}
	if err := styleMoney(f, totalRow, boldMoney); err != nil {
		return err
	}

	if err := f.SetColWidth(sheetName, "B", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "F", lastCol, 14); err != nil {
		return err
	}

	return f.Write(w)
}

func styleMoney(f *excelize.File, row, style int) error {
	from, _ := excelize.CoordinatesToCellName(firstMoneyCol, row)
	to, _ := excelize.CoordinatesToCellName(len(header), row)
	return f.SetCellStyle(sheetName, from, to, style)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
