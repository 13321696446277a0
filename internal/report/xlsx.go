package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/logger"
)

// DefaultSheetName is used when none is configured
const DefaultSheetName = "Value Strategy"

// ReturnsSheetName holds the equal vs tiered comparison
const ReturnsSheetName = "Returns"

// cell formats
const (
	fmtString = iota
	fmtDollar
	fmtInteger
	fmtFloat
	fmtPercent
)

type column struct {
	header string
	format int
	value  func(*contracts.SecurityRecord) interface{}
}

// columns follows the spreadsheet layout of the original value strategy report
func columns() []column {
	cols := []column{
		{"Ticker", fmtString, func(r *contracts.SecurityRecord) interface{} { return r.Ticker }},
		{"Price", fmtDollar, func(r *contracts.SecurityRecord) interface{} { return r.Price }},
		{"Number of Shares to Buy", fmtInteger, func(r *contracts.SecurityRecord) interface{} { return r.Shares() }},
	}
	for _, m := range contracts.AllMetrics() {
		m := m
		cols = append(cols,
			column{m.DisplayName(), fmtFloat, func(r *contracts.SecurityRecord) interface{} {
				if v, ok := r.MetricValue(m); ok {
					return v
				}
				return nil
			}},
			column{m.PercentileName(), fmtPercent, func(r *contracts.SecurityRecord) interface{} {
				if p, ok := r.Percentiles[m]; ok {
					return p
				}
				return nil
			}},
		)
	}
	cols = append(cols, column{"RV Score", fmtPercent, func(r *contracts.SecurityRecord) interface{} {
		if s, ok := r.Score(); ok {
			return s
		}
		return nil
	}})

	returnHeaders := map[contracts.Horizon]string{
		contracts.Horizon1Y: "One-Year Price Return",
		contracts.Horizon6M: "Six-Month Price Return",
		contracts.Horizon3M: "Three-Month Price Return",
		contracts.Horizon1M: "One-Month Price Return",
	}
	for _, h := range []contracts.Horizon{contracts.Horizon1Y, contracts.Horizon6M, contracts.Horizon3M, contracts.Horizon1M} {
		h := h
		cols = append(cols, column{returnHeaders[h], fmtPercent, func(r *contracts.SecurityRecord) interface{} {
			return r.PriceReturns[h]
		}})
	}
	return cols
}

// Headers returns the main sheet header row
func Headers() []string {
	cols := columns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	return headers
}

// XLSXWriter exports the selected universe to a formatted workbook
// ⭐ SSOT: 스프레드시트 출력은 여기서만
type XLSXWriter struct {
	sheetName string
	logger    *logger.Logger
}

// NewXLSXWriter creates a writer; empty sheetName uses DefaultSheetName
func NewXLSXWriter(sheetName string, log *logger.Logger) *XLSXWriter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &XLSXWriter{
		sheetName: sheetName,
		logger:    log.WithField("module", "xlsx"),
	}
}

// Save writes the workbook to path
func (w *XLSXWriter) Save(path string, selected *contracts.Universe, returns *contracts.ReturnComparison) error {
	f, err := w.build(selected, returns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": selected.Count(),
	}).Info("Workbook saved")
	return nil
}

// Write streams the workbook to out
func (w *XLSXWriter) Write(out io.Writer, selected *contracts.Universe, returns *contracts.ReturnComparison) error {
	f, err := w.build(selected, returns)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *XLSXWriter) build(selected *contracts.Universe, returns *contracts.ReturnComparison) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", w.sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := w.writeRecords(f, styles, selected); err != nil {
		f.Close()
		return nil, err
	}
	if returns != nil {
		if err := w.writeReturns(f, styles, returns); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func (w *XLSXWriter) writeRecords(f *excelize.File, styles map[int]int, selected *contracts.Universe) error {
	cols := columns()
	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(w.sheetName, name, name, 25); err != nil {
			return err
		}
		if err := f.SetColStyle(w.sheetName, name, styles[c.format]); err != nil {
			return err
		}
		if err := setCell(f, w.sheetName, i+1, 1, c.header, styles[fmtString]); err != nil {
			return err
		}
	}

	if selected == nil {
		return nil
	}
	for row, rec := range selected.Records {
		for i, c := range cols {
			if err := setCell(f, w.sheetName, i+1, row+2, c.value(rec), styles[c.format]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *XLSXWriter) writeReturns(f *excelize.File, styles map[int]int, returns *contracts.ReturnComparison) error {
	if _, err := f.NewSheet(ReturnsSheetName); err != nil {
		return err
	}
	if err := f.SetColWidth(ReturnsSheetName, "A", "C", 25); err != nil {
		return err
	}

	tieredLabel := fmt.Sprintf("Top %d at %.0f%%", returns.TopCount, returns.TopWeight*100)
	for i, h := range []string{"Horizon", "Equal Weight", tieredLabel} {
		if err := setCell(f, ReturnsSheetName, i+1, 1, h, styles[fmtString]); err != nil {
			return err
		}
	}
	for i, h := range contracts.AllHorizons() {
		row := i + 2
		if err := setCell(f, ReturnsSheetName, 1, row, h.Label(), styles[fmtString]); err != nil {
			return err
		}
		if err := setCell(f, ReturnsSheetName, 2, row, returns.Equal[h], styles[fmtPercent]); err != nil {
			return err
		}
		if err := setCell(f, ReturnsSheetName, 3, row, returns.Tiered[h], styles[fmtPercent]); err != nil {
			return err
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if value != nil {
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func newStyles(f *excelize.File) (map[int]int, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	numFmts := map[int]string{
		fmtString:  "",
		fmtDollar:  "$0.00",
		fmtInteger: "0",
		fmtFloat:   "0.0",
		fmtPercent: "0.0%",
	}

	styles := make(map[int]int, len(numFmts))
	for kind, numFmt := range numFmts {
		style := &excelize.Style{
			Border: border,
			Font:   &excelize.Font{Color: "000000"},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFFFFF"}, Pattern: 1},
		}
		if numFmt != "" {
			nf := numFmt
			style.CustomNumFmt = &nf
		}
		id, err := f.NewStyle(style)
		if err != nil {
			return nil, fmt.Errorf("create style %q: %w", numFmt, err)
		}
		styles[kind] = id
	}
	return styles, nil
}
