package mcu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mcu/mcu/internal/domain/report"
)

const (
	sheetPeserta = "Peserta"
	sheetHasil   = "Hasil MCU"
	dateLayout   = "2006-01-02"
	exportPage   = 100
)

// ImportHeader is the participant registration template.
var ImportHeader = []string{
	"Nama", "Jenis Kelamin", "Usia", "No Pegawai", "Perusahaan", "Tanggal MCU", "Paket",
}

// ExportHeader is the result summary sheet.
var ExportHeader = []string{
	"Nama", "Jenis Kelamin", "Usia", "No Pegawai", "Perusahaan", "Tanggal MCU", "Paket",
	"Tensi Sistol", "Kolesterol Total", "HDL", "Merokok", "Obat Hipertensi",
	"Skor Framingham", "Risiko (%)", "Kategori Risiko", "Usia Vaskular",
}

var exportWidths = []float64{28, 14, 8, 16, 24, 14, 32, 12, 16, 8, 10, 16, 16, 12, 16, 14}

// ImportTemplate returns an empty registration workbook.
func ImportTemplate() ([]byte, error) {
	return writeWorkbook(sheetPeserta, ImportHeader, nil, nil)
}

// ExportRecords writes every record matching params to a workbook.
func (s *Service) ExportRecords(ctx context.Context, params map[string]string) ([]byte, error) {
	var rows [][]interface{}
	for offset := 0; ; offset += exportPage {
		items, total, err := s.SearchRecords(ctx, params, exportPage, offset)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		for _, rec := range items {
			rows = append(rows, exportRow(rec))
		}
		if len(items) == 0 || offset+exportPage >= total {
			break
		}
	}
	return writeWorkbook(sheetHasil, ExportHeader, exportWidths, rows)
}

func exportRow(rec *Record) []interface{} {
	labels := make([]string, 0, len(rec.Packages))
	for _, p := range rec.Packages {
		if entry, ok := report.LookupPackage(p); ok {
			labels = append(labels, entry.Label)
		} else {
			labels = append(labels, p)
		}
	}
	var examDate interface{}
	if rec.ExamDate != nil {
		examDate = rec.ExamDate.Format(dateLayout)
	}
	return []interface{}{
		rec.PatientName, rec.Gender, intCell(rec.Age), strCell(rec.EmployeeNo), strCell(rec.Company),
		examDate, strings.Join(labels, ", "),
		floatCell(rec.PhysicalExam.TensiSistol), floatCell(rec.Lab.KolesterolTotal), floatCell(rec.Lab.HDL),
		boolCell(rec.HealthHistory.Merokok), boolCell(rec.HealthHistory.ObatHipertensi),
		intCell(rec.Score), strCell(rec.FraminghamRiskPercentage), strCell(rec.FraminghamRiskCategory),
		intCell(rec.FraminghamVascularAge),
	}
}

func writeWorkbook(sheet string, headers []string, widths []float64, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		if col < len(widths) {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return nil, fmt.Errorf("set column width: %w", err)
			}
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RowError describes one rejected spreadsheet row (1-based, header is row 1).
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportSummary lists the created records, the rejected rows and, as
// Warnings, rows that were created with packages outside the catalog.
type ImportSummary struct {
	Created  []*Record  `json:"created"`
	Errors   []RowError `json:"errors,omitempty"`
	Warnings []RowError `json:"warnings,omitempty"`
}

// ImportRecords registers participants from the first sheet of a workbook laid
// out as ImportHeader. Bad rows are reported and skipped.
func (s *Service) ImportRecords(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	summary := &ImportSummary{}
	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}
		var unknown []string
		rec, err := parseImportRow(row)
		if err == nil {
			unknown, err = s.save(ctx, rec, s.records.Create)
		}
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Row: i + 1, Error: err.Error()})
			continue
		}
		if len(unknown) > 0 {
			summary.Warnings = append(summary.Warnings, RowError{
				Row:   i + 1,
				Error: fmt.Sprintf("unknown packages kept without sections: %s", strings.Join(unknown, ", ")),
			})
		}
		summary.Created = append(summary.Created, rec)
	}
	return summary, nil
}

func parseImportRow(row []string) (*Record, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rec := &Record{PatientName: col(0), Gender: col(1)}
	if v := col(2); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid age %q", ErrValidation, v)
		}
		rec.Age = &age
	}
	if v := col(3); v != "" {
		rec.EmployeeNo = &v
	}
	if v := col(4); v != "" {
		rec.Company = &v
	}
	if v := col(5); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid exam date %q", ErrValidation, v)
		}
		rec.ExamDate = &d
	}
	for _, p := range strings.Split(col(6), ",") {
		if p = strings.TrimSpace(p); p != "" {
			rec.Packages = append(rec.Packages, p)
		}
	}
	return rec, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func strCell(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func intCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolCell(v *bool) interface{} {
	if v == nil {
		return nil
	}
	if *v {
		return "Ya"
	}
	return "Tidak"
}
