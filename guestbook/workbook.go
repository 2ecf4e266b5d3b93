package guestbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName       = "Guestbook"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headerRow = []any{"Timestamp", "Name", "Message"}

// workbook wraps the xlsx document holding the guestbook. Row 1 is
// always the header, entries start at row 2.
type workbook struct {
	f     *excelize.File
	sheet string
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()

	err := f.SetSheetName("Sheet1", sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to name sheet, %w", err)
	}

	err = f.SetSheetRow(sheetName, "A1", &headerRow)
	if err != nil {
		return nil, fmt.Errorf("failed to write header row, %w", err)
	}

	return &workbook{f: f, sheet: sheetName}, nil
}

func loadWorkbook(data []byte) (*workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode document, %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("document has no sheets")
	}

	return &workbook{f: f, sheet: sheets[0]}, nil
}

func (w *workbook) appendRow(timestamp, name, message string) error {
	rows, err := w.f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows, %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	return w.f.SetSheetRow(w.sheet, cell, &[]any{timestamp, name, message})
}

// rows returns every row of the sheet, header included.
func (w *workbook) rows() ([][]string, error) {
	return w.f.GetRows(w.sheet)
}

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document, %w", err)
	}

	return buf.Bytes(), nil
}

func (w *workbook) close() {
	w.f.Close()
}
