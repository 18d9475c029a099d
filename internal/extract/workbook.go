package extract

import (
	"fmt"
	"os"

	"github.com/ppiankov/clauseflag/internal/apperr"
	"github.com/xuri/excelize/v2"
)

// Workbook is a read-only view of a spreadsheet: ordered sheet names and
// the cell text of each row.
type Workbook interface {
	SheetNames() []string
	SheetRows(sheet string) ([][]string, error)
	Close() error
}

// ExcelWorkbook reads .xlsx/.xlsm containers.
type ExcelWorkbook struct {
	path string
	file *excelize.File
}

// OpenWorkbook opens the workbook at path.
// A missing file yields CodeResourceNotFound; anything excelize cannot open
// as a spreadsheet container yields CodeInvalidFormat.
func OpenWorkbook(path string) (*ExcelWorkbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Unreadable counts as not found: there is nothing to extract from.
		return nil, apperr.NotFound(path, err)
	}
	if info.IsDir() {
		return nil, apperr.InvalidFormat(path, fmt.Errorf("is a directory"))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.InvalidFormat(path, err)
	}

	return &ExcelWorkbook{path: path, file: f}, nil
}

// SheetNames returns sheet names in workbook order.
func (w *ExcelWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// SheetRows returns every row of sheet as cell text. Trailing empty cells
// may be omitted, so callers must bounds-check column access.
func (w *ExcelWorkbook) SheetRows(sheet string) ([][]string, error) {
	rows, err := w.file.Rows(sheet)
	if err != nil {
		return nil, apperr.InvalidFormat(w.path, fmt.Errorf("sheet %q: %w", sheet, err))
	}
	defer func() { _ = rows.Close() }()

	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, apperr.InvalidFormat(w.path, fmt.Errorf("sheet %q row %d: %w", sheet, len(out)+1, err))
		}
		out = append(out, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, apperr.InvalidFormat(w.path, fmt.Errorf("sheet %q: %w", sheet, err))
	}

	return out, nil
}

// Close releases the underlying file.
func (w *ExcelWorkbook) Close() error {
	return w.file.Close()
}

// Sheet is a named grid of cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

// StaticWorkbook is an in-memory Workbook.
type StaticWorkbook struct {
	Sheets []Sheet
}

func (w *StaticWorkbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

func (w *StaticWorkbook) SheetRows(sheet string) ([][]string, error) {
	for _, s := range w.Sheets {
		if s.Name == sheet {
			return s.Rows, nil
		}
	}
	return nil, apperr.New(apperr.CodeInvalidFormat, fmt.Sprintf("no sheet named %q", sheet))
}

func (w *StaticWorkbook) Close() error {
	return nil
}
