package sheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const (
	// maxXLSRows bounds how many rows are read from a legacy workbook
	maxXLSRows = 100000
	// maxXLSCols is the BIFF8 column limit
	maxXLSCols = 256
)

// ReadRows reads the first worksheet of an .xlsx or .xls upload.
// The first row holds headers; every following non-empty row becomes a header -> raw value map.
// .xlsx cell values are raw (unformatted) so date and time serials survive; see readXLSSheet for .xls.
func ReadRows(reader io.Reader, filename string) ([]map[string]any, error) {
	grid, err := readGrid(reader, filename)
	if err != nil {
		return nil, err
	}
	return GridToRows(grid), nil
}

func readGrid(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook == nil || workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows := readXLSSheet(workbook.GetSheet(0))
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}

		rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

// readXLSSheet reads one legacy worksheet. Cells come back as the library formats them:
// general numbers stay raw, cells with a date format come back as date strings.
func readXLSSheet(ws *xls.WorkSheet) [][]string {
	if ws == nil {
		return nil
	}
	header := xlsRow(ws, 0)
	if header == nil {
		return nil
	}

	width := 0
	first := make([]string, maxXLSCols)
	for c := range first {
		first[c] = header.Col(c)
		if strings.TrimSpace(first[c]) != "" {
			width = c + 1
		}
	}
	if width == 0 {
		return nil
	}

	last := int(ws.MaxRow)
	if last >= maxXLSRows {
		last = maxXLSRows - 1
	}
	grid := [][]string{first[:width]}
	for i := 1; i <= last; i++ {
		row := xlsRow(ws, i)
		if row == nil {
			continue
		}
		cells := make([]string, width)
		for c := range cells {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}
	return grid
}

// xlsRow returns nil for rows the sheet does not have; xls.WorkSheet.Row panics on them
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// GridToRows pairs each data row with the header row. Columns with a blank header are dropped,
// missing trailing cells read as "".
func GridToRows(grid [][]string) []map[string]any {
	if len(grid) == 0 {
		return nil
	}
	headers := grid[0]
	var out []map[string]any
	for _, cells := range grid[1:] {
		if blankRow(cells) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			row[h] = cellValue(cells, i)
		}
		out = append(out, row)
	}
	return out
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
