package services

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"attendance-report/internal/models"
	"attendance-report/internal/sheet"
)

// RowError ties a problem to the 1-based data row it came from
type RowError struct {
	Row int    `json:"row"`
	Err error  `json:"-"`
	Msg string `json:"message"`
}

func newRowError(row int, err error) RowError {
	return RowError{Row: row, Err: err, Msg: err.Error()}
}

// BatchResult is the outcome of building one import batch
type BatchResult struct {
	Records  []models.AttendanceRecord
	Rejected []RowError
	Warnings []RowError
}

// BuildRecord assembles a record from one normalized row.
// Only a missing employee name rejects the row (ValidationError). A blank or unreadable
// date or punch degrades to not recorded and comes back as a ConversionError warning;
// an undated record keys as "<name>_".
func BuildRecord(row map[string]any) (models.AttendanceRecord, []error) {
	name := sheet.CellString(row[sheet.FieldEmployee])
	if name == "" {
		return models.AttendanceRecord{}, []error{&models.ValidationError{
			Field:   sheet.FieldEmployee,
			Message: "employee name is required",
		}}
	}

	var warnings []error
	date, err := sheet.ConvertDate(row[sheet.FieldDate])
	switch {
	case err != nil:
		warnings = append(warnings, err)
	case date.IsZero():
		warnings = append(warnings, &models.ConversionError{
			Field: sheet.FieldDate,
			Value: sheet.CellString(row[sheet.FieldDate]),
		})
	}

	rec := models.NewAttendanceRecord(name, date)
	if dept := sheet.CellString(row[sheet.FieldDepartment]); dept != "" {
		rec.SetDepartment(dept)
	}

	for i, field := range sheet.SlotFields {
		raw, ok := row[field]
		if !ok {
			continue
		}
		c, err := sheet.ConvertTime(field, raw)
		if err != nil {
			warnings = append(warnings, err)
		}
		rec.SetSlot(models.Slot(i), c)
	}
	return rec, warnings
}

type builtRow struct {
	rec  models.AttendanceRecord
	errs []error
}

// BuildBatch builds every row independently. Rows are processed in parallel; results keep input order.
// Rows sharing an id collapse last-write-wins, the survivor taking the first occurrence's position.
func BuildBatch(rows []map[string]any) BatchResult {
	built := make([]builtRow, len(rows))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, raw := range rows {
		g.Go(func() error {
			rec, errs := BuildRecord(sheet.NormalizeRow(raw))
			built[i] = builtRow{rec: rec, errs: errs}
			return nil
		})
	}
	_ = g.Wait()

	var result BatchResult
	position := make(map[string]int)
	for i, b := range built {
		rowNo := i + 1
		rejected := false
		for _, err := range b.errs {
			var vErr *models.ValidationError
			if errors.As(err, &vErr) {
				vErr.Row = rowNo
				rejected = true
				result.Rejected = append(result.Rejected, newRowError(rowNo, vErr))
				continue
			}
			var cErr *models.ConversionError
			if errors.As(err, &cErr) {
				cErr.Row = rowNo
			}
			result.Warnings = append(result.Warnings, newRowError(rowNo, err))
		}
		if rejected {
			continue
		}
		if at, ok := position[b.rec.ID]; ok {
			result.Records[at] = b.rec
			continue
		}
		position[b.rec.ID] = len(result.Records)
		result.Records = append(result.Records, b.rec)
	}
	return result
}
