package services

import (
	"fmt"
	"io"
	"sort"

	"attendance-report/internal/models"
	"attendance-report/internal/rules"
	"attendance-report/internal/sheet"
)

const (
	GlyphNotRecorded   = "❌"
	GlyphNotApplicable = "—"

	SignatureLeader   = "Xác nhận của lãnh đạo bộ phận"
	SignaturePreparer = "Người lập"

	allDepartmentsLabel = "Tất cả"
)

var weekdayNames = [7]string{"Chủ Nhật", "Hai", "Ba", "Tư", "Năm", "Sáu", "Bảy"}

// WeekdayName returns the Vietnamese weekday label, empty for a zero date
func WeekdayName(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	return weekdayNames[d.Weekday()]
}

// ExportHeaders is the fixed column order shared by the export and the printed table
var ExportHeaders = []string{
	"STT", "Tên nhân viên", "Tên bộ phận", "Ngày", "Thứ",
	"S1", "S2", "Lý do trễ (Sáng)", "C1", "C2", "Lý do trễ (Chiều)",
}

// SlotCell is one rendered punch
type SlotCell struct {
	Value  string       `json:"value"`
	Status rules.Status `json:"status"`
}

// Text returns the display text: the time, or the glyph for a missing or excluded punch
func (c SlotCell) Text() string {
	switch c.Status {
	case rules.StatusNotApplicable:
		return GlyphNotApplicable
	case rules.StatusNotRecorded:
		return GlyphNotRecorded
	}
	return c.Value
}

// ReportRow is one record in a report section
type ReportRow struct {
	No              int                        `json:"no"`
	ID              string                     `json:"id"`
	EmployeeName    string                     `json:"employeeName"`
	Department      string                     `json:"department"`
	Date            string                     `json:"date"`
	Weekday         string                     `json:"weekday"`
	Slots           [models.SlotCount]SlotCell `json:"slots"`
	ReasonMorning   string                     `json:"reasonMorning"`
	ReasonAfternoon string                     `json:"reasonAfternoon"`
}

// Section is one department's part of a report
type Section struct {
	Department      string      `json:"department"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	Rows            []ReportRow `json:"rows"`
	Signatures      [2]string   `json:"signatures"`
	PageBreakBefore bool        `json:"pageBreakBefore"`
}

// Report is the renderable, department-grouped attendance report
type Report struct {
	Title           string    `json:"title"`
	IncludeSaturday bool      `json:"includeSaturday"`
	Sections        []Section `json:"sections"`
}

// MergeReasons copies reason text onto every record that has one
func MergeReasons(records []models.AttendanceRecord, reasons models.ReasonSet) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, len(records))
	for i, rec := range records {
		if r, ok := reasons[rec.ID]; ok {
			rec.ReasonMorning = r.Get(models.ReasonMorning)
			rec.ReasonAfternoon = r.Get(models.ReasonAfternoon)
		}
		out[i] = rec
	}
	return out
}

// MergeReason applies one saved reason to the matching record in place and reports whether it was found
func MergeReason(records []models.AttendanceRecord, id string, reason models.Reason) bool {
	for i := range records {
		if records[i].ID != id {
			continue
		}
		if reason.Morning != nil {
			records[i].ReasonMorning = *reason.Morning
		}
		if reason.Afternoon != nil {
			records[i].ReasonAfternoon = *reason.Afternoon
		}
		return true
	}
	return false
}

// sortedByDate orders a copy by date; undated records go last
func sortedByDate(records []models.AttendanceRecord) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(a, b int) bool {
		da, db := out[a].Date, out[b].Date
		if da.IsZero() || db.IsZero() {
			return !da.IsZero() && db.IsZero()
		}
		return da.Before(db)
	})
	return out
}

// dateRange returns the earliest and latest recorded dates
func dateRange(records []models.AttendanceRecord) (first, last models.Date) {
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		if first.IsZero() || rec.Date.Before(first) {
			first = rec.Date
		}
		if rec.Date.After(last) {
			last = rec.Date
		}
	}
	return first, last
}

// AssembleReport builds one section per department, rows ordered by date.
// The input slice is copied, never reordered.
func AssembleReport(
	records []models.AttendanceRecord,
	departmentLabel string,
	includeSaturday bool,
	reasons models.ReasonSet,
	th rules.Thresholds,
) Report {
	if departmentLabel == "" || departmentLabel == AllDepartments {
		departmentLabel = allDepartmentsLabel
	}
	report := Report{IncludeSaturday: includeSaturday}
	if len(records) == 0 {
		return report
	}

	first, last := dateRange(records)
	report.Title = fmt.Sprintf("Bảng công từ ngày %s đến ngày %s - Bộ phận: %s", first, last, departmentLabel)

	merged := MergeReasons(records, reasons)
	for i, group := range GroupByDepartment(merged, false) {
		sorted := sortedByDate(group.Records)
		from, to := dateRange(sorted)
		section := Section{
			Department:      group.Department,
			From:            from.String(),
			To:              to.String(),
			Signatures:      [2]string{SignatureLeader, SignaturePreparer},
			PageBreakBefore: i > 0,
		}
		for n, rec := range sorted {
			section.Rows = append(section.Rows, buildReportRow(n+1, rec, includeSaturday, th))
		}
		report.Sections = append(report.Sections, section)
	}
	return report
}

func buildReportRow(no int, rec models.AttendanceRecord, includeSaturday bool, th rules.Thresholds) ReportRow {
	row := ReportRow{
		No:              no,
		ID:              rec.ID,
		EmployeeName:    rec.EmployeeName,
		Department:      rec.Department,
		Date:            rec.Date.String(),
		Weekday:         WeekdayName(rec.Date),
		ReasonMorning:   rec.ReasonMorning,
		ReasonAfternoon: rec.ReasonAfternoon,
	}
	statuses := th.Classify(rec, includeSaturday)
	for _, s := range models.Slots {
		cell := SlotCell{Status: statuses[s]}
		if statuses[s] != rules.StatusNotApplicable {
			cell.Value = rec.Slot(s).String()
		}
		row.Slots[s] = cell
	}
	return row
}

// ExportRow is one flat, denormalized line of the spreadsheet export
type ExportRow struct {
	No              int
	EmployeeName    string
	Department      string
	Date            string
	Weekday         string
	S1, S2          string
	ReasonMorning   string
	C1, C2          string
	ReasonAfternoon string
}

// Values returns the row in ExportHeaders order
func (r ExportRow) Values() []any {
	return []any{
		r.No, r.EmployeeName, r.Department, r.Date, r.Weekday,
		r.S1, r.S2, r.ReasonMorning, r.C1, r.C2, r.ReasonAfternoon,
	}
}

// ExportRows flattens records in the given order, one row per record
func ExportRows(records []models.AttendanceRecord, reasons models.ReasonSet) []ExportRow {
	merged := MergeReasons(records, reasons)
	out := make([]ExportRow, len(merged))
	for i, rec := range merged {
		out[i] = ExportRow{
			No:              i + 1,
			EmployeeName:    rec.EmployeeName,
			Department:      rec.Department,
			Date:            rec.Date.String(),
			Weekday:         WeekdayName(rec.Date),
			S1:              rec.Slot(models.SlotMorningIn).String(),
			S2:              rec.Slot(models.SlotMorningOut).String(),
			ReasonMorning:   rec.ReasonMorning,
			C1:              rec.Slot(models.SlotAfternoonIn).String(),
			C2:              rec.Slot(models.SlotAfternoonOut).String(),
			ReasonAfternoon: rec.ReasonAfternoon,
		}
	}
	return out
}

// WriteWorkbook writes the export rows as an .xlsx workbook
func WriteWorkbook(w io.Writer, rows []ExportRow) error {
	table := make([][]any, len(rows))
	for i, r := range rows {
		table[i] = r.Values()
	}
	return sheet.WriteTable(w, "Attendance", ExportHeaders, table)
}
