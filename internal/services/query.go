package services

import (
	"sort"
	"strings"

	"attendance-report/internal/models"
)

// AllDepartments disables the department filter
const AllDepartments = "all"

// Query selects records. Zero-valued fields do not filter.
type Query struct {
	Department string
	From       models.Date
	To         models.Date
	Search     string
}

func (q Query) matches(rec models.AttendanceRecord, search string) bool {
	if q.Department != "" && q.Department != AllDepartments && rec.Department != q.Department {
		return false
	}
	if !q.From.IsZero() && (rec.Date.IsZero() || rec.Date.Before(q.From)) {
		return false
	}
	if !q.To.IsZero() && (rec.Date.IsZero() || rec.Date.After(q.To)) {
		return false
	}
	if search != "" && !recordContains(rec, search) {
		return false
	}
	return true
}

// Filter returns the records matching every active predicate, in input order
func Filter(records []models.AttendanceRecord, q Query) []models.AttendanceRecord {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if q.matches(rec, search) {
			out = append(out, rec)
		}
	}
	return out
}

// recordContains does a case-insensitive substring match over every field's text form
func recordContains(rec models.AttendanceRecord, needle string) bool {
	fields := []string{
		rec.ID,
		rec.EmployeeName,
		rec.Department,
		rec.Date.String(),
		WeekdayName(rec.Date),
		rec.ReasonMorning,
		rec.ReasonAfternoon,
	}
	for _, c := range rec.Slots {
		fields = append(fields, c.String())
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// DepartmentGroup is one department's records
type DepartmentGroup struct {
	Department string
	Records    []models.AttendanceRecord
}

// GroupByDepartment groups in order of first appearance, or by name when alphabetical is set.
// Records keep their input order inside each group.
func GroupByDepartment(records []models.AttendanceRecord, alphabetical bool) []DepartmentGroup {
	var groups []DepartmentGroup
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.Department]
		if !ok {
			i = len(groups)
			index[rec.Department] = i
			groups = append(groups, DepartmentGroup{Department: rec.Department})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	if alphabetical {
		sort.SliceStable(groups, func(a, b int) bool {
			return groups[a].Department < groups[b].Department
		})
	}
	return groups
}

// Departments lists distinct departments in order of first appearance
func Departments(records []models.AttendanceRecord) []string {
	groups := GroupByDepartment(records, false)
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Department
	}
	return out
}

// Summary holds the dashboard counters
type Summary struct {
	Total       int    `json:"total"`
	Filtered    int    `json:"filtered"`
	Departments int    `json:"departments"`
	LatestDate  string `json:"latestDate"`
}

// Summarize counts all records, the filtered subset, distinct departments and the latest date
func Summarize(all, filtered []models.AttendanceRecord) Summary {
	var latest models.Date
	for _, rec := range all {
		if rec.Date.After(latest) {
			latest = rec.Date
		}
	}
	s := Summary{
		Total:       len(all),
		Filtered:    len(filtered),
		Departments: len(Departments(all)),
		LatestDate:  latest.String(),
	}
	if s.LatestDate == "" {
		s.LatestDate = "-"
	}
	return s
}
