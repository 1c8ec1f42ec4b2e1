package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-report/internal/models"
)

// newRecord builds a stored-looking record; empty punch strings are not recorded
func newRecord(t *testing.T, name, dept string, date models.Date, punches ...string) models.AttendanceRecord {
	t.Helper()
	rec := models.NewAttendanceRecord(name, date)
	rec.SetDepartment(dept)
	for i, p := range punches {
		var c models.Clock
		if p != "" {
			var err error
			c, err = models.ParseClock(p)
			require.NoError(t, err)
		}
		rec.SetSlot(models.Slot(i), c)
	}
	rec.MarkComplete()
	return rec
}

func june(day int) models.Date {
	return models.NewDate(2025, time.June, day)
}

func fixture(t *testing.T) []models.AttendanceRecord {
	return []models.AttendanceRecord{
		newRecord(t, "Nguyễn Văn A", "Kế toán", june(3), "07:30", "11:30"),
		newRecord(t, "Trần Thị B", "Nhân sự", june(2), "07:00", "11:20"),
		newRecord(t, "Nguyễn Văn A", "Kế toán", june(2), "07:10", "11:30"),
		newRecord(t, "Lê Văn C", "Nhân sự", june(7), "07:05"),
	}
}

func TestFilter(t *testing.T) {
	records := fixture(t)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "no filters keeps order",
			query: Query{},
			want:  []string{"Nguyễn Văn A_03-06-2025", "Trần Thị B_02-06-2025", "Nguyễn Văn A_02-06-2025", "Lê Văn C_07-06-2025"},
		},
		{
			name:  "department all",
			query: Query{Department: AllDepartments},
			want:  []string{"Nguyễn Văn A_03-06-2025", "Trần Thị B_02-06-2025", "Nguyễn Văn A_02-06-2025", "Lê Văn C_07-06-2025"},
		},
		{
			name:  "department",
			query: Query{Department: "Nhân sự"},
			want:  []string{"Trần Thị B_02-06-2025", "Lê Văn C_07-06-2025"},
		},
		{
			name:  "inclusive range",
			query: Query{From: june(2), To: june(3)},
			want:  []string{"Nguyễn Văn A_03-06-2025", "Trần Thị B_02-06-2025", "Nguyễn Văn A_02-06-2025"},
		},
		{
			name:  "lower bound only",
			query: Query{From: june(3)},
			want:  []string{"Nguyễn Văn A_03-06-2025", "Lê Văn C_07-06-2025"},
		},
		{
			name:  "case-insensitive search",
			query: Query{Search: "NGUYỄN"},
			want:  []string{"Nguyễn Văn A_03-06-2025", "Nguyễn Văn A_02-06-2025"},
		},
		{
			name:  "search matches punch text",
			query: Query{Search: "11:20"},
			want:  []string{"Trần Thị B_02-06-2025"},
		},
		{
			name:  "search matches weekday",
			query: Query{Search: "bảy"},
			want:  []string{"Lê Văn C_07-06-2025"},
		},
		{
			name:  "filters are combined",
			query: Query{Department: "Kế toán", From: june(3), Search: "a"},
			want:  []string{"Nguyễn Văn A_03-06-2025"},
		},
		{
			name:  "nothing matches",
			query: Query{Search: "zzz"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.query)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterGeneratedMonth(t *testing.T) {
	departments := []string{"Kế toán", "Nhân sự", "Kho"}
	var records []models.AttendanceRecord
	var want []string
	for i := 0; i < 120; i++ {
		dept := departments[i%len(departments)]
		day := models.DateOf(time.Date(2025, time.April, 1+i%40, 0, 0, 0, 0, time.UTC))
		rec := newRecord(t, fmt.Sprintf("NV%03d", i), dept, day, "07:25", "11:30", "13:20", "17:05")
		records = append(records, rec)
		if dept == "Kế toán" && day.Before(models.NewDate(2025, time.May, 1)) {
			want = append(want, rec.ID)
		}
	}
	require.Len(t, records, 120)
	require.NotEmpty(t, want)

	got := Filter(records, Query{
		Department: "Kế toán",
		From:       models.NewDate(2025, time.April, 1),
		To:         models.NewDate(2025, time.April, 30),
	})
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
		assert.Equal(t, time.April, r.Date.Time().Month())
	}
	assert.Equal(t, want, ids)
}

func TestFilterIsIdempotent(t *testing.T) {
	records := fixture(t)
	q := Query{Department: "Nhân sự", Search: "07"}
	once := Filter(records, q)
	assert.Equal(t, once, Filter(once, q))
}

func TestGroupByDepartment(t *testing.T) {
	records := fixture(t)

	groups := GroupByDepartment(records, false)
	require.Len(t, groups, 2)
	assert.Equal(t, "Kế toán", groups[0].Department)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, "Nhân sự", groups[1].Department)

	alpha := GroupByDepartment([]models.AttendanceRecord{
		newRecord(t, "X", "Zeta", june(2)),
		newRecord(t, "Y", "Alpha", june(2)),
	}, true)
	assert.Equal(t, "Alpha", alpha[0].Department)
	assert.Equal(t, "Zeta", alpha[1].Department)

	assert.Equal(t, []string{"Kế toán", "Nhân sự"}, Departments(records))
}

func TestSummarize(t *testing.T) {
	records := fixture(t)
	s := Summarize(records, records[:1])
	assert.Equal(t, Summary{Total: 4, Filtered: 1, Departments: 2, LatestDate: "07/06/2025"}, s)

	assert.Equal(t, "-", Summarize(nil, nil).LatestDate)
}
