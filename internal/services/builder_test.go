package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-report/internal/models"
	"attendance-report/internal/sheet"
)

func TestBuildRecord(t *testing.T) {
	tests := []struct {
		name     string
		row      map[string]any
		wantID   string
		wantDept string
		wantS1   string
		wantErr  bool
		warnings int
	}{
		{
			name: "numeric serials",
			row: map[string]any{
				"Tên nhân viên": "Nguyễn Văn A",
				"Tên bộ phận":   "Kế toán",
				"Ngày":          45809.0,
				"S1":            0.31,
			},
			wantID:   "Nguyễn Văn A_01-06-2025",
			wantDept: "Kế toán",
			wantS1:   "07:26",
		},
		{
			name: "formatted strings and default department",
			row: map[string]any{
				"Tên nhân viên": "Trần B",
				"Ngày":          "02/06/2025",
				"S1":            "7:05",
			},
			wantID:   "Trần B_02-06-2025",
			wantDept: models.UnknownDepartment,
			wantS1:   "07:05",
		},
		{
			name: "unreadable punch degrades",
			row: map[string]any{
				"Tên nhân viên": "Lê C",
				"Ngày":          45809.0,
				"S1":            "sáng",
			},
			wantID:   "Lê C_01-06-2025",
			wantDept: models.UnknownDepartment,
			wantS1:   "",
			warnings: 1,
		},
		{
			name:    "missing name",
			row:     map[string]any{"Ngày": 45809.0},
			wantErr: true,
		},
		{
			name:     "missing date keeps the row undated",
			row:      map[string]any{"Tên nhân viên": "D", "S1": 0.3},
			wantID:   "D_",
			wantDept: models.UnknownDepartment,
			wantS1:   "07:12",
			warnings: 1,
		},
		{
			name:     "unreadable date keeps the row undated",
			row:      map[string]any{"Tên nhân viên": "E", "Ngày": "not-a-date"},
			wantID:   "E_",
			wantDept: models.UnknownDepartment,
			wantS1:   "",
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, errs := BuildRecord(tt.row)
			if tt.wantErr {
				require.NotEmpty(t, errs)
				assert.True(t, models.IsValidation(errs[len(errs)-1]))
				return
			}
			assert.Len(t, errs, tt.warnings)
			assert.Equal(t, tt.wantID, rec.ID)
			assert.Equal(t, tt.wantDept, rec.Department)
			assert.Equal(t, tt.wantS1, rec.Slot(models.SlotMorningIn).String())
		})
	}
}

func TestBuildRecordPresentButBlankSlot(t *testing.T) {
	rec, errs := BuildRecord(map[string]any{
		"Tên nhân viên": "A",
		"Ngày":          45809.0,
		"S2":            "",
	})
	require.Empty(t, errs)
	assert.True(t, rec.HasSlot(models.SlotMorningOut))
	assert.False(t, rec.Slot(models.SlotMorningOut).Recorded())
	assert.False(t, rec.HasSlot(models.SlotAfternoonIn), "absent column is not provided")
	assert.False(t, rec.HasDepartment())
}

func TestBuildBatch(t *testing.T) {
	rows := []map[string]any{
		{"ten nhan vien": "A", "NGÀY": 45809.0, "s1": 0.3},
		{"ten nhan vien": "", "NGÀY": 45809.0},
		{"ten nhan vien": "B", "NGÀY": 45809.0, "s1": "bad"},
		{"ten nhan vien": "A", "NGÀY": 45809.0, "s1": 0.32},
		{"ten nhan vien": "C", "NGÀY": 45810.0},
	}

	result := BuildBatch(rows)

	require.Len(t, result.Records, 3)
	assert.Equal(t, "A_01-06-2025", result.Records[0].ID)
	assert.Equal(t, "07:40", result.Records[0].Slot(models.SlotMorningIn).String(), "last write wins")
	assert.Equal(t, "B_01-06-2025", result.Records[1].ID)
	assert.Equal(t, "C_02-06-2025", result.Records[2].ID)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 2, result.Rejected[0].Row)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 3, result.Warnings[0].Row)
	assert.Contains(t, result.Warnings[0].Msg, "row 3")
}

func TestBuildBatchUndatedRows(t *testing.T) {
	result := BuildBatch([]map[string]any{
		{"Tên nhân viên": "A", "Ngày": "not-a-date"},
		{"Tên nhân viên": "B"},
	})

	assert.Empty(t, result.Rejected)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "A_", result.Records[0].ID)
	assert.True(t, result.Records[0].Date.IsZero())
	assert.Equal(t, "B_", result.Records[1].ID)

	require.Len(t, result.Warnings, 2, "one warning per row")
	var cErr *models.ConversionError
	require.ErrorAs(t, result.Warnings[0].Err, &cErr)
	assert.Equal(t, 1, cErr.Row)
	assert.Equal(t, "not-a-date", cErr.Value)
	assert.Equal(t, 2, result.Warnings[1].Row)
}

func TestBuildBatchLegacyWorkbook(t *testing.T) {
	f, err := os.Open("../sheet/testdata/attendance.xls")
	require.NoError(t, err)
	defer f.Close()

	rows, err := sheet.ReadRows(f, "attendance.xls")
	require.NoError(t, err)

	result := BuildBatch(rows)
	assert.Empty(t, result.Rejected)
	require.Len(t, result.Records, 2)

	a := result.Records[0]
	assert.Equal(t, "Nguyễn Văn A_02-06-2025", a.ID)
	assert.Equal(t, "02/06/2025", a.Date.String())
	assert.Equal(t, "07:30", a.Slots[0].String())
	assert.Equal(t, "17:15", a.Slots[3].String())

	b := result.Records[1]
	assert.Equal(t, "Trần Thị B_", b.ID)
	assert.True(t, b.Date.IsZero())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 2, result.Warnings[0].Row)
}

func TestBuildBatchEmpty(t *testing.T) {
	result := BuildBatch(nil)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Rejected)
}
