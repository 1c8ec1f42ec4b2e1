package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance-report/internal/models"
	"attendance-report/internal/rules"
	"attendance-report/internal/services"
)

type stubLookup struct {
	violations []services.Violation
	lastDate   models.Date
	err        error
}

func (s *stubLookup) LateOn(ctx context.Context, date models.Date) ([]services.Violation, error) {
	s.lastDate = date
	return s.violations, s.err
}

func (s *stubLookup) Query(ctx context.Context, q services.Query) (*services.QueryResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.QueryResult{Summary: services.Summary{Total: 12, Departments: 3, LatestDate: "07/06/2025"}}, nil
}

func violation(t *testing.T) services.Violation {
	t.Helper()
	rec := models.NewAttendanceRecord("Nguyễn Văn A", models.NewDate(2025, time.June, 2))
	rec.SetDepartment("Kế toán")
	s1, err := models.ParseClock("07:40")
	require.NoError(t, err)
	c2, err := models.ParseClock("16:30")
	require.NoError(t, err)
	rec.SetSlot(models.SlotMorningIn, s1)
	rec.SetSlot(models.SlotAfternoonOut, c2)
	return services.Violation{
		Record:   rec,
		Statuses: [models.SlotCount]rules.Status{rules.StatusLate, rules.StatusNotRecorded, rules.StatusNotRecorded, rules.StatusEarly},
	}
}

func TestFormatViolations(t *testing.T) {
	monday := models.NewDate(2025, time.June, 2)

	text := FormatViolations(monday, []services.Violation{violation(t)})
	assert.Contains(t, text, "02/06/2025 (Thứ Hai)")
	assert.Contains(t, text, "Nguyễn Văn A - Kế toán")
	assert.Contains(t, text, "S1 07:40 (trễ), C2 16:30 (sớm)")

	assert.Equal(t, "✅ Không có ai đi trễ / về sớm ngày 02/06/2025", FormatViolations(monday, nil))

	sunday := FormatViolations(models.NewDate(2025, time.June, 1), []services.Violation{violation(t)})
	assert.Contains(t, sunday, "(Chủ Nhật)")
}

func TestHandleCommand(t *testing.T) {
	lookup := &stubLookup{violations: []services.Violation{violation(t)}}
	b := &Bot{
		lookup: lookup,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC) },
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		args    string
		want    string
	}{
		{name: "getid", command: "getid", want: "Chat ID: `42`"},
		{name: "start lists commands", command: "start", want: "/late DD/MM/YYYY"},
		{name: "late with date", command: "late", args: "02/06/2025", want: "Nguyễn Văn A"},
		{name: "late with bad date", command: "late", args: "yesterday", want: "Cú pháp"},
		{name: "summary", command: "summary", want: "Bản ghi: `12`"},
		{name: "unknown", command: "foo", want: "/start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.handleCommand(ctx, 42, tt.command, tt.args)
			assert.Contains(t, got, tt.want)
		})
	}

	b.handleCommand(ctx, 42, "late", "")
	assert.Equal(t, "03/06/2025", lookup.lastDate.String(), "defaults to today")

	lookup.err = errors.New("store down")
	assert.True(t, strings.HasPrefix(b.handleCommand(ctx, 42, "late", "02/06/2025"), "❌"))
}

func TestNotifierWithoutBot(t *testing.T) {
	var n *Notifier
	n.SendNotification("dropped")
	NewNotifier(nil).SendNotification("dropped")
}
