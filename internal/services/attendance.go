// Package services implements business logic for the application
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"attendance-report/internal/models"
	"attendance-report/internal/repository"
	"attendance-report/internal/rules"
	"attendance-report/internal/sheet"
)

var (
	// ErrNothingToPrint is returned when a report would have no rows
	ErrNothingToPrint = errors.New("Không có dữ liệu nào để in")
	// ErrNothingToExport is returned when an export would have no rows
	ErrNothingToExport = errors.New("Không có dữ liệu để xuất")
)

// AttendanceAPI is what the HTTP handlers and the bot need from the service
type AttendanceAPI interface {
	ImportFile(ctx context.Context, r io.Reader, filename string) (*ImportResult, error)
	Query(ctx context.Context, q Query) (*QueryResult, error)
	UpdateSlot(ctx context.Context, id, field, value string) (*models.AttendanceRecord, error)
	SaveReason(ctx context.Context, id string, field models.ReasonField, text string) (bool, error)
	ClearAll(ctx context.Context) error
	Report(ctx context.Context, q Query, includeSaturday *bool) (Report, error)
	ReportPDF(ctx context.Context, q Query, includeSaturday *bool) ([]byte, error)
	Export(ctx context.Context, q Query, w io.Writer) error
	LateOn(ctx context.Context, date models.Date) ([]Violation, error)
}

// BotNotifier defines the interface for bot notifications
type BotNotifier interface {
	SendNotification(message string)
}

// Printer turns report HTML into a PDF
type Printer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Options tunes the service. Zero values fall back to the defaults.
type Options struct {
	Thresholds      rules.Thresholds
	IncludeSaturday bool
	SaveParallelism int
	Metrics         *Metrics
	Printer         Printer
	Logger          *zap.Logger
}

// AttendanceService handles attendance business logic
type AttendanceService struct {
	records     repository.AttendanceStore
	reasons     repository.ReasonStore
	botNotifier BotNotifier
	printer     Printer
	metrics     *Metrics
	logger      *zap.Logger

	thresholds      rules.Thresholds
	includeSaturday bool
	parallelism     int

	// reasonMu serializes read-compare-write of reasons
	reasonMu sync.Mutex
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	records repository.AttendanceStore,
	reasons repository.ReasonStore,
	botNotifier BotNotifier,
	opts Options,
) *AttendanceService {
	if opts.Thresholds == (rules.Thresholds{}) {
		opts.Thresholds = rules.DefaultThresholds()
	}
	if opts.SaveParallelism <= 0 {
		opts.SaveParallelism = 8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &AttendanceService{
		records:         records,
		reasons:         reasons,
		botNotifier:     botNotifier,
		printer:         opts.Printer,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		thresholds:      opts.Thresholds,
		includeSaturday: opts.IncludeSaturday,
		parallelism:     opts.SaveParallelism,
	}
}

var _ AttendanceAPI = (*AttendanceService)(nil)

// Thresholds returns the policy the service classifies with
func (s *AttendanceService) Thresholds() rules.Thresholds { return s.thresholds }

// ImportResult reports one import batch
type ImportResult struct {
	BatchID  string                    `json:"batchId"`
	Imported int                       `json:"imported"`
	Rejected []RowError                `json:"rejected"`
	Warnings []RowError                `json:"warnings"`
	Failed   []SaveFailure             `json:"failed,omitempty"`
	Records  []models.AttendanceRecord `json:"-"`
}

// SaveFailure is one record the store refused
type SaveFailure struct {
	ID  string `json:"id"`
	Msg string `json:"message"`
}

// ImportFile reads a spreadsheet and imports its rows
func (s *AttendanceService) ImportFile(ctx context.Context, r io.Reader, filename string) (*ImportResult, error) {
	rows, err := sheet.ReadRows(r, filename)
	if err != nil {
		return nil, &models.ValidationError{Field: "file", Value: filename, Message: err.Error()}
	}
	return s.Import(ctx, rows)
}

// Import builds records from raw rows and upserts them.
// On a store failure the built records are still returned so the caller can retry SaveRecords.
func (s *AttendanceService) Import(ctx context.Context, rows []map[string]any) (*ImportResult, error) {
	started := time.Now()
	batchID := uuid.NewString()
	log := s.logger.With(zap.String("batch_id", batchID))

	batch := BuildBatch(rows)
	s.metrics.observeBatch(len(batch.Records), len(batch.Rejected), len(batch.Warnings))
	for _, w := range batch.Warnings {
		log.Warn("cell degraded to not recorded", zap.Int("row", w.Row), zap.Error(w.Err))
	}
	for _, r := range batch.Rejected {
		log.Warn("row rejected", zap.Int("row", r.Row), zap.Error(r.Err))
	}

	result := &ImportResult{
		BatchID:  batchID,
		Rejected: batch.Rejected,
		Warnings: batch.Warnings,
		Records:  batch.Records,
	}

	failures, err := s.SaveRecords(ctx, batch.Records)
	result.Failed = failures
	result.Imported = len(batch.Records) - len(failures)
	s.metrics.observeImportSeconds(time.Since(started).Seconds())

	log.Info("import finished",
		zap.Int("rows", len(rows)),
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Int("failed", len(failures)),
		zap.Duration("took", time.Since(started)),
	)
	s.notify(importMessage(result))

	if err != nil {
		return result, fmt.Errorf("import %s: %w", batchID, err)
	}
	return result, nil
}

// SaveRecords upserts records with bounded parallelism.
// Every failing record is reported; the returned error joins the individual failures.
func (s *AttendanceService) SaveRecords(ctx context.Context, records []models.AttendanceRecord) ([]SaveFailure, error) {
	errs := make([]error, len(records))

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, rec := range records {
		g.Go(func() error {
			errs[i] = s.records.Upsert(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()

	var failures []SaveFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, SaveFailure{ID: records[i].ID, Msg: err.Error()})
		}
	}
	s.metrics.observeSaves(len(records)-len(failures), len(failures))
	return failures, errors.Join(errs...)
}

// Load returns every stored record with reasons merged in.
// A second morning punch equal to the first is a duplicate scan and reads as not recorded.
func (s *AttendanceService) Load(ctx context.Context) ([]models.AttendanceRecord, error) {
	records, err := s.records.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	reasons, err := s.reasons.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reasons: %w", err)
	}
	for i := range records {
		dropDuplicatePunch(&records[i])
	}
	return MergeReasons(records, reasons), nil
}

func dropDuplicatePunch(rec *models.AttendanceRecord) {
	in, out := rec.Slot(models.SlotMorningIn), rec.Slot(models.SlotMorningOut)
	if in.Recorded() && out == in {
		rec.Slots[models.SlotMorningOut] = models.Clock{}
	}
}

// QueryResult is a filtered view plus the dashboard counters
type QueryResult struct {
	Records     []models.AttendanceRecord `json:"records"`
	Departments []string                  `json:"departments"`
	Summary     Summary                   `json:"summary"`
}

// Query filters the stored records
func (s *AttendanceService) Query(ctx context.Context, q Query) (*QueryResult, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	filtered := Filter(all, q)
	return &QueryResult{
		Records:     filtered,
		Departments: Departments(all),
		Summary:     Summarize(all, filtered),
	}, nil
}

// UpdateSlot sets one punch of a stored record from an HH:MM string
func (s *AttendanceService) UpdateSlot(ctx context.Context, id, field, value string) (*models.AttendanceRecord, error) {
	slot, ok := models.ParseSlot(field)
	if !ok {
		return nil, &models.ValidationError{Field: field, Message: "unknown slot, expected S1, S2, C1 or C2"}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &models.ValidationError{Field: slot.String(), Message: "value is required"}
	}
	c, err := models.ParseClock(value)
	if err != nil {
		return nil, &models.ValidationError{Field: slot.String(), Value: value, Message: models.ErrMalformedTime.Error()}
	}

	stored, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := models.NewAttendanceRecord(stored.EmployeeName, stored.Date)
	patch.SetSlot(slot, c)
	if err := s.records.Upsert(ctx, patch); err != nil {
		return nil, err
	}

	updated := models.Merge(*stored, patch)
	s.logger.Info("slot updated", zap.String("id", id), zap.String("slot", slot.String()), zap.String("value", c.String()))
	return &updated, nil
}

// SaveReason stores trimmed reason text. It reports false when the text is unchanged and nothing was written.
func (s *AttendanceService) SaveReason(ctx context.Context, id string, field models.ReasonField, text string) (bool, error) {
	if field != models.ReasonMorning && field != models.ReasonAfternoon {
		return false, &models.ValidationError{Field: "field", Value: string(field), Message: "expected morning or afternoon"}
	}
	text = strings.TrimSpace(text)

	s.reasonMu.Lock()
	defer s.reasonMu.Unlock()

	existing, err := s.reasons.Get(ctx, id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if text == "" {
			return false, nil
		}
	case err != nil:
		return false, err
	case existing.Get(field) == text:
		return false, nil
	}
	if err := s.reasons.Upsert(ctx, id, models.Reason{}.With(field, text)); err != nil {
		return false, err
	}
	s.logger.Info("reason saved", zap.String("id", id), zap.String("field", string(field)))
	return true, nil
}

// ClearAll removes every stored record
func (s *AttendanceService) ClearAll(ctx context.Context) error {
	if err := s.records.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Warn("all attendance records cleared")
	return nil
}

// Report assembles the grouped report for the records matching q.
// A nil includeSaturday uses the configured default.
func (s *AttendanceService) Report(ctx context.Context, q Query, includeSaturday *bool) (Report, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return Report{}, err
	}
	filtered := Filter(all, q)
	if len(filtered) == 0 {
		return Report{}, ErrNothingToPrint
	}
	// reasons are already merged by Load
	saturday := s.includeSaturday
	if includeSaturday != nil {
		saturday = *includeSaturday
	}
	report := AssembleReport(filtered, q.Department, saturday, nil, s.thresholds)
	s.metrics.observeReport("html")
	return report, nil
}

// ReportPDF renders the report through the configured printer
func (s *AttendanceService) ReportPDF(ctx context.Context, q Query, includeSaturday *bool) ([]byte, error) {
	if s.printer == nil {
		return nil, errors.New("pdf printer not configured")
	}
	report, err := s.Report(ctx, q, includeSaturday)
	if err != nil {
		return nil, err
	}
	html, err := report.HTML()
	if err != nil {
		return nil, err
	}
	pdf, err := s.printer.Render(ctx, html)
	if err != nil {
		return nil, err
	}
	s.metrics.observeReport("pdf")
	return pdf, nil
}

// Export writes the filtered records as a flat .xlsx table
func (s *AttendanceService) Export(ctx context.Context, q Query, w io.Writer) error {
	all, err := s.Load(ctx)
	if err != nil {
		return err
	}
	filtered := Filter(all, q)
	if len(filtered) == 0 {
		return ErrNothingToExport
	}
	if err := WriteWorkbook(w, ExportRows(filtered, nil)); err != nil {
		return err
	}
	s.metrics.observeReport("xlsx")
	return nil
}

// Violation is a record with at least one late or early punch
type Violation struct {
	Record   models.AttendanceRecord
	Statuses [models.SlotCount]rules.Status
}

// LateOn lists the records of one day that break the policy
func (s *AttendanceService) LateOn(ctx context.Context, date models.Date) ([]Violation, error) {
	all, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Violation
	for _, rec := range Filter(all, Query{From: date, To: date}) {
		statuses := s.thresholds.Classify(rec, s.includeSaturday)
		for _, st := range statuses {
			if st.Flagged() {
				out = append(out, Violation{Record: rec, Statuses: statuses})
				break
			}
		}
	}
	return out, nil
}

func (s *AttendanceService) notify(message string) {
	if s.botNotifier == nil {
		return
	}
	s.botNotifier.SendNotification(message)
}

func importMessage(r *ImportResult) string {
	msg := fmt.Sprintf("📥 *Nhập dữ liệu chấm công*\n✅ Đã lưu: `%d`\n⛔ Bị loại: `%d`\n⚠️ Cảnh báo: `%d`",
		r.Imported, len(r.Rejected), len(r.Warnings))
	if len(r.Failed) > 0 {
		msg += fmt.Sprintf("\n❗ Lỗi lưu trữ: `%d`", len(r.Failed))
	}
	return msg
}
