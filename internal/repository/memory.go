package repository

import (
	"context"
	"sync"

	"attendance-report/internal/models"
)

// MemoryAttendanceStore keeps records in process, in first-insert order
type MemoryAttendanceStore struct {
	mu      sync.RWMutex
	records map[string]models.AttendanceRecord
	order   []string
}

func NewMemoryAttendanceStore() *MemoryAttendanceStore {
	return &MemoryAttendanceStore{records: make(map[string]models.AttendanceRecord)}
}

func (s *MemoryAttendanceStore) FetchAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AttendanceRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemoryAttendanceStore) Get(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryAttendanceStore) Upsert(ctx context.Context, record models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return &models.PersistenceError{Op: "upsert", Key: record.ID, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[record.ID]
	if !ok {
		s.order = append(s.order, record.ID)
		stored = models.NewAttendanceRecord(record.EmployeeName, record.Date)
	}
	s.records[record.ID] = models.Merge(stored, record)
	return nil
}

func (s *MemoryAttendanceStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]models.AttendanceRecord)
	s.order = nil
	return nil
}

// MemoryReasonStore keeps reasons in process
type MemoryReasonStore struct {
	mu      sync.RWMutex
	reasons models.ReasonSet
}

func NewMemoryReasonStore() *MemoryReasonStore {
	return &MemoryReasonStore{reasons: make(models.ReasonSet)}
}

func (s *MemoryReasonStore) FetchAll(ctx context.Context) (models.ReasonSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(models.ReasonSet, len(s.reasons))
	for id, r := range s.reasons {
		out[id] = r
	}
	return out, nil
}

func (s *MemoryReasonStore) Get(ctx context.Context, id string) (*models.Reason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reasons[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (s *MemoryReasonStore) Upsert(ctx context.Context, id string, reason models.Reason) error {
	if err := ctx.Err(); err != nil {
		return &models.PersistenceError{Op: "upsert reason", Key: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reasons[id] = s.reasons[id].Merge(reason)
	return nil
}

var (
	_ AttendanceStore = (*MemoryAttendanceStore)(nil)
	_ ReasonStore     = (*MemoryReasonStore)(nil)
)
