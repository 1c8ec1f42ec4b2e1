// Package repository defines repository interfaces for data access
package repository

import (
	"context"

	"attendance-report/internal/models"
)

// AttendanceStore holds attendance records keyed by record id
type AttendanceStore interface {
	// FetchAll returns every stored record
	FetchAll(ctx context.Context) ([]models.AttendanceRecord, error)
	// Get returns one record or models.ErrNotFound
	Get(ctx context.Context, id string) (*models.AttendanceRecord, error)
	// Upsert creates the record or merges the fields it provides into the stored one
	Upsert(ctx context.Context, record models.AttendanceRecord) error
	// ClearAll removes every record
	ClearAll(ctx context.Context) error
}

// ReasonStore holds reason annotations keyed by the owning record's id
type ReasonStore interface {
	// FetchAll returns every stored reason
	FetchAll(ctx context.Context) (models.ReasonSet, error)
	// Get returns the reason stored for one record or models.ErrNotFound
	Get(ctx context.Context, id string) (*models.Reason, error)
	// Upsert merges the fields set on reason into the stored one
	Upsert(ctx context.Context, id string, reason models.Reason) error
}
