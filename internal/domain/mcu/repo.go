package mcu

import (
	"context"

	"github.com/google/uuid"
)

type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search filters on name, company, package, gender and exam date range (from, to).
	// Values arrive in stored form; empty params lists everything.
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Record, int, error)
}

type CheckinRepository interface {
	// Create returns the stored row; an existing (record, station) pair is returned unchanged.
	Create(ctx context.Context, c *Checkin) (*Checkin, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Checkin, error)
}
