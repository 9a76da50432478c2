// Package sequence holds the per-year loan number counter.
package sequence

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("sequence row not found")

// Counter is locked for the length of an application so numbering and the
// eligibility reads that precede it are serialized per year.
type Counter struct {
	Year      int       `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastValue int       `gorm:"column:last_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Counter) TableName() string { return "loan_number_sequences" }

// Next bumps the counter and returns the new value.
func (c *Counter) Next() int {
	c.LastValue++
	return c.LastValue
}

type Repository interface {
	// GetForUpdate returns ErrNotFound when the year has no row yet.
	GetForUpdate(ctx context.Context, year int) (*Counter, error)
	Create(ctx context.Context, c *Counter) error
	Save(ctx context.Context, c *Counter) error
}
