package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanledger/internal/domain/sequence"
)

type SequenceRepository struct{ db *gorm.DB }

func NewSequenceRepository(db *gorm.DB) *SequenceRepository { return &SequenceRepository{db: db} }

func (r *SequenceRepository) GetForUpdate(ctx context.Context, year int) (*sequence.Counter, error) {
	var out sequence.Counter
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("year = ?", year).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sequence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SequenceRepository) Create(ctx context.Context, c *sequence.Counter) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *SequenceRepository) Save(ctx context.Context, c *sequence.Counter) error {
	return r.db.WithContext(ctx).Save(c).Error
}
