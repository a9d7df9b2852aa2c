package repository

import (
	"context"
	"time"

	"github.com/mkraev/linkforge/internal/app/model"
	"gorm.io/gorm"
)

// LinkEventRepository defines the data access contract for the registration
// audit trail.
type LinkEventRepository interface {
	Create(ctx context.Context, event *model.LinkEvent) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type linkEventRepository struct {
	db *gorm.DB
}

// NewLinkEventRepository returns a GORM-backed LinkEventRepository.
func NewLinkEventRepository(db *gorm.DB) LinkEventRepository {
	return &linkEventRepository{db: db}
}

func (r *linkEventRepository) Create(ctx context.Context, event *model.LinkEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// DeleteExpired removes audit rows whose short link TTL has already elapsed,
// keeping the table bounded to roughly the live link population.
func (r *linkEventRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at + make_interval(secs => ttl_seconds) < ?", now).
		Delete(&model.LinkEvent{})
	return result.RowsAffected, result.Error
}
