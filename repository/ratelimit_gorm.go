package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sharebite/sharebite-bot/domains/ratelimit"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// RateLimitGormRepository is the authoritative fixed-window store shared by
// every instance.
type RateLimitGormRepository struct {
	db *gorm.DB
}

var _ ratelimit.IRateLimitRepository = (*RateLimitGormRepository)(nil)

func NewRateLimitGormRepository(db *gorm.DB) *RateLimitGormRepository {
	return &RateLimitGormRepository{db: db}
}

func (r *RateLimitGormRepository) Get(ctx context.Context, userID string) (*ratelimit.RateLimitRecord, error) {
	var record ratelimit.RateLimitRecord
	err := r.db.WithContext(ctx).First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgError.StorageError(fmt.Sprintf("failed to read rate limit for %s: %v", userID, err))
	}
	return &record, nil
}

func (r *RateLimitGormRepository) Save(ctx context.Context, record *ratelimit.RateLimitRecord) error {
	record.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return pkgError.StorageError(fmt.Sprintf("failed to save rate limit for %s: %v", record.UserID, err))
	}
	return nil
}

func (r *RateLimitGormRepository) DeleteUpdatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&ratelimit.RateLimitRecord{})
	if res.Error != nil {
		return 0, pkgError.StorageError(fmt.Sprintf("failed to prune rate limits: %v", res.Error))
	}
	return res.RowsAffected, nil
}
