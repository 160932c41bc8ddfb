package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sharebite/sharebite-bot/domains/convstate"
	pkgError "github.com/sharebite/sharebite-bot/pkg/error"
)

// StateGormRepository persists the single-slot conversation state per user.
type StateGormRepository struct {
	db *gorm.DB
}

var _ convstate.IStateRepository = (*StateGormRepository)(nil)

func NewStateGormRepository(db *gorm.DB) *StateGormRepository {
	return &StateGormRepository{db: db}
}

func (r *StateGormRepository) Get(ctx context.Context, userID string) (*convstate.StateRecord, error) {
	var record convstate.StateRecord
	err := r.db.WithContext(ctx).First(&record, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgError.StorageError(fmt.Sprintf("failed to read state for %s: %v", userID, err))
	}
	return &record, nil
}

func (r *StateGormRepository) Upsert(ctx context.Context, record *convstate.StateRecord) error {
	record.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return pkgError.StorageError(fmt.Sprintf("failed to upsert state for %s: %v", record.UserID, err))
	}
	return nil
}

func (r *StateGormRepository) Delete(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&convstate.StateRecord{}).Error
	if err != nil {
		return pkgError.StorageError(fmt.Sprintf("failed to delete state for %s: %v", userID, err))
	}
	return nil
}
