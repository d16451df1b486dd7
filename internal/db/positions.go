package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/stationkit/aircheck/internal/models"
)

// PositionRepository handles database operations for listener playback positions
type PositionRepository struct {
	db *DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetByListenerID retrieves the stored position for a listener
func (r *PositionRepository) GetByListenerID(ctx context.Context, listenerID string) (*models.ListenerPosition, error) {
	if listenerID == "" {
		return nil, ErrInvalidInput
	}

	var pos models.ListenerPosition
	err := r.db.WithContext(ctx).
		Where("listener_id = ?", listenerID).
		First(&pos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get listener position: %w", MapGormError(err))
	}

	return &pos, nil
}

// Upsert stores or refreshes a listener's playback position
func (r *PositionRepository) Upsert(ctx context.Context, pos *models.ListenerPosition) error {
	if pos == nil || pos.ListenerID == "" {
		return ErrInvalidInput
	}

	pos.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "listener_id"}},
			UpdateAll: true,
		}).
		Create(pos).Error
	if err != nil {
		return fmt.Errorf("failed to upsert listener position: %w", MapGormError(err))
	}

	return nil
}

// Delete removes a listener's stored position
func (r *PositionRepository) Delete(ctx context.Context, listenerID string) error {
	if listenerID == "" {
		return ErrInvalidInput
	}

	err := r.db.WithContext(ctx).
		Where("listener_id = ?", listenerID).
		Delete(&models.ListenerPosition{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete listener position: %w", MapGormError(err))
	}

	return nil
}
