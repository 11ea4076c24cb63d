package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/daystep/daystep/models"
)

// WinRepo backs the public wins feed and its event-window rate limiting.
type WinRepo interface {
	Create(ctx context.Context, win *models.Win) error
	FindByID(ctx context.Context, id string) (*models.Win, error)
	// IncrementLikes bumps the counter atomically in the store.
	IncrementLikes(ctx context.Context, id string) error
	Recent(ctx context.Context, limit int) ([]models.Win, error)
	RecordEvent(ctx context.Context, event *models.WinEvent) error
	CountEventsSince(ctx context.Context, userHash, eventType string, since time.Time) (int64, error)
}

type gormWinRepo struct {
	db *gorm.DB
}

// NewWinRepo returns the gorm-backed WinRepo.
func NewWinRepo(db *gorm.DB) WinRepo {
	return &gormWinRepo{db: db}
}

func (r *gormWinRepo) Create(ctx context.Context, win *models.Win) error {
	return r.db.WithContext(ctx).Create(win).Error
}

func (r *gormWinRepo) FindByID(ctx context.Context, id string) (*models.Win, error) {
	var win models.Win
	err := r.db.WithContext(ctx).First(&win, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &win, nil
}

func (r *gormWinRepo) IncrementLikes(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Win{}).
		Where("id = ?", id).
		Update("likes", gorm.Expr("likes + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormWinRepo) Recent(ctx context.Context, limit int) ([]models.Win, error) {
	var wins []models.Win
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&wins).Error
	return wins, err
}

func (r *gormWinRepo) RecordEvent(ctx context.Context, event *models.WinEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormWinRepo) CountEventsSince(ctx context.Context, userHash, eventType string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.WinEvent{}).
		Where("user_hash = ? AND type = ? AND created_at >= ?", userHash, eventType, since).
		Count(&n).Error
	return n, err
}
