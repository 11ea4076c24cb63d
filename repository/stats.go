package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/daystep/daystep/models"
)

// StatsRepo loads and saves the per-user derived snapshot.
type StatsRepo interface {
	// GetOrCreate returns the user's stats row, lazily creating a
	// zero-valued one on first reference.
	GetOrCreate(ctx context.Context, userID string) (*models.UserStats, error)
	Save(ctx context.Context, stats *models.UserStats) error
}

type gormStatsRepo struct {
	db *gorm.DB
}

// NewStatsRepo returns the gorm-backed StatsRepo.
func NewStatsRepo(db *gorm.DB) StatsRepo {
	return &gormStatsRepo{db: db}
}

func (r *gormStatsRepo) GetOrCreate(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stats = models.UserStats{UserID: userID, Badges: models.BadgeList{}}
	if err := r.db.WithContext(ctx).Create(&stats).Error; err != nil {
		// A concurrent request may have created it first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if ferr := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error; ferr == nil {
				return &stats, nil
			}
		}
		return nil, err
	}
	return &stats, nil
}

func (r *gormStatsRepo) Save(ctx context.Context, stats *models.UserStats) error {
	return r.db.WithContext(ctx).Save(stats).Error
}
