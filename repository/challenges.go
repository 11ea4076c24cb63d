package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/daystep/daystep/models"
)

// ChallengeFilter narrows the active-catalog query. Zero values mean
// "no constraint" for their dimension.
type ChallengeFilter struct {
	// Difficulty pins an exact level when > 0 and takes precedence over
	// the band below.
	Difficulty int
	// MinDifficulty/MaxDifficulty select an inclusive band when both > 0.
	MinDifficulty int
	MaxDifficulty int
	// ExcludeCategories removes recently-used categories.
	ExcludeCategories []string
}

// ChallengeRepo reads the seeded catalog. The engines never write to it;
// UpsertAll exists for seeding only.
type ChallengeRepo interface {
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
	FindActive(ctx context.Context, f ChallengeFilter) ([]models.Challenge, error)
	List(ctx context.Context, activeOnly bool, category string) ([]models.Challenge, error)
	Count(ctx context.Context) (int64, error)
	UpsertAll(ctx context.Context, challenges []models.Challenge) error
}

type gormChallengeRepo struct {
	db *gorm.DB
}

// NewChallengeRepo returns the gorm-backed ChallengeRepo.
func NewChallengeRepo(db *gorm.DB) ChallengeRepo {
	return &gormChallengeRepo{db: db}
}

func (r *gormChallengeRepo) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	var ch models.Challenge
	err := r.db.WithContext(ctx).First(&ch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (r *gormChallengeRepo) FindActive(ctx context.Context, f ChallengeFilter) ([]models.Challenge, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if f.Difficulty > 0 {
		q = q.Where("difficulty = ?", f.Difficulty)
	} else if f.MinDifficulty > 0 && f.MaxDifficulty > 0 {
		q = q.Where("difficulty BETWEEN ? AND ?", f.MinDifficulty, f.MaxDifficulty)
	}
	if len(f.ExcludeCategories) > 0 {
		q = q.Where("category NOT IN ?", f.ExcludeCategories)
	}
	var out []models.Challenge
	err := q.Find(&out).Error
	return out, err
}

func (r *gormChallengeRepo) List(ctx context.Context, activeOnly bool, category string) ([]models.Challenge, error) {
	q := r.db.WithContext(ctx).Order("difficulty ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []models.Challenge
	err := q.Find(&out).Error
	return out, err
}

func (r *gormChallengeRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Challenge{}).Count(&n).Error
	return n, err
}

func (r *gormChallengeRepo) UpsertAll(ctx context.Context, challenges []models.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}
	// Existing slugs keep their rows; seeding is idempotent.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&challenges).Error
}
