package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/daystep/daystep/models"
)

// AssignmentRepo is the store surface of the assignment and stats engines.
// All day parameters are canonical YYYY-MM-DD keys.
type AssignmentRepo interface {
	// FindByUserDay returns the assignment for (user, day) with its
	// challenge resolved, or ErrNotFound.
	FindByUserDay(ctx context.Context, userID, day string) (*models.DailyAssignment, error)
	// Create inserts a new assignment. A (user, day) collision with a
	// concurrent insert surfaces as ErrDuplicate.
	Create(ctx context.Context, a *models.DailyAssignment) error
	// MarkCompleted performs the completion transition as a single
	// conditional update; it reports false when the row was no longer
	// pending, without touching it.
	MarkCompleted(ctx context.Context, id string, at time.Time, note *string) (bool, error)
	// MarkSkipped is the symmetric skip transition.
	MarkSkipped(ctx context.Context, id string, at time.Time) (bool, error)
	// UpdateNote replaces the note; nil clears it.
	UpdateNote(ctx context.Context, id string, note *string) error
	// CountCompletedSince counts completions with assigned_date >= fromDay.
	CountCompletedSince(ctx context.Context, userID, fromDay string) (int64, error)
	// CountCompleted counts all completions for the user.
	CountCompleted(ctx context.Context, userID string) (int64, error)
	// RecentCompletedDays returns assigned days of completed rows, newest
	// first, capped at limit.
	RecentCompletedDays(ctx context.Context, userID string, limit int) ([]string, error)
	// RecentSkippedDays mirrors RecentCompletedDays for skipped rows.
	RecentSkippedDays(ctx context.Context, userID string, limit int) ([]string, error)
	// CompletionTimes returns completed_at timestamps, newest first,
	// capped at limit.
	CompletionTimes(ctx context.Context, userID string, limit int) ([]time.Time, error)
	// HistorySince returns assignments with assigned_date >= fromDay,
	// newest first, challenges resolved.
	HistorySince(ctx context.Context, userID, fromDay string) ([]models.DailyAssignment, error)
}

type gormAssignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo returns the gorm-backed AssignmentRepo.
func NewAssignmentRepo(db *gorm.DB) AssignmentRepo {
	return &gormAssignmentRepo{db: db}
}

func (r *gormAssignmentRepo) FindByUserDay(ctx context.Context, userID, day string) (*models.DailyAssignment, error) {
	var a models.DailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		First(&a, "user_id = ? AND assigned_date = ?", userID, day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *gormAssignmentRepo) Create(ctx context.Context, a *models.DailyAssignment) error {
	err := r.db.WithContext(ctx).Omit("Challenge").Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *gormAssignmentRepo) MarkCompleted(ctx context.Context, id string, at time.Time, note *string) (bool, error) {
	updates := map[string]interface{}{"completed_at": at}
	if note != nil {
		updates["note"] = *note
	}
	res := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("id = ? AND completed_at IS NULL AND skipped_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormAssignmentRepo) MarkSkipped(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("id = ? AND completed_at IS NULL AND skipped_at IS NULL", id).
		Update("skipped_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormAssignmentRepo) UpdateNote(ctx context.Context, id string, note *string) error {
	return r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("id = ?", id).
		Update("note", note).Error
}

func (r *gormAssignmentRepo) CountCompletedSince(ctx context.Context, userID, fromDay string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("user_id = ? AND completed_at IS NOT NULL AND assigned_date >= ?", userID, fromDay).
		Count(&n).Error
	return n, err
}

func (r *gormAssignmentRepo) CountCompleted(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&n).Error
	return n, err
}

func (r *gormAssignmentRepo) RecentCompletedDays(ctx context.Context, userID string, limit int) ([]string, error) {
	var days []string
	err := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Order("assigned_date DESC").
		Limit(limit).
		Pluck("assigned_date", &days).Error
	return days, err
}

func (r *gormAssignmentRepo) RecentSkippedDays(ctx context.Context, userID string, limit int) ([]string, error) {
	var days []string
	err := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("user_id = ? AND skipped_at IS NOT NULL", userID).
		Order("assigned_date DESC").
		Limit(limit).
		Pluck("assigned_date", &days).Error
	return days, err
}

func (r *gormAssignmentRepo) CompletionTimes(ctx context.Context, userID string, limit int) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.DailyAssignment{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Order("completed_at DESC").
		Limit(limit).
		Pluck("completed_at", &times).Error
	return times, err
}

func (r *gormAssignmentRepo) HistorySince(ctx context.Context, userID, fromDay string) ([]models.DailyAssignment, error) {
	var out []models.DailyAssignment
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ? AND assigned_date >= ?", userID, fromDay).
		Order("assigned_date DESC").
		Find(&out).Error
	return out, err
}
