package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/daystep/daystep/models"
)

// JournalRepo stores free-form dated entries, always owner-scoped.
type JournalRepo interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)
	ListSince(ctx context.Context, userID, fromDay string) ([]models.JournalEntry, error)
	Create(ctx context.Context, entry *models.JournalEntry) error
	// FindOwned returns the entry only when it belongs to userID.
	FindOwned(ctx context.Context, id, userID string) (*models.JournalEntry, error)
	Update(ctx context.Context, entry *models.JournalEntry) error
	Delete(ctx context.Context, id, userID string) error
}

type gormJournalRepo struct {
	db *gorm.DB
}

// NewJournalRepo returns the gorm-backed JournalRepo.
func NewJournalRepo(db *gorm.DB) JournalRepo {
	return &gormJournalRepo{db: db}
}

func (r *gormJournalRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *gormJournalRepo) ListSince(ctx context.Context, userID, fromDay string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND entry_date >= ?", userID, fromDay).
		Order("entry_date DESC").
		Find(&entries).Error
	return entries, err
}

func (r *gormJournalRepo) Create(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormJournalRepo) FindOwned(ctx context.Context, id, userID string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *gormJournalRepo) Update(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *gormJournalRepo) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.JournalEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
