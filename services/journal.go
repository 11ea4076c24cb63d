package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

const (
	maxEntryLen     = 5000
	journalPageSize = 100
)

// JournalService handles free-form daily journal entries. Entries are
// owner-scoped; one user can never read or touch another's.
type JournalService struct {
	journal repository.JournalRepo
	log     *zap.Logger
}

func NewJournalService(journal repository.JournalRepo, log *zap.Logger) *JournalService {
	return &JournalService{journal: journal, log: log}
}

// List returns the user's entries, newest entry date first.
func (s *JournalService) List(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	return s.journal.ListByUser(ctx, userID, journalPageSize)
}

// ListSince returns the user's entries on or after fromDay.
func (s *JournalService) ListSince(ctx context.Context, userID, fromDay string) ([]models.JournalEntry, error) {
	return s.journal.ListSince(ctx, userID, fromDay)
}

// Create validates and stores a new entry for the given day.
func (s *JournalService) Create(ctx context.Context, userID, entryDate, content string) (*models.JournalEntry, error) {
	day, err := utils.ParseDay(entryDate)
	if err != nil {
		return nil, err
	}
	content, err = validateEntry(content)
	if err != nil {
		return nil, err
	}

	entry := &models.JournalEntry{
		UserID:    userID,
		EntryDate: day,
		Content:   content,
	}
	if err := s.journal.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update replaces an entry's content. Only the owner may edit.
func (s *JournalService) Update(ctx context.Context, userID, entryID, content string) (*models.JournalEntry, error) {
	content, err := validateEntry(content)
	if err != nil {
		return nil, err
	}

	entry, err := s.journal.FindOwned(ctx, entryID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.Content = content
	if err := s.journal.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry. Only the owner may delete.
func (s *JournalService) Delete(ctx context.Context, userID, entryID string) error {
	err := s.journal.Delete(ctx, entryID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}

func validateEntry(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyEntry
	}
	if len(content) > maxEntryLen {
		return "", ErrEntryTooLong
	}
	return utils.Sanitize(content), nil
}
