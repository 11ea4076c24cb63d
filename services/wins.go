package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

const (
	maxWinLen        = 280
	recentWinsLimit  = 50
	winPostsPerMin   = 1
	winLikesPerMin   = 10
	rateLimitWindow  = time.Minute
	anonymousUserKey = "anonymous"
)

// WinsService manages the anonymous public wins feed. Posting and liking are
// rate limited per hashed user identity through the win_events table so the
// limit survives restarts and spans instances.
type WinsService struct {
	wins    repository.WinRepo
	filter  *utils.ProfanityFilter
	emitter events.Emitter
	clock   utils.Clock
	log     *zap.Logger
}

func NewWinsService(wins repository.WinRepo, filter *utils.ProfanityFilter, emitter events.Emitter, clock utils.Clock, log *zap.Logger) *WinsService {
	return &WinsService{wins: wins, filter: filter, emitter: emitter, clock: clock, log: log}
}

// HashUserID reduces a user id to the opaque sha256 hex digest stored with
// rate-limit events. An empty id maps to a shared anonymous bucket.
func HashUserID(userID string) string {
	if userID == "" {
		return anonymousUserKey
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// Create validates, sanitizes and profanity-masks the text, then inserts the
// win and broadcasts it.
func (s *WinsService) Create(ctx context.Context, userID, text string) (*models.Win, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyWin
	}
	if len(text) > maxWinLen {
		return nil, ErrWinTooLong
	}

	userHash := HashUserID(userID)
	if err := s.checkRateLimit(ctx, userHash, models.WinEventPosted, winPostsPerMin); err != nil {
		return nil, err
	}

	win := &models.Win{
		Text: s.filter.Clean(utils.Sanitize(text)),
	}
	if userID != "" {
		uid := userID
		win.UserID = &uid
	}
	if err := s.wins.Create(ctx, win); err != nil {
		return nil, err
	}
	if err := s.recordEvent(ctx, userHash, models.WinEventPosted); err != nil {
		return nil, err
	}

	s.emitter.Emit(events.TopicWinNew, "", win)
	return win, nil
}

// Like increments a win's like counter and broadcasts the new count.
func (s *WinsService) Like(ctx context.Context, winID, userID string) (*models.Win, error) {
	if _, err := s.wins.FindByID(ctx, winID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWinNotFound
		}
		return nil, err
	}

	userHash := HashUserID(userID)
	if err := s.checkRateLimit(ctx, userHash, models.WinEventLiked, winLikesPerMin); err != nil {
		return nil, err
	}

	if err := s.wins.IncrementLikes(ctx, winID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWinNotFound
		}
		return nil, err
	}
	if err := s.recordEvent(ctx, userHash, models.WinEventLiked); err != nil {
		return nil, err
	}

	win, err := s.wins.FindByID(ctx, winID)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(events.TopicWinLike, "", map[string]any{
		"id":    win.ID,
		"likes": win.Likes,
	})
	return win, nil
}

// Recent returns the latest wins, newest first. Limit is capped at 50.
func (s *WinsService) Recent(ctx context.Context, limit int) ([]models.Win, error) {
	if limit <= 0 || limit > recentWinsLimit {
		limit = recentWinsLimit
	}
	return s.wins.Recent(ctx, limit)
}

func (s *WinsService) checkRateLimit(ctx context.Context, userHash, eventType string, limit int64) error {
	since := s.clock.Now().Add(-rateLimitWindow)
	count, err := s.wins.CountEventsSince(ctx, userHash, eventType, since)
	if err != nil {
		return err
	}
	if count >= limit {
		s.log.Warn("wins rate limit hit",
			zap.String("user_hash", userHash),
			zap.String("type", eventType))
		return ErrRateLimited
	}
	return nil
}

func (s *WinsService) recordEvent(ctx context.Context, userHash, eventType string) error {
	return s.wins.RecordEvent(ctx, &models.WinEvent{
		UserHash:  userHash,
		Type:      eventType,
		CreatedAt: s.clock.Now(),
	})
}
