package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

const (
	maxNoteLen     = 2000
	noteEditWindow = 24 * time.Hour

	// Both the catch-up completion count and the category exclusion set
	// look at the trailing three days.
	catchUpLookbackDays  = 3
	categoryLookbackDays = 3
)

// RandFunc picks a uniform index in [0, n). Injected so tests can pin the
// selection; production wires math/rand.
type RandFunc func(n int) int

// DifficultyRange maps a comfort score onto the difficulty band challenges
// are drawn from.
func DifficultyRange(comfortScore int) (min, max int) {
	switch {
	case comfortScore <= 20:
		return 1, 2
	case comfortScore <= 50:
		return 2, 3
	case comfortScore <= 80:
		return 3, 4
	default:
		return 4, 5
	}
}

// AssignmentService owns the daily challenge lifecycle: adaptive assignment,
// completion, skipping and note edits. All collaborators are injected.
type AssignmentService struct {
	assignments repository.AssignmentRepo
	challenges  repository.ChallengeRepo
	stats       *StatsService
	emitter     events.Emitter
	clock       utils.Clock
	randInt     RandFunc
	log         *zap.Logger
}

func NewAssignmentService(
	assignments repository.AssignmentRepo,
	challenges repository.ChallengeRepo,
	stats *StatsService,
	emitter events.Emitter,
	clock utils.Clock,
	randInt RandFunc,
	log *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		challenges:  challenges,
		stats:       stats,
		emitter:     emitter,
		clock:       clock,
		randInt:     randInt,
		log:         log,
	}
}

// GetOrCreate returns the user's assignment for the given day, creating one
// when absent. Repeated calls for the same (user, day) return the same row;
// concurrent calls race on the unique index and the losers adopt the winner.
func (s *AssignmentService) GetOrCreate(ctx context.Context, userID, day string) (*models.DailyAssignment, error) {
	existing, err := s.assignments.FindByUserDay(ctx, userID, day)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	stats, err := s.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	adjusted, err := s.adjustedComfortScore(ctx, userID, day, stats.ComfortScore)
	if err != nil {
		return nil, err
	}
	minDiff, maxDiff := DifficultyRange(adjusted)
	preferFirstLevel := adjusted == 0

	exclude, err := s.recentCategories(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	eligible, err := s.eligibleChallenges(ctx, preferFirstLevel, minDiff, maxDiff, exclude)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		s.log.Error("challenge catalog is empty, cannot assign",
			zap.String("user_id", userID), zap.String("day", day))
		return nil, ErrNoChallengesAvailable
	}

	selected := eligible[s.randInt(len(eligible))]
	assignment := &models.DailyAssignment{
		UserID:       userID,
		ChallengeID:  selected.ID,
		AssignedDate: day,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent request won the insert race; its row is the
			// assignment of record.
			return s.assignments.FindByUserDay(ctx, userID, day)
		}
		return nil, err
	}

	ch := selected
	assignment.Challenge = &ch
	s.log.Info("challenge assigned",
		zap.String("user_id", userID),
		zap.String("day", day),
		zap.String("challenge", selected.Slug),
		zap.Int("difficulty", selected.Difficulty))
	return assignment, nil
}

// adjustedComfortScore applies the catch-up rule: few completions over the
// trailing three days pull the effective score down so returning users get
// easier challenges.
func (s *AssignmentService) adjustedComfortScore(ctx context.Context, userID, day string, score int) (int, error) {
	from := utils.AddDays(day, -catchUpLookbackDays)
	recent, err := s.assignments.CountCompletedSince(ctx, userID, from)
	if err != nil {
		return 0, err
	}
	switch recent {
	case 0:
		score -= 20
	case 1:
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}

// recentCategories collects the categories assigned over the previous
// three days so consecutive days vary.
func (s *AssignmentService) recentCategories(ctx context.Context, userID, day string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for i := 1; i <= categoryLookbackDays; i++ {
		past, err := s.assignments.FindByUserDay(ctx, userID, utils.AddDays(day, -i))
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if past.Challenge != nil && !seen[past.Challenge.Category] {
			seen[past.Challenge.Category] = true
			out = append(out, past.Challenge.Category)
		}
	}
	return out, nil
}

// eligibleChallenges runs the selection cascade: preferred difficulty with
// exclusions, band with exclusions, then the same two without exclusions,
// then any active challenge. Empty only when the catalog has no active rows.
func (s *AssignmentService) eligibleChallenges(ctx context.Context, preferFirstLevel bool, minDiff, maxDiff int, exclude []string) ([]models.Challenge, error) {
	if preferFirstLevel {
		found, err := s.challenges.FindActive(ctx, repository.ChallengeFilter{Difficulty: 1, ExcludeCategories: exclude})
		if err != nil || len(found) > 0 {
			return found, err
		}
	}
	found, err := s.challenges.FindActive(ctx, repository.ChallengeFilter{MinDifficulty: minDiff, MaxDifficulty: maxDiff, ExcludeCategories: exclude})
	if err != nil || len(found) > 0 {
		return found, err
	}
	if preferFirstLevel {
		found, err = s.challenges.FindActive(ctx, repository.ChallengeFilter{Difficulty: 1})
		if err != nil || len(found) > 0 {
			return found, err
		}
	}
	found, err = s.challenges.FindActive(ctx, repository.ChallengeFilter{MinDifficulty: minDiff, MaxDifficulty: maxDiff})
	if err != nil || len(found) > 0 {
		return found, err
	}
	return s.challenges.FindActive(ctx, repository.ChallengeFilter{})
}

// Complete marks the day's assignment completed, with an optional note, then
// recomputes stats and emits a progress update.
func (s *AssignmentService) Complete(ctx context.Context, userID, day string, note *string) (*models.DailyAssignment, *models.UserStats, error) {
	note, err := validateNote(note)
	if err != nil {
		return nil, nil, err
	}

	assignment, err := s.assignments.FindByUserDay(ctx, userID, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNoActiveChallenge
	}
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.assignments.MarkCompleted(ctx, assignment.ID, s.clock.Now(), note)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, s.transitionConflict(ctx, userID, day)
	}

	stats, err := s.refreshStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.reload(ctx, userID, day, stats)
}

// Skip marks the day's assignment skipped. Skipped days pass through the
// streak walk without counting.
func (s *AssignmentService) Skip(ctx context.Context, userID, day string) (*models.DailyAssignment, *models.UserStats, error) {
	assignment, err := s.assignments.FindByUserDay(ctx, userID, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNoActiveChallenge
	}
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.assignments.MarkSkipped(ctx, assignment.ID, s.clock.Now())
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, s.transitionConflict(ctx, userID, day)
	}

	stats, err := s.refreshStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.reload(ctx, userID, day, stats)
}

// UpdateNote edits or clears the note on a completed assignment within 24
// hours of completion. A nil note clears it.
func (s *AssignmentService) UpdateNote(ctx context.Context, userID, day string, note *string) (*models.DailyAssignment, error) {
	if note != nil {
		var err error
		if note, err = validateNote(note); err != nil {
			return nil, err
		}
	}

	assignment, err := s.assignments.FindByUserDay(ctx, userID, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveChallenge
	}
	if err != nil {
		return nil, err
	}

	switch assignment.Status() {
	case models.StatusPending:
		return nil, ErrNoActiveChallenge
	case models.StatusSkipped:
		return nil, ErrAlreadySkipped
	}
	if s.clock.Now().Sub(*assignment.CompletedAt) >= noteEditWindow {
		return nil, ErrNoteEditWindowExpired
	}

	if err := s.assignments.UpdateNote(ctx, assignment.ID, note); err != nil {
		return nil, err
	}
	return s.assignments.FindByUserDay(ctx, userID, day)
}

// transitionConflict re-reads after a zero-row conditional update and names
// the state that blocked the transition.
func (s *AssignmentService) transitionConflict(ctx context.Context, userID, day string) error {
	current, err := s.assignments.FindByUserDay(ctx, userID, day)
	if err != nil {
		return err
	}
	switch current.Status() {
	case models.StatusCompleted:
		return ErrAlreadyCompleted
	case models.StatusSkipped:
		return ErrAlreadySkipped
	default:
		return fmt.Errorf("assignment %s transition rejected in pending state", current.ID)
	}
}

func (s *AssignmentService) refreshStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.stats.UpdateAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(events.TopicProgressUpdate, userID, map[string]any{
		"current_streak": stats.CurrentStreak,
		"comfort_score":  stats.ComfortScore,
	})
	return stats, nil
}

func (s *AssignmentService) reload(ctx context.Context, userID, day string, stats *models.UserStats) (*models.DailyAssignment, *models.UserStats, error) {
	assignment, err := s.assignments.FindByUserDay(ctx, userID, day)
	if err != nil {
		return nil, nil, err
	}
	return assignment, stats, nil
}

// validateNote trims, bounds and sanitizes an optional note.
func validateNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, ErrEmptyNote
	}
	if len(trimmed) > maxNoteLen {
		return nil, ErrNoteTooLong
	}
	clean := utils.Sanitize(trimmed)
	return &clean, nil
}
