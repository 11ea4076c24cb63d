package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// streakLookback bounds how far back the streak walk goes. Completed and
// skipped day sets are loaded with the same bound.
const streakLookback = 100

// Badge pairs a stable identifier with its display name.
type Badge struct {
	ID   string
	Name string
}

type badgeCheck struct {
	Badge
	earned func(totalCompleted int64, currentStreak, longestStreak int) bool
}

// badgeTable is the fixed award table. Order is the award order; checks are
// threshold-based so an already-earned badge can never un-earn.
var badgeTable = []badgeCheck{
	{Badge{"first_completion", "First Step"}, func(c int64, _, _ int) bool { return c >= 1 }},
	{Badge{"first_week", "First Week"}, func(c int64, _, _ int) bool { return c >= 7 }},
	{Badge{"ten_completions", "Ten Completions"}, func(c int64, _, _ int) bool { return c >= 10 }},
	{Badge{"thirty_completions", "Thirty Completions"}, func(c int64, _, _ int) bool { return c >= 30 }},
	{Badge{"fifty_completions", "Fifty Completions"}, func(c int64, _, _ int) bool { return c >= 50 }},
	{Badge{"hundred_completions", "Century"}, func(c int64, _, _ int) bool { return c >= 100 }},
	{Badge{"seven_day_streak", "Week Warrior"}, func(_ int64, s, _ int) bool { return s >= 7 }},
	{Badge{"thirty_day_streak", "Month Master"}, func(_ int64, s, _ int) bool { return s >= 30 }},
	{Badge{"longest_streak_10", "Streak Starter"}, func(_ int64, _, l int) bool { return l >= 10 }},
	{Badge{"longest_streak_30", "Streak Champion"}, func(_ int64, _, l int) bool { return l >= 30 }},
}

// BadgeName resolves a badge id to its display name, falling back to the id.
func BadgeName(id string) string {
	for _, b := range badgeTable {
		if b.ID == id {
			return b.Name
		}
	}
	return id
}

// StreakFromHistory walks backward from today counting consecutive completed
// days. Skipped days pass through without counting; a day that is neither
// completed nor skipped ends the walk. The streak survives one day of grace:
// if the most recent completion is older than yesterday it is 0.
func StreakFromHistory(today string, completedDays, skippedDays []string) int {
	if len(completedDays) == 0 {
		return 0
	}

	completed := make(map[string]bool, len(completedDays))
	mostRecent := ""
	for _, d := range completedDays {
		completed[d] = true
		if d > mostRecent {
			mostRecent = d
		}
	}
	skipped := make(map[string]bool, len(skippedDays))
	for _, d := range skippedDays {
		skipped[d] = true
	}

	if utils.DaysBetween(mostRecent, today) > 1 {
		return 0
	}

	day := today
	if !completed[day] {
		day = utils.AddDays(day, -1)
	}

	streak := 0
	for i := 0; i < streakLookback; i++ {
		switch {
		case completed[day]:
			streak++
		case skipped[day]:
			// pass through, no count
		default:
			return streak
		}
		day = utils.AddDays(day, -1)
	}
	return streak
}

// ComfortScoreFromCompletions derives the 0..100 comfort score from
// completion timestamps (most recent first). The base score is a piecewise
// function of total completions, boosted up to 20% by activity in the last
// 7 days and decayed 2% per day of inactivity beyond 7 days (floor 30% off).
func ComfortScoreFromCompletions(now time.Time, completions []time.Time) int {
	total := len(completions)
	if total == 0 {
		return 0
	}

	var base float64
	switch {
	case total <= 10:
		base = minF(20, float64(total)*2)
	case total <= 30:
		base = minF(50, 20+float64(total-10)*1.5)
	case total <= 60:
		base = minF(80, 50+float64(total-30)*1)
	default:
		base = minF(100, 80+float64(total-60)*0.5)
	}

	recent := 0
	for _, t := range completions {
		if daysAgo(now, t) <= 7 {
			recent++
		}
	}
	factor := minF(1.2, 1.0+float64(recent)/float64(total)*0.2)
	score := base * factor

	last := completions[0]
	for _, t := range completions {
		if t.After(last) {
			last = t
		}
	}
	if over := daysAgo(now, last) - 7; over > 0 {
		decay := 1.0 - float64(over)*0.02
		if decay < 0.7 {
			decay = 0.7
		}
		score *= decay
	}

	rounded := int(score + 0.5)
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func daysAgo(now, t time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// NewBadges returns the badges from the award table that are earned by the
// given counters but not yet present in already.
func NewBadges(totalCompleted int64, currentStreak, longestStreak int, already models.BadgeList) []string {
	var out []string
	for _, b := range badgeTable {
		if already.Contains(b.ID) {
			continue
		}
		if b.earned(totalCompleted, currentStreak, longestStreak) {
			out = append(out, b.ID)
		}
	}
	return out
}

// StatsService recomputes user statistics from assignment history. Stored
// stats rows are a cache of that computation, never the source of truth,
// with the one exception of longest_streak which only ever ratchets up.
type StatsService struct {
	assignments repository.AssignmentRepo
	stats       repository.StatsRepo
	clock       utils.Clock
	log         *zap.Logger
}

func NewStatsService(assignments repository.AssignmentRepo, stats repository.StatsRepo, clock utils.Clock, log *zap.Logger) *StatsService {
	return &StatsService{assignments: assignments, stats: stats, clock: clock, log: log}
}

// GetOrCreate returns the user's stats row, lazily creating a zero-valued one.
func (s *StatsService) GetOrCreate(ctx context.Context, userID string) (*models.UserStats, error) {
	return s.stats.GetOrCreate(ctx, userID)
}

// RecomputeStreak rebuilds current_streak from history and ratchets
// longest_streak.
func (s *StatsService) RecomputeStreak(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.assignments.RecentCompletedDays(ctx, userID, streakLookback)
	if err != nil {
		return nil, err
	}
	skipped, err := s.assignments.RecentSkippedDays(ctx, userID, streakLookback)
	if err != nil {
		return nil, err
	}

	stats.CurrentStreak = StreakFromHistory(utils.DayOf(s.clock.Now()), completed, skipped)
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	if err := s.stats.Save(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// RecomputeComfortScore rebuilds comfort_score from completion timestamps.
func (s *StatsService) RecomputeComfortScore(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	completions, err := s.assignments.CompletionTimes(ctx, userID, streakLookback)
	if err != nil {
		return nil, err
	}
	stats.ComfortScore = ComfortScoreFromCompletions(s.clock.Now(), completions)
	if err := s.stats.Save(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// CheckAndAwardBadges awards any newly earned badges and returns them along
// with the full badge list. Awarding is idempotent.
func (s *StatsService) CheckAndAwardBadges(ctx context.Context, userID string) (newBadges []string, all models.BadgeList, err error) {
	stats, err := s.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	total, err := s.assignments.CountCompleted(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	newBadges = NewBadges(total, stats.CurrentStreak, stats.LongestStreak, stats.Badges)
	if len(newBadges) > 0 {
		stats.Badges = append(stats.Badges, newBadges...)
		if err := s.stats.Save(ctx, stats); err != nil {
			return nil, nil, err
		}
		s.log.Info("badges awarded",
			zap.String("user_id", userID),
			zap.Strings("badges", newBadges))
	}
	return newBadges, stats.Badges, nil
}

// UpdateAll recomputes everything in dependency order: comfort score first,
// then streak, then badges (which read both).
func (s *StatsService) UpdateAll(ctx context.Context, userID string) (*models.UserStats, error) {
	if _, err := s.RecomputeComfortScore(ctx, userID); err != nil {
		return nil, err
	}
	stats, err := s.RecomputeStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, all, err := s.CheckAndAwardBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.Badges = all
	return stats, nil
}
