package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// fakeClock drives the services deterministically in tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)}
}

func TestStreakFromHistory(t *testing.T) {
	today := "2026-03-10"

	t.Run("NoCompletions", func(t *testing.T) {
		assert.Equal(t, 0, StreakFromHistory(today, nil, nil))
	})

	t.Run("CompletedToday", func(t *testing.T) {
		assert.Equal(t, 1, StreakFromHistory(today, []string{"2026-03-10"}, nil))
	})

	t.Run("GraceForYesterday", func(t *testing.T) {
		assert.Equal(t, 1, StreakFromHistory(today, []string{"2026-03-09"}, nil))
	})

	t.Run("StaleHistoryIsZero", func(t *testing.T) {
		assert.Equal(t, 0, StreakFromHistory(today, []string{"2026-03-08", "2026-03-07"}, nil))
	})

	t.Run("GapEndsWalk", func(t *testing.T) {
		completed := []string{"2026-03-10", "2026-03-09", "2026-03-07"}
		assert.Equal(t, 2, StreakFromHistory(today, completed, nil))
	})

	t.Run("SkippedDayPassesThrough", func(t *testing.T) {
		completed := []string{"2026-03-10", "2026-03-08"}
		skipped := []string{"2026-03-09"}
		assert.Equal(t, 2, StreakFromHistory(today, completed, skipped))
	})

	t.Run("SkippedDayDoesNotCount", func(t *testing.T) {
		skipped := []string{"2026-03-10", "2026-03-09"}
		completed := []string{"2026-03-09"}
		assert.Equal(t, 1, StreakFromHistory(today, completed, skipped))
	})

	t.Run("CappedAtLookback", func(t *testing.T) {
		var completed []string
		day := today
		for i := 0; i < 150; i++ {
			completed = append(completed, day)
			day = utils.AddDays(day, -1)
		}
		assert.Equal(t, streakLookback, StreakFromHistory(today, completed, nil))
	})
}

func TestComfortScoreFromCompletions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("NoCompletionsIsZero", func(t *testing.T) {
		assert.Equal(t, 0, ComfortScoreFromCompletions(now, nil))
	})

	t.Run("SingleRecentCompletion", func(t *testing.T) {
		score := ComfortScoreFromCompletions(now, []time.Time{now.Add(-time.Hour)})
		assert.Equal(t, 2, score)
	})

	t.Run("TenRecentCompletionsGetFullBoost", func(t *testing.T) {
		var completions []time.Time
		for i := 0; i < 10; i++ {
			completions = append(completions, now.Add(-time.Duration(i)*time.Hour))
		}
		// base 20 boosted by the max 1.2 activity factor
		assert.Equal(t, 24, ComfortScoreFromCompletions(now, completions))
	})

	t.Run("InactivityDecays", func(t *testing.T) {
		var completions []time.Time
		for i := 0; i < 10; i++ {
			completions = append(completions, now.Add(-20*24*time.Hour))
		}
		// base 20, no boost, 13 days past the grace week: 20 * 0.74
		assert.Equal(t, 15, ComfortScoreFromCompletions(now, completions))
	})

	t.Run("DecayFloor", func(t *testing.T) {
		var completions []time.Time
		for i := 0; i < 10; i++ {
			completions = append(completions, now.Add(-60*24*time.Hour))
		}
		// decay bottoms out at 0.7 no matter how long the absence
		assert.Equal(t, 14, ComfortScoreFromCompletions(now, completions))
	})

	t.Run("ClampedAt100", func(t *testing.T) {
		var completions []time.Time
		for i := 0; i < 200; i++ {
			completions = append(completions, now.Add(-time.Duration(i)*time.Minute))
		}
		assert.Equal(t, 100, ComfortScoreFromCompletions(now, completions))
	})
}

func TestNewBadges(t *testing.T) {
	t.Run("FirstCompletion", func(t *testing.T) {
		got := NewBadges(1, 1, 1, models.BadgeList{})
		assert.Equal(t, []string{"first_completion"}, got)
	})

	t.Run("AlreadyEarnedNotRepeated", func(t *testing.T) {
		got := NewBadges(1, 1, 1, models.BadgeList{"first_completion"})
		assert.Empty(t, got)
	})

	t.Run("MultipleThresholds", func(t *testing.T) {
		got := NewBadges(10, 7, 10, models.BadgeList{})
		assert.Equal(t, []string{
			"first_completion",
			"first_week",
			"ten_completions",
			"seven_day_streak",
			"longest_streak_10",
		}, got)
	})
}

func TestBadgeName(t *testing.T) {
	assert.Equal(t, "First Step", BadgeName("first_completion"))
	assert.Equal(t, "unknown_badge", BadgeName("unknown_badge"))
}

func TestStatsService_UpdateAll(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	clock := newFakeClock()
	svc := NewStatsService(store.Assignments(), store.Stats(), clock, zap.NewNop())

	ch := store.AddChallenge(models.Challenge{
		Slug: "notice-one-conversation", Category: models.CategoryAwareness, Difficulty: 1,
		Text: "Notice one conversation.", IsActive: true,
	})

	today := utils.DayOf(clock.Now())
	yesterday := utils.AddDays(today, -1)

	completeOn := func(day string, at time.Time) {
		a := &models.DailyAssignment{UserID: "u1", ChallengeID: ch.ID, AssignedDate: day}
		require.NoError(t, store.Assignments().Create(ctx, a))
		ok, err := store.Assignments().MarkCompleted(ctx, a.ID, at, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}
	completeOn(yesterday, clock.Now().Add(-24*time.Hour))
	completeOn(today, clock.Now())

	stats, err := svc.UpdateAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 2, stats.LongestStreak)
	assert.Equal(t, 5, stats.ComfortScore)
	assert.Equal(t, models.BadgeList{"first_completion"}, stats.Badges)

	t.Run("BadgesAreIdempotent", func(t *testing.T) {
		again, err := svc.UpdateAll(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, models.BadgeList{"first_completion"}, again.Badges)
	})

	t.Run("LongestStreakOnlyRatchets", func(t *testing.T) {
		row, err := store.Stats().GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		row.LongestStreak = 50
		require.NoError(t, store.Stats().Save(ctx, row))

		stats, err := svc.UpdateAll(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, stats.CurrentStreak)
		assert.Equal(t, 50, stats.LongestStreak)
	})
}
