package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

func newAssignmentService(store *repository.MemoryStore, clock utils.Clock) *AssignmentService {
	stats := NewStatsService(store.Assignments(), store.Stats(), clock, zap.NewNop())
	return NewAssignmentService(
		store.Assignments(), store.Challenges(), stats,
		events.NopEmitter{}, clock, func(n int) int { return 0 }, zap.NewNop(),
	)
}

func seedCatalog(store *repository.MemoryStore) map[int]models.Challenge {
	byDifficulty := map[int]models.Challenge{}
	specs := []struct {
		slug     string
		category string
		diff     int
	}{
		{"smile-at-someone", models.CategoryInteraction, 1},
		{"greet-a-stranger", models.CategoryInteraction, 2},
		{"give-a-compliment", models.CategoryInteraction, 3},
		{"speak-up-in-a-group", models.CategoryInteraction, 4},
		{"invite-someone", models.CategoryInteraction, 5},
	}
	for _, sp := range specs {
		byDifficulty[sp.diff] = store.AddChallenge(models.Challenge{
			Slug: sp.slug, Category: sp.category, Difficulty: sp.diff,
			Text: sp.slug, IsActive: true,
		})
	}
	return byDifficulty
}

func TestDifficultyRange(t *testing.T) {
	cases := []struct {
		score    int
		min, max int
	}{
		{0, 1, 2}, {20, 1, 2}, {21, 2, 3}, {50, 2, 3}, {51, 3, 4}, {80, 3, 4}, {81, 4, 5}, {100, 4, 5},
	}
	for _, c := range cases {
		min, max := DifficultyRange(c.score)
		assert.Equal(t, c.min, min, "score %d", c.score)
		assert.Equal(t, c.max, max, "score %d", c.score)
	}
}

func TestAssignmentService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("FreshUserGetsEasiestChallenge", func(t *testing.T) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		svc := newAssignmentService(store, newFakeClock())

		a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, a.Challenge)
		assert.Equal(t, 1, a.Challenge.Difficulty)
		assert.Equal(t, models.StatusPending, a.Status())
	})

	t.Run("SameDayIsIdempotent", func(t *testing.T) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		svc := newAssignmentService(store, newFakeClock())

		first, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		second, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("ConcurrentRequestsShareOneRow", func(t *testing.T) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		svc := newAssignmentService(store, newFakeClock())

		const workers = 8
		ids := make([]string, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
				if assert.NoError(t, err) {
					ids[i] = a.ID
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids[1:] {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("CatchUpLowersDifficultyAfterAbsence", func(t *testing.T) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		svc := newAssignmentService(store, newFakeClock())

		stats, err := store.Stats().GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		stats.ComfortScore = 60
		require.NoError(t, store.Stats().Save(ctx, stats))

		// no completions in the trailing three days: 60 - 20 = 40, band 2..3
		a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, a.Challenge)
		assert.GreaterOrEqual(t, a.Challenge.Difficulty, 2)
		assert.LessOrEqual(t, a.Challenge.Difficulty, 3)
	})

	t.Run("ActiveUserKeepsFullBand", func(t *testing.T) {
		store := repository.NewMemoryStore()
		catalog := seedCatalog(store)
		clock := newFakeClock()
		svc := newAssignmentService(store, clock)

		stats, err := store.Stats().GetOrCreate(ctx, "u1")
		require.NoError(t, err)
		stats.ComfortScore = 60
		require.NoError(t, store.Stats().Save(ctx, stats))

		// two completions inside the window keep the score at 60, band 3..4.
		// The prior days use a different category so exclusion does not bite.
		reflect := store.AddChallenge(models.Challenge{
			Slug: "one-line-about-today", Category: models.CategoryReflect,
			Difficulty: 1, Text: "One line.", IsActive: true,
		})
		for _, day := range []string{"2026-03-08", "2026-03-09"} {
			a := &models.DailyAssignment{UserID: "u1", ChallengeID: reflect.ID, AssignedDate: day}
			require.NoError(t, store.Assignments().Create(ctx, a))
			ok, err := store.Assignments().MarkCompleted(ctx, a.ID, clock.Now(), nil)
			require.NoError(t, err)
			require.True(t, ok)
		}

		a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, a.Challenge)
		assert.GreaterOrEqual(t, a.Challenge.Difficulty, 3)
		assert.LessOrEqual(t, a.Challenge.Difficulty, 4)
		assert.Equal(t, catalog[3].Category, a.Challenge.Category)
	})

	t.Run("RecentCategoriesExcluded", func(t *testing.T) {
		store := repository.NewMemoryStore()
		interaction := store.AddChallenge(models.Challenge{
			Slug: "smile-at-someone", Category: models.CategoryInteraction,
			Difficulty: 1, Text: "Smile.", IsActive: true,
		})
		visual := store.AddChallenge(models.Challenge{
			Slug: "take-one-photo", Category: models.CategoryVisual,
			Difficulty: 1, Text: "Photo.", IsActive: true,
		})
		svc := newAssignmentService(store, newFakeClock())

		yesterday := &models.DailyAssignment{UserID: "u1", ChallengeID: interaction.ID, AssignedDate: "2026-03-09"}
		require.NoError(t, store.Assignments().Create(ctx, yesterday))

		a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, a.Challenge)
		assert.Equal(t, visual.ID, a.Challenge.ID)
	})

	t.Run("ExclusionDroppedBeforeFailing", func(t *testing.T) {
		store := repository.NewMemoryStore()
		only := store.AddChallenge(models.Challenge{
			Slug: "invite-someone", Category: models.CategoryInteraction,
			Difficulty: 5, Text: "Invite.", IsActive: true,
		})
		svc := newAssignmentService(store, newFakeClock())

		yesterday := &models.DailyAssignment{UserID: "u1", ChallengeID: only.ID, AssignedDate: "2026-03-09"}
		require.NoError(t, store.Assignments().Create(ctx, yesterday))

		// the only active challenge is both out of band and in an excluded
		// category; the cascade must still hand it out
		a, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		require.NoError(t, err)
		require.NotNil(t, a.Challenge)
		assert.Equal(t, only.ID, a.Challenge.ID)
	})

	t.Run("EmptyCatalogFails", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newAssignmentService(store, newFakeClock())

		_, err := svc.GetOrCreate(ctx, "u1", "2026-03-10")
		assert.ErrorIs(t, err, ErrNoChallengesAvailable)
	})
}

func TestAssignmentService_CompleteAndSkip(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*AssignmentService, *repository.MemoryStore, *fakeClock, string) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		clock := newFakeClock()
		svc := newAssignmentService(store, clock)
		day := utils.DayOf(clock.Now())
		_, err := svc.GetOrCreate(ctx, "u1", day)
		require.NoError(t, err)
		return svc, store, clock, day
	}

	t.Run("CompleteUpdatesStats", func(t *testing.T) {
		svc, _, _, day := setup(t)

		a, stats, err := svc.Complete(ctx, "u1", day, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, a.Status())
		assert.Equal(t, 1, stats.CurrentStreak)
		assert.Equal(t, 1, stats.LongestStreak)
		assert.Equal(t, 2, stats.ComfortScore)
		assert.Contains(t, []string(stats.Badges), "first_completion")
	})

	t.Run("CompleteTwiceRejected", func(t *testing.T) {
		svc, _, _, day := setup(t)

		_, _, err := svc.Complete(ctx, "u1", day, nil)
		require.NoError(t, err)
		_, _, err = svc.Complete(ctx, "u1", day, nil)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("SkipAfterCompleteRejected", func(t *testing.T) {
		svc, _, _, day := setup(t)

		_, _, err := svc.Complete(ctx, "u1", day, nil)
		require.NoError(t, err)
		_, _, err = svc.Skip(ctx, "u1", day)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("CompleteAfterSkipRejected", func(t *testing.T) {
		svc, _, _, day := setup(t)

		a, _, err := svc.Skip(ctx, "u1", day)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSkipped, a.Status())
		_, _, err = svc.Complete(ctx, "u1", day, nil)
		assert.ErrorIs(t, err, ErrAlreadySkipped)
	})

	t.Run("SkipDoesNotStartStreak", func(t *testing.T) {
		svc, _, _, day := setup(t)

		_, stats, err := svc.Skip(ctx, "u1", day)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.CurrentStreak)
		assert.Equal(t, 0, stats.ComfortScore)
	})

	t.Run("NoAssignmentForDay", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		_, _, err := svc.Complete(ctx, "u1", "2026-01-01", nil)
		assert.ErrorIs(t, err, ErrNoActiveChallenge)
	})

	t.Run("NoteValidation", func(t *testing.T) {
		svc, _, _, day := setup(t)

		blank := "   "
		_, _, err := svc.Complete(ctx, "u1", day, &blank)
		assert.ErrorIs(t, err, ErrEmptyNote)

		long := strings.Repeat("a", maxNoteLen+1)
		_, _, err = svc.Complete(ctx, "u1", day, &long)
		assert.ErrorIs(t, err, ErrNoteTooLong)

		dirty := `felt good <script>alert("x")</script> today`
		a, _, err := svc.Complete(ctx, "u1", day, &dirty)
		require.NoError(t, err)
		require.NotNil(t, a.Note)
		assert.NotContains(t, *a.Note, "<script>")
	})
}

func TestAssignmentService_UpdateNote(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedCatalog(store)
	clock := newFakeClock()
	svc := newAssignmentService(store, clock)
	day := utils.DayOf(clock.Now())

	_, err := svc.GetOrCreate(ctx, "u1", day)
	require.NoError(t, err)

	t.Run("PendingAssignmentRejected", func(t *testing.T) {
		note := "too early"
		_, err := svc.UpdateNote(ctx, "u1", day, &note)
		assert.ErrorIs(t, err, ErrNoActiveChallenge)
	})

	note := "first version"
	_, _, err = svc.Complete(ctx, "u1", day, &note)
	require.NoError(t, err)

	t.Run("EditInsideWindow", func(t *testing.T) {
		clock.Advance(23 * time.Hour)
		edited := "second version"
		a, err := svc.UpdateNote(ctx, "u1", day, &edited)
		require.NoError(t, err)
		require.NotNil(t, a.Note)
		assert.Equal(t, "second version", *a.Note)
	})

	t.Run("ClearNote", func(t *testing.T) {
		a, err := svc.UpdateNote(ctx, "u1", day, nil)
		require.NoError(t, err)
		assert.Nil(t, a.Note)
	})

	t.Run("WindowExpires", func(t *testing.T) {
		clock.Advance(61 * time.Minute)
		late := "too late"
		_, err := svc.UpdateNote(ctx, "u1", day, &late)
		assert.ErrorIs(t, err, ErrNoteEditWindowExpired)
	})

	t.Run("SkippedAssignmentRejected", func(t *testing.T) {
		otherDay := utils.AddDays(day, 1)
		_, err := svc.GetOrCreate(ctx, "u1", otherDay)
		require.NoError(t, err)
		_, _, err = svc.Skip(ctx, "u1", otherDay)
		require.NoError(t, err)

		note := "skipped anyway"
		_, err = svc.UpdateNote(ctx, "u1", otherDay, &note)
		assert.ErrorIs(t, err, ErrAlreadySkipped)
	})

	t.Run("MissingDayRejected", func(t *testing.T) {
		note := "nothing here"
		_, err := svc.UpdateNote(ctx, "u1", "2026-01-01", &note)
		assert.ErrorIs(t, err, ErrNoActiveChallenge)
	})
}
