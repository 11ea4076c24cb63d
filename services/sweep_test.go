package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsEveryUserOnce", func(t *testing.T) {
		store := repository.NewMemoryStore()
		seedCatalog(store)
		clock := newFakeClock()
		svc := newAssignmentService(store, clock)
		sweeper := NewSweeper(store.Users(), svc, clock, zap.NewNop())

		for i := 0; i < 3; i++ {
			require.NoError(t, store.Users().Create(ctx, &models.User{}))
		}
		day := utils.DayOf(clock.Now())

		result, err := sweeper.Sweep(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Assigned)
		assert.Equal(t, 0, result.Existing)
		assert.Equal(t, 0, result.Failed)

		// second pass finds every assignment already in place
		result, err = sweeper.Sweep(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Assigned)
		assert.Equal(t, 3, result.Existing)
	})

	t.Run("PerUserFailuresDoNotAbort", func(t *testing.T) {
		store := repository.NewMemoryStore()
		clock := newFakeClock()
		svc := newAssignmentService(store, clock)
		sweeper := NewSweeper(store.Users(), svc, clock, zap.NewNop())

		user := &models.User{}
		require.NoError(t, store.Users().Create(ctx, user))
		require.NoError(t, store.Users().Create(ctx, &models.User{}))

		// one user already has a row; the empty catalog fails the other
		ch := store.AddChallenge(models.Challenge{
			Slug: "smile-at-someone", Category: models.CategoryInteraction,
			Difficulty: 1, Text: "Smile.", IsActive: false,
		})
		day := utils.DayOf(clock.Now())
		require.NoError(t, store.Assignments().Create(ctx, &models.DailyAssignment{
			UserID: user.ID, ChallengeID: ch.ID, AssignedDate: day,
		}))

		result, err := sweeper.Sweep(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Existing)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 0, result.Assigned)
	})
}
