package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

func newWinsService(store *repository.MemoryStore, clock utils.Clock, filterEnabled bool) *WinsService {
	filter := utils.NewProfanityFilter(filterEnabled, []string{"frogspit"})
	return NewWinsService(store.Wins(), filter, events.NopEmitter{}, clock, zap.NewNop())
}

func TestHashUserID(t *testing.T) {
	assert.Equal(t, "anonymous", HashUserID(""))
	assert.Len(t, HashUserID("u1"), 64)
	assert.Equal(t, HashUserID("u1"), HashUserID("u1"))
	assert.NotEqual(t, HashUserID("u1"), HashUserID("u2"))
}

func TestWinsService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidWinStored", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), true)

		win, err := svc.Create(ctx, "u1", "  I said hi to a neighbor  ")
		require.NoError(t, err)
		assert.Equal(t, "I said hi to a neighbor", win.Text)
		require.NotNil(t, win.UserID)
		assert.Equal(t, "u1", *win.UserID)
	})

	t.Run("AnonymousWinHasNoUser", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), true)

		win, err := svc.Create(ctx, "", "small win today")
		require.NoError(t, err)
		assert.Nil(t, win.UserID)
	})

	t.Run("EmptyRejected", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), true)

		_, err := svc.Create(ctx, "u1", "   ")
		assert.ErrorIs(t, err, ErrEmptyWin)
	})

	t.Run("TooLongRejected", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), true)

		_, err := svc.Create(ctx, "u1", strings.Repeat("a", maxWinLen+1))
		assert.ErrorIs(t, err, ErrWinTooLong)
	})

	t.Run("ProfanityMasked", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), true)

		win, err := svc.Create(ctx, "u1", "that frogspit meeting went fine")
		require.NoError(t, err)
		assert.NotContains(t, win.Text, "frogspit")
		assert.Contains(t, win.Text, "********")
	})

	t.Run("FilterDisabledLeavesText", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newWinsService(store, newFakeClock(), false)

		win, err := svc.Create(ctx, "u1", "that frogspit meeting went fine")
		require.NoError(t, err)
		assert.Contains(t, win.Text, "frogspit")
	})

	t.Run("OnePostPerMinute", func(t *testing.T) {
		store := repository.NewMemoryStore()
		clock := newFakeClock()
		svc := newWinsService(store, clock, true)

		_, err := svc.Create(ctx, "u1", "first win")
		require.NoError(t, err)

		_, err = svc.Create(ctx, "u1", "second win")
		assert.ErrorIs(t, err, ErrRateLimited)

		// a different user is not throttled by u1's post
		_, err = svc.Create(ctx, "u2", "someone else's win")
		assert.NoError(t, err)

		clock.Advance(61 * time.Second)
		_, err = svc.Create(ctx, "u1", "second win, a minute later")
		assert.NoError(t, err)
	})
}

func TestWinsService_Like(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	clock := newFakeClock()
	svc := newWinsService(store, clock, true)

	win, err := svc.Create(ctx, "poster", "went to the gym class alone")
	require.NoError(t, err)

	t.Run("IncrementsCount", func(t *testing.T) {
		liked, err := svc.Like(ctx, win.ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, liked.Likes)
	})

	t.Run("UnknownWin", func(t *testing.T) {
		_, err := svc.Like(ctx, "missing", "u1")
		assert.ErrorIs(t, err, ErrWinNotFound)
	})

	t.Run("TenLikesPerMinute", func(t *testing.T) {
		for i := 0; i < 9; i++ {
			_, err := svc.Like(ctx, win.ID, "u1")
			require.NoError(t, err)
		}
		_, err := svc.Like(ctx, win.ID, "u1")
		assert.ErrorIs(t, err, ErrRateLimited)

		clock.Advance(61 * time.Second)
		_, err = svc.Like(ctx, win.ID, "u1")
		assert.NoError(t, err)
	})
}

func TestWinsService_Recent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	clock := newFakeClock()
	svc := newWinsService(store, clock, true)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "", "win "+strings.Repeat("x", i+1))
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)
	}

	wins, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, wins, 3)
	assert.Equal(t, "win xxx", wins[0].Text)
}
