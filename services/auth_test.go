package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

func TestMain(m *testing.M) {
	// token helpers read the secret through the config package
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("FreshAccount", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		user, token, err := svc.Register(ctx, "Alex@Example.com ", "longenough", "")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		require.NotNil(t, user.Email)
		assert.Equal(t, "alex@example.com", *user.Email)
		assert.True(t, user.IsRegistered())
	})

	t.Run("LinksAnonymousAccount", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		anon := &models.User{}
		require.NoError(t, store.Users().Create(ctx, anon))

		user, _, err := svc.Register(ctx, "alex@example.com", "longenough", anon.ID)
		require.NoError(t, err)
		assert.Equal(t, anon.ID, user.ID)
		assert.True(t, user.IsRegistered())
	})

	t.Run("SecondLinkRejected", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		anon := &models.User{}
		require.NoError(t, store.Users().Create(ctx, anon))

		_, _, err := svc.Register(ctx, "alex@example.com", "longenough", anon.ID)
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, "other@example.com", "longenough", anon.ID)
		assert.ErrorIs(t, err, ErrEmailAlreadyLinked)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		_, _, err := svc.Register(ctx, "alex@example.com", "longenough", "")
		require.NoError(t, err)
		_, _, err = svc.Register(ctx, "alex@example.com", "different1", "")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Validation", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		_, _, err := svc.Register(ctx, "not-an-email", "longenough", "")
		assert.ErrorIs(t, err, ErrInvalidEmail)

		_, _, err = svc.Register(ctx, "alex@example.com", "short", "")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("UnknownExistingUser", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := NewAuthService(store.Users(), zap.NewNop())

		_, _, err := svc.Register(ctx, "alex@example.com", "longenough", "missing-id")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAuthService(store.Users(), zap.NewNop())

	registered, _, err := svc.Register(ctx, "alex@example.com", "longenough", "")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "ALEX@example.com", "longenough")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)

		claims, err := utils.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alex@example.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "longenough")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_FindOrCreateOAuthUser(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAuthService(store.Users(), zap.NewNop())

	profile := OAuthProfile{Provider: "github", ProviderID: "12345", Email: "alex@example.com"}

	first, token, err := svc.FindOrCreateOAuthUser(ctx, profile)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, first.Email)
	assert.Equal(t, "alex@example.com", *first.Email)

	second, _, err := svc.FindOrCreateOAuthUser(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
