package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// TokenTTL is how long issued JWTs stay valid.
const TokenTTL = 72 * time.Hour

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OAuthProfile is the provider-agnostic identity returned by an OAuth
// userinfo endpoint.
type OAuthProfile struct {
	Provider   string
	ProviderID string
	Email      string
}

// AuthService handles registration, login and OAuth identity linking. The
// anonymous-first model means Register usually attaches credentials to an
// existing anon user rather than creating a fresh one.
type AuthService struct {
	users repository.UserRepo
	log   *zap.Logger
}

func NewAuthService(users repository.UserRepo, log *zap.Logger) *AuthService {
	return &AuthService{users: users, log: log}
}

// Register creates a credentialed account. When existingUserID names an
// anonymous user, the email and password are linked to that row so streaks
// and history carry over; linking is allowed at most once.
func (s *AuthService) Register(ctx context.Context, email, password, existingUserID string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, "", ErrWeakPassword
	}

	if byEmail, err := s.users.FindByEmail(ctx, email); err == nil && byEmail.ID != existingUserID {
		return nil, "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	var user *models.User
	if existingUserID != "" {
		user, err = s.users.FindByID(ctx, existingUserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		if err != nil {
			return nil, "", err
		}
		if user.Email != nil {
			return nil, "", ErrEmailAlreadyLinked
		}
		user.Email = &email
		user.PasswordHash = &hash
		if err := s.users.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, "", ErrEmailTaken
			}
			return nil, "", err
		}
		s.log.Info("anonymous account registered", zap.String("user_id", user.ID))
	} else {
		user = &models.User{Email: &email, PasswordHash: &hash}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, "", ErrEmailTaken
			}
			return nil, "", err
		}
	}

	token, err := utils.GenerateToken(user.ID, email, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, email, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// FindOrCreateOAuthUser resolves an OAuth profile to a local user, creating
// one on first login with that provider identity.
func (s *AuthService) FindOrCreateOAuthUser(ctx context.Context, profile OAuthProfile) (*models.User, string, error) {
	user, err := s.users.FindByProvider(ctx, profile.Provider, profile.ProviderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}
	if errors.Is(err, repository.ErrNotFound) {
		user = &models.User{
			Provider:   profile.Provider,
			ProviderID: profile.ProviderID,
		}
		if email := strings.ToLower(strings.TrimSpace(profile.Email)); email != "" {
			if _, lookupErr := s.users.FindByEmail(ctx, email); errors.Is(lookupErr, repository.ErrNotFound) {
				user.Email = &email
			}
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
		s.log.Info("oauth user created",
			zap.String("provider", profile.Provider),
			zap.String("user_id", user.ID))
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	token, err := utils.GenerateToken(user.ID, email, TokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
