package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID
	// in the Gin context.
	ContextUserIDKey = "user_id"
	// AnonIDHeader carries a client-generated uuid for anonymous users.
	AnonIDHeader = "X-Anon-ID"
)

// Identity authenticates the request through either a Bearer JWT or the
// anonymous ID header. A valid anon uuid is materialized as a user row on
// first sight so the same identity survives a later email registration.
func Identity(users repository.UserRepo) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := bearerToken(ctx); token != "" {
			if utils.IsTokenBlacklisted(token) {
				utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
				ctx.Abort()
				return
			}
			claims, err := utils.ParseToken(token)
			if err != nil {
				utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
				ctx.Abort()
				return
			}
			if _, err := users.FindByID(ctx.Request.Context(), claims.UserID); err != nil {
				utils.Error(ctx, http.StatusUnauthorized, 40106, "unknown user")
				ctx.Abort()
				return
			}
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Next()
			return
		}

		anonID := strings.TrimSpace(ctx.GetHeader(AnonIDHeader))
		if anonID == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "missing or invalid authentication")
			ctx.Abort()
			return
		}
		if _, err := uuid.Parse(anonID); err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid anonymous id format")
			ctx.Abort()
			return
		}

		if _, err := users.FindByID(ctx.Request.Context(), anonID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
				ctx.Abort()
				return
			}
			createErr := users.Create(ctx.Request.Context(), &models.User{ID: anonID})
			if createErr != nil && !errors.Is(createErr, repository.ErrDuplicate) {
				utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
				ctx.Abort()
				return
			}
		}

		ctx.Set(ContextUserIDKey, anonID)
		ctx.Next()
	}
}

// UserID returns the authenticated user id set by Identity.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserIDKey)
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
