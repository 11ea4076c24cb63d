package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/middleware"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

// ChallengeController serves the daily challenge: fetch, complete, skip.
type ChallengeController struct {
	assignments *services.AssignmentService
	clock       utils.Clock
}

func NewChallengeController(assignments *services.AssignmentService, clock utils.Clock) *ChallengeController {
	return &ChallengeController{assignments: assignments, clock: clock}
}

// Today returns the caller's assignment for the requested day (default:
// today), creating one on first access.
func (c *ChallengeController) Today(ctx *gin.Context) {
	day := utils.DayOf(c.clock.Now())
	if raw := ctx.Query("date"); raw != "" {
		parsed, err := utils.ParseDay(raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
			return
		}
		day = parsed
	}

	assignment, err := c.assignments.GetOrCreate(ctx.Request.Context(), middleware.UserID(ctx), day)
	if err != nil {
		if errors.Is(err, services.ErrNoChallengesAvailable) {
			utils.Error(ctx, http.StatusInternalServerError, 50010, err.Error())
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to assign challenge")
		return
	}

	utils.Success(ctx, assignmentView(assignment))
}

type completeRequest struct {
	Note *string `json:"note"`
}

// Complete marks today's challenge done and returns refreshed stats.
func (c *ChallengeController) Complete(ctx *gin.Context) {
	var req completeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
			return
		}
	}

	day := utils.DayOf(c.clock.Now())
	_, stats, err := c.assignments.Complete(ctx.Request.Context(), middleware.UserID(ctx), day, req.Note)
	if err != nil {
		respondWorkflowError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"current_streak": stats.CurrentStreak,
		"longest_streak": stats.LongestStreak,
		"comfort_score":  stats.ComfortScore,
		"badges":         stats.Badges,
	})
}

// Skip marks today's challenge skipped.
func (c *ChallengeController) Skip(ctx *gin.Context) {
	day := utils.DayOf(c.clock.Now())
	_, stats, err := c.assignments.Skip(ctx.Request.Context(), middleware.UserID(ctx), day)
	if err != nil {
		respondWorkflowError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"current_streak": stats.CurrentStreak,
		"longest_streak": stats.LongestStreak,
		"comfort_score":  stats.ComfortScore,
	})
}

func respondWorkflowError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoActiveChallenge),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrAlreadySkipped),
		errors.Is(err, services.ErrNoteEditWindowExpired),
		errors.Is(err, services.ErrEmptyNote),
		errors.Is(err, services.ErrNoteTooLong):
		utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
	}
}

func assignmentView(a *models.DailyAssignment) gin.H {
	view := gin.H{
		"assigned_date": a.AssignedDate,
		"status":        a.Status(),
		"completed_at":  a.CompletedAt,
		"skipped_at":    a.SkippedAt,
		"note":          a.Note,
	}
	if a.Challenge != nil {
		view["challenge"] = gin.H{
			"id":         a.Challenge.ID,
			"slug":       a.Challenge.Slug,
			"category":   a.Challenge.Category,
			"difficulty": a.Challenge.Difficulty,
			"text":       a.Challenge.Text,
		}
	}
	return view
}
