package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/middleware"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

const historyDays = 365

// ProgressController serves the stats + history view and note edits.
type ProgressController struct {
	assignments *services.AssignmentService
	stats       *services.StatsService
	journal     *services.JournalService
	history     repository.AssignmentRepo
	clock       utils.Clock
}

func NewProgressController(
	assignments *services.AssignmentService,
	stats *services.StatsService,
	journal *services.JournalService,
	history repository.AssignmentRepo,
	clock utils.Clock,
) *ProgressController {
	return &ProgressController{
		assignments: assignments,
		stats:       stats,
		journal:     journal,
		history:     history,
		clock:       clock,
	}
}

type historyItem struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Completed   bool   `json:"completed"`
	CompletedAt any    `json:"completed_at"`
	Challenge   any    `json:"challenge"`
	Note        any    `json:"note"`
	Journal     any    `json:"journal_entry,omitempty"`
}

// GetProgress recomputes the caller's streak and badges, then returns stats
// plus a year of merged challenge and journal history, newest first.
func (p *ProgressController) GetProgress(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	rctx := ctx.Request.Context()

	// Streak decays with the calendar even when nothing was written, so it
	// is recomputed on read rather than trusted from the stored row.
	stats, err := p.stats.RecomputeStreak(rctx, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	newBadges, allBadges, err := p.stats.CheckAndAwardBadges(rctx, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	fromDay := utils.AddDays(utils.DayOf(p.clock.Now()), -historyDays)
	assignments, err := p.history.HistorySince(rctx, userID, fromDay)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	entries, err := p.journal.ListSince(rctx, userID, fromDay)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	history := make([]historyItem, 0, len(assignments)+len(entries))
	for _, a := range assignments {
		item := historyItem{
			Date:        a.AssignedDate,
			Type:        "challenge",
			Completed:   a.CompletedAt != nil,
			CompletedAt: a.CompletedAt,
			Note:        a.Note,
		}
		if a.Challenge != nil {
			item.Challenge = gin.H{
				"text":       a.Challenge.Text,
				"category":   a.Challenge.Category,
				"difficulty": a.Challenge.Difficulty,
			}
		}
		history = append(history, item)
	}
	for _, e := range entries {
		history = append(history, historyItem{
			Date:        e.EntryDate,
			Type:        "journal",
			Completed:   true,
			CompletedAt: e.CreatedAt,
			Journal: gin.H{
				"id":         e.ID,
				"content":    e.Content,
				"created_at": e.CreatedAt,
				"updated_at": e.UpdatedAt,
			},
		})
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].Date > history[j].Date })

	utils.Success(ctx, gin.H{
		"stats": gin.H{
			"current_streak": stats.CurrentStreak,
			"longest_streak": stats.LongestStreak,
			"comfort_score":  stats.ComfortScore,
			"badges":         allBadges,
			"new_badges":     newBadges,
		},
		"history": history,
	})
}

type noteRequest struct {
	Note *string `json:"note"`
}

// UpdateNote edits the note on a completed assignment for the given date.
func (p *ProgressController) UpdateNote(ctx *gin.Context) {
	day, err := utils.ParseDay(ctx.Param("date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
		return
	}

	var req noteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	assignment, err := p.assignments.UpdateNote(ctx.Request.Context(), middleware.UserID(ctx), day, req.Note)
	if err != nil {
		respondWorkflowError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"note": assignment.Note})
}
