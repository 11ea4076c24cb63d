package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/middleware"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

// JournalController serves free-form journal entries.
type JournalController struct {
	journal *services.JournalService
}

func NewJournalController(journal *services.JournalService) *JournalController {
	return &JournalController{journal: journal}
}

// List returns the caller's entries, newest first.
func (j *JournalController) List(ctx *gin.Context) {
	entries, err := j.journal.List(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	utils.Success(ctx, entries)
}

type journalCreateRequest struct {
	EntryDate string `json:"entry_date" binding:"required"`
	Content   string `json:"content" binding:"required"`
}

// Create stores a new entry.
func (j *JournalController) Create(ctx *gin.Context) {
	var req journalCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "entry_date and content are required")
		return
	}

	day, err := utils.ParseDay(req.EntryDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, err.Error())
		return
	}

	entry, err := j.journal.Create(ctx.Request.Context(), middleware.UserID(ctx), day, req.Content)
	if err != nil {
		respondJournalError(ctx, err)
		return
	}
	utils.Success(ctx, entry)
}

type journalUpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

// Update replaces an entry's content.
func (j *JournalController) Update(ctx *gin.Context) {
	var req journalUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "content is required")
		return
	}

	entry, err := j.journal.Update(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		respondJournalError(ctx, err)
		return
	}
	utils.Success(ctx, entry)
}

// Delete removes an entry.
func (j *JournalController) Delete(ctx *gin.Context) {
	if err := j.journal.Delete(ctx.Request.Context(), middleware.UserID(ctx), ctx.Param("id")); err != nil {
		respondJournalError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"ok": true})
}

func respondJournalError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyEntry), errors.Is(err, services.ErrEntryTooLong):
		utils.Error(ctx, http.StatusBadRequest, 40032, err.Error())
	case errors.Is(err, services.ErrEntryNotFound):
		utils.Error(ctx, http.StatusNotFound, 40403, err.Error())
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
	}
}
