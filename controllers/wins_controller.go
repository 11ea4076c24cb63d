package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/middleware"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

const winsCacheKey = "daystep:cache:wins:recent"

// WinsController serves the anonymous public wins feed.
type WinsController struct {
	wins *services.WinsService
}

func NewWinsController(wins *services.WinsService) *WinsController {
	return &WinsController{wins: wins}
}

// List returns the latest wins. The response is cached in Redis for a few
// seconds since the feed is the hottest read path.
func (w *WinsController) List(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(winsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	wins, err := w.wins.Recent(ctx.Request.Context(), 50)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	envelope := utils.JSONResponse{Code: 0, Message: "success", Data: wins}
	b, err := json.Marshal(envelope)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	utils.CacheSetBytes(winsCacheKey, b, 5*time.Second)
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

type winRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create posts a new win.
func (w *WinsController) Create(ctx *gin.Context) {
	var req winRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "text is required")
		return
	}

	win, err := w.wins.Create(ctx.Request.Context(), middleware.UserID(ctx), req.Text)
	if err != nil {
		respondWinsError(ctx, err)
		return
	}

	utils.CacheDelete(winsCacheKey)
	utils.Success(ctx, win)
}

// Like increments a win's like count.
func (w *WinsController) Like(ctx *gin.Context) {
	win, err := w.wins.Like(ctx.Request.Context(), ctx.Param("id"), middleware.UserID(ctx))
	if err != nil {
		respondWinsError(ctx, err)
		return
	}

	utils.CacheDelete(winsCacheKey)
	utils.Success(ctx, gin.H{"id": win.ID, "likes": win.Likes})
}

func respondWinsError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyWin), errors.Is(err, services.ErrWinTooLong):
		utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
	case errors.Is(err, services.ErrWinNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, err.Error())
	case errors.Is(err, services.ErrRateLimited):
		utils.Error(ctx, http.StatusTooManyRequests, 42902, err.Error())
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
	}
}
