package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// CatalogController exposes the public challenge catalog.
type CatalogController struct {
	challenges repository.ChallengeRepo
}

func NewCatalogController(challenges repository.ChallengeRepo) *CatalogController {
	return &CatalogController{challenges: challenges}
}

// List returns challenges, optionally filtered by category. Inactive
// challenges are included only with ?all=true.
func (c *CatalogController) List(ctx *gin.Context) {
	category := ctx.Query("category")
	if category != "" && !models.ValidCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "unknown category")
		return
	}

	activeOnly := ctx.Query("all") != "true"
	challenges, err := c.challenges.List(ctx.Request.Context(), activeOnly, category)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	utils.Success(ctx, challenges)
}
