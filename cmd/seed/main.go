// Seeds the challenge catalog. Safe to re-run; existing slugs are left alone.
package main

import (
	"context"
	"os"

	"github.com/daystep/daystep/config"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/seed"
	"github.com/daystep/daystep/utils"
)

func main() {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	challenges, err := seed.Challenges()
	if err != nil {
		utils.Sugar.Errorf("load catalog: %v", err)
		os.Exit(1)
	}

	db := config.InitDatabase(&models.Challenge{})
	repo := repository.NewChallengeRepo(db)

	ctx := context.Background()
	if err := repo.UpsertAll(ctx, challenges); err != nil {
		utils.Sugar.Errorf("seed challenges: %v", err)
		os.Exit(1)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		utils.Sugar.Errorf("count challenges: %v", err)
		os.Exit(1)
	}
	utils.Sugar.Infof("seeded catalog: %d entries loaded, %d rows total", len(challenges), total)
}
