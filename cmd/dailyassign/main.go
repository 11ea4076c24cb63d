// Runs one assignment sweep over all users and exits. Meant for cron or a
// container job when the in-process scheduler is disabled.
package main

import (
	"context"
	"math/rand"
	"os"

	"github.com/daystep/daystep/config"
	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

func main() {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Challenge{},
		&models.DailyAssignment{},
		&models.UserStats{},
	)

	users := repository.NewUserRepo(db)
	challenges := repository.NewChallengeRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	statsRepo := repository.NewStatsRepo(db)

	clock := utils.SystemClock{}
	statsSvc := services.NewStatsService(assignments, statsRepo, clock, utils.Logger)
	assignmentSvc := services.NewAssignmentService(
		assignments, challenges, statsSvc, events.NopEmitter{}, clock, rand.Intn, utils.Logger,
	)
	sweeper := services.NewSweeper(users, assignmentSvc, clock, utils.Logger)

	day := utils.DayOf(clock.Now())
	result, err := sweeper.Sweep(context.Background(), day)
	if err != nil {
		utils.Sugar.Errorf("sweep %s aborted: %v", day, err)
		os.Exit(1)
	}
	utils.Sugar.Infof("sweep %s: assigned=%d existing=%d failed=%d",
		result.Day, result.Assigned, result.Existing, result.Failed)
}
