package main

import (
	"math/rand"

	"github.com/daystep/daystep/config"
	"github.com/daystep/daystep/controllers"
	"github.com/daystep/daystep/events"
	"github.com/daystep/daystep/models"
	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/routes"
	"github.com/daystep/daystep/services"
	"github.com/daystep/daystep/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Challenge{},
		&models.DailyAssignment{},
		&models.UserStats{},
		&models.Win{},
		&models.WinEvent{},
		&models.JournalEntry{},
	)

	users := repository.NewUserRepo(db)
	challenges := repository.NewChallengeRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	wins := repository.NewWinRepo(db)
	journal := repository.NewJournalRepo(db)

	hub := events.NewHub()
	clock := utils.SystemClock{}
	filter := utils.NewProfanityFilter(cfg.ProfanityFilterEnabled, cfg.ProfanityExtraWords)

	statsSvc := services.NewStatsService(assignments, statsRepo, clock, utils.Logger)
	assignmentSvc := services.NewAssignmentService(assignments, challenges, statsSvc, hub, clock, rand.Intn, utils.Logger)
	winsSvc := services.NewWinsService(wins, filter, hub, clock, utils.Logger)
	journalSvc := services.NewJournalService(journal, utils.Logger)
	authSvc := services.NewAuthService(users, utils.Logger)

	if cfg.SweepEnabled {
		sweeper := services.NewSweeper(users, assignmentSvc, clock, utils.Logger)
		sched, err := sweeper.Schedule(cfg.SweepAt)
		if err != nil {
			utils.Sugar.Fatalf("sweep scheduler: %v", err)
		}
		defer func() { _ = sched.Shutdown() }()
	}

	r := routes.SetupRouter(routes.Deps{
		Users:     users,
		Auth:      controllers.NewAuthController(authSvc, users),
		Catalog:   controllers.NewCatalogController(challenges),
		Challenge: controllers.NewChallengeController(assignmentSvc, clock),
		Progress:  controllers.NewProgressController(assignmentSvc, statsSvc, journalSvc, assignments, clock),
		Wins:      controllers.NewWinsController(winsSvc),
		Journal:   controllers.NewJournalController(journalSvc),
		Events:    controllers.NewEventsController(hub),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
