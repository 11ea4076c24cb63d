package services

import (
	"context"
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/daystep/daystep/repository"
	"github.com/daystep/daystep/utils"
)

// SweepResult summarizes one pass over all users.
type SweepResult struct {
	Day      string `json:"day"`
	Assigned int    `json:"assigned"`
	Existing int    `json:"existing"`
	Failed   int    `json:"failed"`
}

// Sweeper assigns the day's challenge to every known user. It backs both the
// in-process scheduled job and the cmd/dailyassign batch binary.
type Sweeper struct {
	users       repository.UserRepo
	assignments *AssignmentService
	clock       utils.Clock
	log         *zap.Logger
}

func NewSweeper(users repository.UserRepo, assignments *AssignmentService, clock utils.Clock, log *zap.Logger) *Sweeper {
	return &Sweeper{users: users, assignments: assignments, clock: clock, log: log}
}

// Sweep runs GetOrCreate for every user on the given day. Per-user failures
// are logged and counted but never abort the pass; the returned error is
// non-nil only when the user list itself cannot be loaded.
func (s *Sweeper) Sweep(ctx context.Context, day string) (SweepResult, error) {
	result := SweepResult{Day: day}

	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range ids {
		existing, err := s.assignments.assignments.FindByUserDay(ctx, userID, day)
		if err == nil && existing != nil {
			result.Existing++
			continue
		}
		if _, err := s.assignments.GetOrCreate(ctx, userID, day); err != nil {
			result.Failed++
			s.log.Error("sweep assignment failed",
				zap.String("user_id", userID),
				zap.String("day", day),
				zap.Error(err))
			continue
		}
		result.Assigned++
	}

	s.log.Info("daily sweep finished",
		zap.String("day", day),
		zap.Int("assigned", result.Assigned),
		zap.Int("existing", result.Existing),
		zap.Int("failed", result.Failed))
	return result, nil
}

// Schedule starts the in-process daily job at the configured local time
// ("HH:MM"). The returned scheduler should be shut down on exit.
func (s *Sweeper) Schedule(at string) (gocron.Scheduler, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid sweep time %q: %w", at, err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(func() {
			day := utils.DayOf(s.clock.Now())
			if _, err := s.Sweep(context.Background(), day); err != nil {
				s.log.Error("scheduled sweep failed", zap.String("day", day), zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	s.log.Info("daily sweep scheduled", zap.String("at", at))
	return sched, nil
}
