package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/caremesh/consult-chat-api/databases"
)

// ActiveSet reports the users currently joined through this process
type ActiveSet interface {
	ActiveUserIDs() []string
}

// Scheduler handles periodic background jobs for the chat service
type Scheduler struct {
	cron   *cron.Cron
	UDB    databases.UserDatabase
	MDB    databases.MembershipDatabase
	Active ActiveSet
}

// NewScheduler creates a new scheduler instance
func NewScheduler(uDB databases.UserDatabase, mDB databases.MembershipDatabase, active ActiveSet) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		UDB:    uDB,
		MDB:    mDB,
		Active: active,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile advisory presence flags every five minutes
	_, err := s.cron.AddFunc("@every 5m", s.sweepPresence)
	if err != nil {
		zap.S().Errorw("failed to register presence sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Presence scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Presence scheduler stopped")
}

// sweepPresence flips connected off for users that hold no membership
// anywhere and no live session on this instance. The connected flag is
// advisory only, so cross-instance last-writer-wins is acceptable here.
func (s *Scheduler) sweepPresence() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	memberships, err := s.MDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list memberships for presence sweep", "error", err)
		return
	}

	keep := s.Active.ActiveUserIDs()
	seen := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		seen[id] = struct{}{}
	}
	for _, m := range memberships {
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			keep = append(keep, m.UserID)
		}
	}

	cleared, err := s.UDB.MarkStale(ctx, keep)
	if err != nil {
		zap.S().Errorw("failed to sweep presence flags", "error", err)
		return
	}
	if cleared > 0 {
		zap.S().Infow("presence sweep complete", "cleared", cleared)
	}
}
