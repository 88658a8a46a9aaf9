// Package reminder sends the daily income and expense prompts.
// It is deliberately dumb: two cron jobs and a message per member, with no
// invariants of its own.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mzotov/famwallet/internal/config"
	"github.com/mzotov/famwallet/internal/metrics"
	"github.com/mzotov/famwallet/internal/models"
	"github.com/mzotov/famwallet/internal/storage"
)

// Notifier delivers a message to a person. Implemented by the bot.
type Notifier interface {
	Notify(personID int64, message string) error
}

// Scheduler runs the two daily reminder jobs.
type Scheduler struct {
	cron     *cron.Cron
	store    storage.Store
	notifier Notifier
}

// New creates a scheduler that fires in the given location.
func New(store storage.Store, notifier Notifier, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		store:    store,
		notifier: notifier,
	}
}

// Schedule registers the income and expense jobs at the given HH:MM times.
func (s *Scheduler) Schedule(incomeAt, expenseAt string) error {
	incomeSpec, err := cronSpec(incomeAt)
	if err != nil {
		return fmt.Errorf("income reminder time: %w", err)
	}
	expenseSpec, err := cronSpec(expenseAt)
	if err != nil {
		return fmt.Errorf("expense reminder time: %w", err)
	}

	if _, err := s.cron.AddFunc(incomeSpec, s.sendIncomeReminders); err != nil {
		return fmt.Errorf("failed to schedule income reminder: %w", err)
	}
	if _, err := s.cron.AddFunc(expenseSpec, s.sendExpenseReminders); err != nil {
		return fmt.Errorf("failed to schedule expense reminder: %w", err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronSpec converts HH:MM into a daily cron expression.
func cronSpec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func (s *Scheduler) sendIncomeReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	members, err := s.store.ListAllMembers(ctx)
	if err != nil {
		slog.Error("income reminder: failed to list members", "error", err)
		return
	}

	message := "🌅 Good morning!\n\n" +
		"Did any money come in yesterday?\n\n" +
		"If yes — record it with /income\n" +
		"If not — just ignore me today"

	for _, m := range members {
		if err := s.notifier.Notify(m.PersonID, message); err != nil {
			slog.Error("income reminder: failed to notify", "person_id", m.PersonID, "error", err)
			continue
		}
		metrics.RemindersSent.WithLabelValues("income").Inc()
	}
	slog.Info("income reminders sent", "members", len(members))
}

func (s *Scheduler) sendExpenseReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	members, err := s.store.ListAllMembers(ctx)
	if err != nil {
		slog.Error("expense reminder: failed to list members", "error", err)
		return
	}

	// Members of one family share a balance; fetch each group once.
	groups := make(map[string]*models.Group)
	for _, m := range members {
		group, ok := groups[m.GroupID]
		if !ok {
			group, err = s.store.GetGroup(ctx, m.GroupID)
			if err != nil {
				slog.Error("expense reminder: failed to get group", "group_id", m.GroupID, "error", err)
				continue
			}
			groups[m.GroupID] = group
		}

		message := fmt.Sprintf(
			"🌙 Good evening!\n\n"+
				"How much did you spend today?\n\n"+
				"Record it with /expense\n\n"+
				"💰 Current balance: <b>%s ₽</b>",
			group.Balance.StringFixed(2),
		)
		if err := s.notifier.Notify(m.PersonID, message); err != nil {
			slog.Error("expense reminder: failed to notify", "person_id", m.PersonID, "error", err)
			continue
		}
		metrics.RemindersSent.WithLabelValues("expense").Inc()
	}
	slog.Info("expense reminders sent", "members", len(members))
}
