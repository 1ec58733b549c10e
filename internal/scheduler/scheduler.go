// Package scheduler turns due recurring schedules into service orders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/dispatch"
	"github.com/ukydev/dumpster-logistics/internal/models"
	"github.com/ukydev/dumpster-logistics/internal/recurrence"
)

// Scheduler periodically materializes due schedules.
type Scheduler struct {
	schedules db.ScheduleCollection
	clients   db.ClientCollection
	orders    db.ServiceOrderCollection
	publisher dispatch.Publisher
	loc       *time.Location

	mu sync.Mutex
	c  *cron.Cron
}

// New creates a scheduler. loc is used for schedules without a timezone.
func New(schedules db.ScheduleCollection, clients db.ClientCollection, orders db.ServiceOrderCollection, publisher dispatch.Publisher, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if publisher == nil {
		publisher = dispatch.NopPublisher{}
	}
	return &Scheduler{
		schedules: schedules,
		clients:   clients,
		orders:    orders,
		publisher: publisher,
		loc:       loc,
	}
}

// Start runs RunOnce on the cron spec until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(ctx, time.Now()); err != nil {
			log.WithError(err).Error("Scheduler run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", spec, err)
	}
	c.Start()
	s.c = c
	log.WithFields(log.Fields{"spec": spec, "tz": s.loc.String()}).Info("Scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

// RunOnce creates a service order for every schedule due at now and moves
// each schedule to its next run. A failing schedule is logged and skipped.
// It returns the number of orders created.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := s.schedules.FindDueSchedules(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find due schedules: %w", err)
	}

	created := 0
	for _, schedule := range due {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		made, err := s.process(ctx, schedule, now)
		if err != nil {
			log.WithFields(log.Fields{
				"schedule_id": schedule.ID.Hex(),
				"tenant_id":   schedule.TenantID,
			}).WithError(err).Error("Failed to process schedule")
		}
		if made {
			created++
		}
	}
	if created > 0 {
		log.WithField("orders", created).Info("Scheduler created service orders")
	}
	return created, nil
}

// process turns one due schedule into a service order and moves next_run
// on. It reports whether an order was created: a slot materialized earlier
// (a retry after a failed update, or another replica) only advances next_run.
// A schedule whose client is gone is deactivated instead.
func (s *Scheduler) process(ctx context.Context, schedule models.RecurringSchedule, now time.Time) (bool, error) {
	fields := log.Fields{"schedule_id": schedule.ID.Hex(), "client_id": schedule.ClientID}

	next, err := recurrence.NextRunDate(schedule.Rule, now.In(s.location(schedule.Timezone)))
	if err != nil {
		return false, fmt.Errorf("compute next run: %w", err)
	}

	client, err := s.clients.FindClientByID(ctx, schedule.TenantID, schedule.ClientID)
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrInvalidID):
		log.WithFields(fields).Warn("Client no longer exists, deactivating schedule")
		if err := s.schedules.DeactivateSchedule(ctx, schedule.ID.Hex()); err != nil {
			return false, fmt.Errorf("deactivate schedule: %w", err)
		}
		return false, nil
	case err != nil:
		log.WithFields(fields).WithError(err).Warn("Client lookup failed, order has no address")
	}

	order := models.ServiceOrder{
		ID:           primitive.NewObjectID(),
		TenantID:     schedule.TenantID,
		ClientID:     schedule.ClientID,
		DumpsterID:   schedule.DumpsterID,
		ScheduleID:   schedule.ID.Hex(),
		Type:         schedule.ServiceType,
		ScheduledFor: schedule.NextRun,
		Status:       models.OrderScheduled,
		Notes:        schedule.Notes,
	}
	if client != nil {
		order.Address = client.Location.Address
		order.Coordinate = client.Coordinate
	}

	created := true
	err = s.orders.InsertServiceOrder(ctx, order)
	switch {
	case errors.Is(err, db.ErrDuplicate):
		created = false
		log.WithFields(fields).WithField("slot", schedule.NextRun).Info("Order already exists for slot")
	case err != nil:
		return false, fmt.Errorf("insert service order: %w", err)
	default:
		if err := s.publisher.Publish(ctx, dispatch.NewDispatchEvent(order)); err != nil {
			log.WithField("order_id", order.ID.Hex()).WithError(err).Warn("Failed to publish dispatch event")
		}
	}

	if err := s.schedules.UpdateNextRun(ctx, schedule.ID.Hex(), next, now); err != nil {
		return created, fmt.Errorf("update next run: %w", err)
	}
	return created, nil
}

func (s *Scheduler) location(name string) *time.Location {
	if name == "" {
		return s.loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.WithField("timezone", name).Warn("Unknown schedule timezone, using default")
		return s.loc
	}
	return loc
}
