package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ErrNotFound is returned when no document matches the id (within the tenant).
var ErrNotFound = errors.New("document not found")

// ErrInvalidID is returned for ids that are not valid ObjectID hex strings.
var ErrInvalidID = errors.New("invalid id")

// ErrDuplicate is returned when an insert collides with a unique index, e.g.
// a second order for the same schedule slot.
var ErrDuplicate = errors.New("duplicate document")

// ClientCollection defines the interface for client data operations.
type ClientCollection interface {
	InsertClient(ctx context.Context, client models.Client) error
	FindClients(ctx context.Context, tenantID string) ([]models.Client, error)
	FindClientByID(ctx context.Context, tenantID, id string) (*models.Client, error)
	UpdateClient(ctx context.Context, tenantID, id string, client models.Client) error
	DeleteClient(ctx context.Context, tenantID, id string) error
}

// ScheduleCollection defines the interface for recurring schedule operations.
type ScheduleCollection interface {
	InsertSchedule(ctx context.Context, schedule models.RecurringSchedule) error
	FindSchedules(ctx context.Context, tenantID string) ([]models.RecurringSchedule, error)
	FindScheduleByID(ctx context.Context, tenantID, id string) (*models.RecurringSchedule, error)
	// FindDueSchedules returns active schedules of every tenant whose next
	// run is at or before now.
	FindDueSchedules(ctx context.Context, now time.Time) ([]models.RecurringSchedule, error)
	UpdateNextRun(ctx context.Context, id string, nextRun, lastRun time.Time) error
	// DeactivateSchedule stops a schedule from producing orders.
	DeactivateSchedule(ctx context.Context, id string) error
	DeleteSchedule(ctx context.Context, tenantID, id string) error
}

// ServiceOrderFilter narrows FindServiceOrders. Zero fields are ignored.
type ServiceOrderFilter struct {
	Status   string
	ClientID string
	From     time.Time
	To       time.Time
}

// ServiceOrderCollection defines the interface for service order operations.
type ServiceOrderCollection interface {
	// InsertServiceOrder returns ErrDuplicate when the schedule already has an
	// order for the same slot.
	InsertServiceOrder(ctx context.Context, order models.ServiceOrder) error
	FindServiceOrders(ctx context.Context, tenantID string, filter ServiceOrderFilter) ([]models.ServiceOrder, error)
	UpdateServiceOrderStatus(ctx context.Context, tenantID, id, status string) error
}
