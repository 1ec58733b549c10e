package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecurrenceRule describes a weekly schedule: the weekdays it runs on
// (0=Sunday .. 6=Saturday) and the 24-hour "HH:MM" time of day.
type RecurrenceRule struct {
	DaysOfWeek []int  `bson:"days_of_week" json:"days_of_week"`
	Time       string `bson:"time" json:"time"`
}

// RecurringSchedule generates a service order for a client every time the
// rule fires.
type RecurringSchedule struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID    string             `bson:"tenant_id" json:"tenant_id"`
	ClientID    string             `bson:"client_id" json:"client_id"`
	DumpsterID  string             `bson:"dumpster_id,omitempty" json:"dumpster_id,omitempty"`
	ServiceType ServiceType        `bson:"service_type" json:"service_type"`
	Rule        RecurrenceRule     `bson:"rule" json:"rule"`
	Timezone    string             `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name, empty means server zone
	NextRun     time.Time          `bson:"next_run" json:"next_run"`
	LastRun     *time.Time         `bson:"last_run,omitempty" json:"last_run,omitempty"`
	Active      bool               `bson:"active" json:"active"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
