package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceType is the kind of truck visit a service order represents.
type ServiceType string

const (
	ServiceDelivery ServiceType = "delivery"
	ServicePickup   ServiceType = "pickup"
	ServiceSwap     ServiceType = "swap"
)

// IsValidServiceType checks if a service type is known
func IsValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceDelivery, ServicePickup, ServiceSwap:
		return true
	default:
		return false
	}
}

// Service order statuses.
const (
	OrderScheduled  = "scheduled"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// IsValidOrderStatus checks if a service order status is known
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderScheduled, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	default:
		return false
	}
}

// ServiceOrder is a single delivery, pickup or swap at a client site.
type ServiceOrder struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID     string             `json:"tenant_id" bson:"tenant_id"`
	ClientID     string             `json:"client_id" bson:"client_id"`
	DumpsterID   string             `json:"dumpster_id,omitempty" bson:"dumpster_id,omitempty"`
	ScheduleID   string             `json:"schedule_id,omitempty" bson:"schedule_id,omitempty"`
	Type         ServiceType        `json:"type" bson:"type"`
	ScheduledFor time.Time          `json:"scheduled_for" bson:"scheduled_for"`
	Address      string             `json:"address" bson:"address"`
	Coordinate   *Coordinate        `json:"coordinate,omitempty" bson:"coordinate,omitempty"`
	Status       string             `json:"status" bson:"status"`
	Notes        string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}
