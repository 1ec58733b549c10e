package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client is a customer renting dumpsters. Location holds the hints the user
// typed in; Coordinate is what the resolver made of them.
type Client struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID   string             `bson:"tenant_id" json:"tenant_id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Document   string             `bson:"document,omitempty" json:"document,omitempty"` // tax id
	Location   LocationInfo       `bson:"location" json:"location"`
	Coordinate *Coordinate        `bson:"coordinate,omitempty" json:"coordinate,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
