package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// MongoScheduleCollection implements ScheduleCollection for MongoDB
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// InsertSchedule inserts a recurring schedule
func (c *MongoScheduleCollection) InsertSchedule(ctx context.Context, schedule models.RecurringSchedule) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = schedule.CreatedAt
	_, err := c.Collection.InsertOne(ctx, schedule)
	return err
}

// FindSchedules lists a tenant's schedules, soonest first
func (c *MongoScheduleCollection) FindSchedules(ctx context.Context, tenantID string) ([]models.RecurringSchedule, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	schedules := []models.RecurringSchedule{}
	opts := options.Find().SetSort(bson.D{{Key: "next_run", Value: 1}})
	if err := findAll(ctx, c.Collection, bson.M{"tenant_id": tenantID}, &schedules, opts); err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindScheduleByID finds a schedule by its ID
func (c *MongoScheduleCollection) FindScheduleByID(ctx context.Context, tenantID, id string) (*models.RecurringSchedule, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return nil, err
	}
	var schedule models.RecurringSchedule
	if err := findOne(ctx, c.Collection, filter, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindDueSchedules returns active schedules whose next run has come
func (c *MongoScheduleCollection) FindDueSchedules(ctx context.Context, now time.Time) ([]models.RecurringSchedule, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	schedules := []models.RecurringSchedule{}
	filter := bson.M{"active": true, "next_run": bson.M{"$lte": now}}
	opts := options.Find().SetSort(bson.D{{Key: "next_run", Value: 1}})
	if err := findAll(ctx, c.Collection, filter, &schedules, opts); err != nil {
		return nil, err
	}
	return schedules, nil
}

// UpdateNextRun records a run and the time of the following one
func (c *MongoScheduleCollection) UpdateNextRun(ctx context.Context, id string, nextRun, lastRun time.Time) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"next_run": nextRun, "last_run": lastRun, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateSchedule clears the active flag of a schedule
func (c *MongoScheduleCollection) DeactivateSchedule(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSchedule deletes a schedule by its ID
func (c *MongoScheduleCollection) DeleteSchedule(ctx context.Context, tenantID, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	result, err := c.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
