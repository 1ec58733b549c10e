package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// Collection names.
const (
	UsersCollection         = "users"
	ClientsCollection       = "clients"
	SchedulesCollection     = "schedules"
	ServiceOrdersCollection = "service_orders"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the queries in this package rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ClientsCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		SchedulesCollection: {
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "next_run", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		},
		ServiceOrdersCollection: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "scheduled_for", Value: 1}}},
			// One order per schedule slot; hand-made orders carry no schedule_id.
			{
				Keys:    bson.D{{Key: "schedule_id", Value: 1}, {Key: "scheduled_for", Value: 1}},
				Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"schedule_id": bson.M{"$exists": true}}),
			},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// tenantFilter builds a filter matching a document id within a tenant.
func tenantFilter(tenantID, id string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return bson.M{"_id": objectID, "tenant_id": tenantID}, nil
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M, out interface{}) error {
	err := c.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func findAll(ctx context.Context, c *mongo.Collection, filter bson.M, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// MongoClientCollection implements ClientCollection for MongoDB.
type MongoClientCollection struct {
	Collection *mongo.Collection
}

// InsertClient inserts a client record into the collection.
func (c *MongoClientCollection) InsertClient(ctx context.Context, client models.Client) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	_, err := c.Collection.InsertOne(ctx, client)
	return err
}

// FindClients lists a tenant's clients ordered by name.
func (c *MongoClientCollection) FindClients(ctx context.Context, tenantID string) ([]models.Client, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	clients := []models.Client{}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if err := findAll(ctx, c.Collection, bson.M{"tenant_id": tenantID}, &clients, opts); err != nil {
		return nil, err
	}
	return clients, nil
}

// FindClientByID finds a client by its ID.
func (c *MongoClientCollection) FindClientByID(ctx context.Context, tenantID, id string) (*models.Client, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return nil, err
	}
	var client models.Client
	if err := findOne(ctx, c.Collection, filter, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateClient replaces the editable fields of a client.
func (c *MongoClientCollection) UpdateClient(ctx context.Context, tenantID, id string, client models.Client) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":       client.Name,
		"phone":      client.Phone,
		"email":      client.Email,
		"document":   client.Document,
		"location":   client.Location,
		"coordinate": client.Coordinate,
		"notes":      client.Notes,
		"updated_at": time.Now(),
	}}
	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClient deletes a client by its ID.
func (c *MongoClientCollection) DeleteClient(ctx context.Context, tenantID, id string) error {
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

// MongoServiceOrderCollection implements ServiceOrderCollection for MongoDB.
type MongoServiceOrderCollection struct {
	Collection *mongo.Collection
}

// InsertServiceOrder inserts a service order into the collection.
func (c *MongoServiceOrderCollection) InsertServiceOrder(ctx context.Context, order models.ServiceOrder) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	if order.Status == "" {
		order.Status = models.OrderScheduled
	}
	_, err := c.Collection.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// FindServiceOrders lists a tenant's service orders by scheduled time.
func (c *MongoServiceOrderCollection) FindServiceOrders(ctx context.Context, tenantID string, f ServiceOrderFilter) ([]models.ServiceOrder, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	orders := []models.ServiceOrder{}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_for", Value: 1}})
	if err := findAll(ctx, c.Collection, serviceOrderQuery(tenantID, f), &orders, opts); err != nil {
		return nil, err
	}
	return orders, nil
}

func serviceOrderQuery(tenantID string, f ServiceOrderFilter) bson.M {
	filter := bson.M{"tenant_id": tenantID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	window := bson.M{}
	if !f.From.IsZero() {
		window["$gte"] = f.From
	}
	if !f.To.IsZero() {
		window["$lt"] = f.To
	}
	if len(window) > 0 {
		filter["scheduled_for"] = window
	}
	return filter
}

// UpdateServiceOrderStatus moves a service order to a new status.
func (c *MongoServiceOrderCollection) UpdateServiceOrderStatus(ctx context.Context, tenantID, id, status string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	filter, err := tenantFilter(tenantID, id)
	if err != nil {
		return err
	}
	result, err := c.Collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
