package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// message before the publish timeout.
var ErrPublishTimeout = errors.New("dispatch: publish timed out")

// DispatchEvent tells drivers that a service order is ready for them.
type DispatchEvent struct {
	ID           string             `json:"id"`
	TenantID     string             `json:"tenant_id"`
	OrderID      string             `json:"order_id"`
	ClientID     string             `json:"client_id"`
	Type         models.ServiceType `json:"type"`
	ScheduledFor time.Time          `json:"scheduled_for"`
	Address      string             `json:"address,omitempty"`
	Lat          *float64           `json:"lat,omitempty"`
	Lng          *float64           `json:"lng,omitempty"`
}

// NewDispatchEvent builds the event announcing order.
func NewDispatchEvent(order models.ServiceOrder) DispatchEvent {
	event := DispatchEvent{
		ID:           uuid.NewString(),
		TenantID:     order.TenantID,
		OrderID:      order.ID.Hex(),
		ClientID:     order.ClientID,
		Type:         order.Type,
		ScheduledFor: order.ScheduledFor,
		Address:      order.Address,
	}
	if order.Coordinate != nil {
		lat, lng := order.Coordinate.Lat, order.Coordinate.Lng
		event.Lat, event.Lng = &lat, &lng
	}
	return event
}

// Publisher delivers dispatch events to the field.
type Publisher interface {
	Publish(ctx context.Context, event DispatchEvent) error
	Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish logs the event at debug level and discards it.
func (NopPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	log.WithFields(log.Fields{"order_id": event.OrderID, "tenant_id": event.TenantID}).Debug("No broker configured, dispatch event dropped")
	return nil
}

// Close does nothing.
func (NopPublisher) Close() {}

// mqttClient is the part of mqtt.Client the publisher needs.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTOptions configures an MQTTPublisher.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Topic    string
	Timeout  time.Duration
}

// MQTTPublisher publishes events at QoS 1 to {topic}/{tenant_id}.
type MQTTPublisher struct {
	client  mqttClient
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(opts.Timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithField("broker", opts.Broker).Info("Connected to MQTT broker")
	return newMQTTPublisher(client, opts.Topic, opts.Timeout), nil
}

func newMQTTPublisher(client mqttClient, topic string, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: strings.TrimSuffix(topic, "/"), timeout: timeout}
}

// Topic returns the topic events of tenantID are published to.
func (p *MQTTPublisher) Topic(tenantID string) string {
	return p.topic + "/" + tenantID
}

// Publish sends event and waits for the broker acknowledgement, the
// publish timeout or ctx, whichever comes first.
func (p *MQTTPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal dispatch event: %w", err)
	}
	token := p.client.Publish(p.Topic(event.TenantID), 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish: %w", err)
		}
		return nil
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
