package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(complete bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

// MockMQTTClient is a mock implementation of mqttClient
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func testOrder() models.ServiceOrder {
	return models.ServiceOrder{
		ID:           primitive.NewObjectID(),
		TenantID:     "acme",
		ClientID:     "client-1",
		Type:         models.ServicePickup,
		ScheduledFor: time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC),
		Address:      "Rua Augusta, 100",
		Coordinate:   &models.Coordinate{Lat: -23.5, Lng: -46.6},
	}
}

func TestNewDispatchEvent(t *testing.T) {
	order := testOrder()
	event := NewDispatchEvent(order)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, order.ID.Hex(), event.OrderID)
	assert.Equal(t, models.ServicePickup, event.Type)
	require.NotNil(t, event.Lat)
	assert.Equal(t, -23.5, *event.Lat)
	assert.Equal(t, -46.6, *event.Lng)

	order.Coordinate = nil
	event = NewDispatchEvent(order)
	assert.Nil(t, event.Lat)
	assert.Nil(t, event.Lng)
}

func TestMQTTPublisher_Publish(t *testing.T) {
	event := NewDispatchEvent(testOrder())

	t.Run("publishes to tenant topic", func(t *testing.T) {
		client := new(MockMQTTClient)
		client.On("Publish", "dispatch/acme", byte(1), false, mock.AnythingOfType("[]uint8")).
			Return(newFakeToken(true, nil))

		p := newMQTTPublisher(client, "dispatch/", time.Second)
		require.NoError(t, p.Publish(context.Background(), event))

		payload := client.Calls[0].Arguments.Get(3).([]byte)
		var got DispatchEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, event.OrderID, got.OrderID)
		assert.True(t, event.ScheduledFor.Equal(got.ScheduledFor))
		client.AssertExpectations(t)
	})

	t.Run("broker error", func(t *testing.T) {
		client := new(MockMQTTClient)
		client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(newFakeToken(true, errors.New("not connected")))

		p := newMQTTPublisher(client, "dispatch", time.Second)
		err := p.Publish(context.Background(), event)
		assert.ErrorContains(t, err, "not connected")
	})

	t.Run("no acknowledgement", func(t *testing.T) {
		client := new(MockMQTTClient)
		client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(newFakeToken(false, nil))

		p := newMQTTPublisher(client, "dispatch", 20*time.Millisecond)
		assert.ErrorIs(t, p.Publish(context.Background(), event), ErrPublishTimeout)
	})

	t.Run("context cancelled", func(t *testing.T) {
		client := new(MockMQTTClient)
		client.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(newFakeToken(false, nil))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := newMQTTPublisher(client, "dispatch", time.Minute)
		assert.ErrorIs(t, p.Publish(ctx, event), context.Canceled)
	})
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := new(MockMQTTClient)
	client.On("Disconnect", uint(250)).Return()
	newMQTTPublisher(client, "dispatch", time.Second).Close()
	client.AssertExpectations(t)
}

func TestNewMQTTPublisher_RequiresBroker(t *testing.T) {
	_, err := NewMQTTPublisher(MQTTOptions{})
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewDispatchEvent(testOrder())))
	p.Close()
}
