package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/middleware"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindTeam(ctx context.Context, tenantID string) ([]models.User, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockClientCollection is a mock implementation of ClientCollection
type MockClientCollection struct {
	mock.Mock
}

func (m *MockClientCollection) InsertClient(ctx context.Context, client models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientCollection) FindClients(ctx context.Context, tenantID string) ([]models.Client, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientCollection) FindClientByID(ctx context.Context, tenantID, id string) (*models.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientCollection) UpdateClient(ctx context.Context, tenantID, id string, client models.Client) error {
	return m.Called(ctx, tenantID, id, client).Error(0)
}

func (m *MockClientCollection) DeleteClient(ctx context.Context, tenantID, id string) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockScheduleCollection is a mock implementation of ScheduleCollection
type MockScheduleCollection struct {
	mock.Mock
}

func (m *MockScheduleCollection) InsertSchedule(ctx context.Context, schedule models.RecurringSchedule) error {
	return m.Called(ctx, schedule).Error(0)
}

func (m *MockScheduleCollection) FindSchedules(ctx context.Context, tenantID string) ([]models.RecurringSchedule, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleCollection) FindScheduleByID(ctx context.Context, tenantID, id string) (*models.RecurringSchedule, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleCollection) FindDueSchedules(ctx context.Context, now time.Time) ([]models.RecurringSchedule, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecurringSchedule), args.Error(1)
}

func (m *MockScheduleCollection) UpdateNextRun(ctx context.Context, id string, nextRun, lastRun time.Time) error {
	return m.Called(ctx, id, nextRun, lastRun).Error(0)
}

func (m *MockScheduleCollection) DeactivateSchedule(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockScheduleCollection) DeleteSchedule(ctx context.Context, tenantID, id string) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockServiceOrderCollection is a mock implementation of ServiceOrderCollection
type MockServiceOrderCollection struct {
	mock.Mock
}

func (m *MockServiceOrderCollection) InsertServiceOrder(ctx context.Context, order models.ServiceOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockServiceOrderCollection) FindServiceOrders(ctx context.Context, tenantID string, filter db.ServiceOrderFilter) ([]models.ServiceOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceOrder), args.Error(1)
}

func (m *MockServiceOrderCollection) UpdateServiceOrderStatus(ctx context.Context, tenantID, id, status string) error {
	return m.Called(ctx, tenantID, id, status).Error(0)
}

// MockGeocoder is a mock implementation of location.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (models.Coordinate, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(models.Coordinate), args.Error(1)
}

// withClaims attaches claims for tenant "acme" to req.
func withClaims(req *http.Request, userID string, role models.Role) *http.Request {
	claims := &models.Claims{
		UserID:   userID,
		TenantID: "acme",
		Username: "testuser",
		Role:     role,
	}
	return req.WithContext(middleware.WithUser(req.Context(), claims))
}
