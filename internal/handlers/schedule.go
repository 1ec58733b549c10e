package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/models"
	"github.com/ukydev/dumpster-logistics/internal/recurrence"
)

const (
	defaultPreviewCount = 5
	maxPreviewCount     = 20
)

// ScheduleHandler manages recurring schedules
type ScheduleHandler struct {
	schedules db.ScheduleCollection
	clients   db.ClientCollection
	loc       *time.Location
	now       func() time.Time
}

// NewScheduleHandler creates a new schedule handler. loc is the zone of
// schedules that do not name one.
func NewScheduleHandler(schedules db.ScheduleCollection, clients db.ClientCollection, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleHandler{schedules: schedules, clients: clients, loc: loc, now: time.Now}
}

type scheduleRequest struct {
	ClientID    string                `json:"client_id"`
	DumpsterID  string                `json:"dumpster_id"`
	ServiceType models.ServiceType    `json:"service_type"`
	Rule        models.RecurrenceRule `json:"rule"`
	Timezone    string                `json:"timezone"`
	Notes       string                `json:"notes"`
}

func (h *ScheduleHandler) location(name string) (*time.Location, error) {
	if name == "" {
		return h.loc, nil
	}
	return time.LoadLocation(name)
}

// Create validates the rule, computes the first run and stores the schedule
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req scheduleRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.ServiceType == "" {
		req.ServiceType = models.ServicePickup
	}
	if !models.IsValidServiceType(req.ServiceType) {
		http.Error(w, "Invalid service type", http.StatusBadRequest)
		return
	}
	loc, err := h.location(req.Timezone)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}
	nextRun, err := recurrence.NextRunDate(req.Rule, h.now().In(loc))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.clients.FindClientByID(r.Context(), claims.TenantID, req.ClientID); err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			http.Error(w, "Unknown client", http.StatusBadRequest)
			return
		}
		storeError(w, err, "Failed to look up client")
		return
	}

	schedule := models.RecurringSchedule{
		ID:          primitive.NewObjectID(),
		TenantID:    claims.TenantID,
		ClientID:    req.ClientID,
		DumpsterID:  req.DumpsterID,
		ServiceType: req.ServiceType,
		Rule:        req.Rule,
		Timezone:    req.Timezone,
		NextRun:     nextRun,
		Active:      true,
		Notes:       req.Notes,
	}
	if err := h.schedules.InsertSchedule(r.Context(), schedule); err != nil {
		storeError(w, err, "Failed to create schedule")
		return
	}
	log.WithFields(log.Fields{
		"tenant_id":   claims.TenantID,
		"schedule_id": schedule.ID.Hex(),
		"next_run":    nextRun,
	}).Info("Schedule created")
	writeJSON(w, http.StatusCreated, schedule)
}

// List returns the caller's schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	schedules, err := h.schedules.FindSchedules(r.Context(), claims.TenantID)
	if err != nil {
		storeError(w, err, "Failed to list schedules")
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Get returns a single schedule
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	schedule, err := h.schedules.FindScheduleByID(r.Context(), claims.TenantID, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Failed to get schedule")
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Delete removes a schedule. Orders it already created are kept.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.schedules.DeleteSchedule(r.Context(), claims.TenantID, r.PathValue("id")); err != nil {
		storeError(w, err, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview lists the upcoming run dates of a rule without storing anything.
// The optional count query parameter defaults to 5, capped at 20.
func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rule     models.RecurrenceRule `json:"rule"`
		Timezone string                `json:"timezone"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	count := defaultPreviewCount
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "Invalid count", http.StatusBadRequest)
			return
		}
		count = min(n, maxPreviewCount)
	}
	loc, err := h.location(req.Timezone)
	if err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	runs := make([]time.Time, 0, count)
	from := h.now().In(loc)
	for len(runs) < count {
		next, err := recurrence.NextRunDate(req.Rule, from)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		runs = append(runs, next)
		from = next
	}
	writeJSON(w, http.StatusOK, map[string][]time.Time{"runs": runs})
}
