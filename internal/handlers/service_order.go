package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ServiceOrderHandler exposes the service orders created by the scheduler
type ServiceOrderHandler struct {
	orders db.ServiceOrderCollection
}

// NewServiceOrderHandler creates a new service order handler
func NewServiceOrderHandler(orders db.ServiceOrderCollection) *ServiceOrderHandler {
	return &ServiceOrderHandler{orders: orders}
}

// List returns service orders, filtered by the status, client_id, from and
// to query parameters. from and to are RFC 3339 timestamps.
func (h *ServiceOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := db.ServiceOrderFilter{
		Status:   q.Get("status"),
		ClientID: q.Get("client_id"),
	}
	if filter.Status != "" && !models.IsValidOrderStatus(filter.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	for param, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "Invalid "+param+" time", http.StatusBadRequest)
				return
			}
			*dst = t
		}
	}

	orders, err := h.orders.FindServiceOrders(r.Context(), claims.TenantID, filter)
	if err != nil {
		storeError(w, err, "Failed to list service orders")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus moves a service order to a new status
func (h *ServiceOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if !models.IsValidOrderStatus(req.Status) {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := h.orders.UpdateServiceOrderStatus(r.Context(), claims.TenantID, id, req.Status); err != nil {
		storeError(w, err, "Failed to update service order")
		return
	}
	log.WithFields(log.Fields{"order_id": id, "status": req.Status, "by": claims.Username}).Info("Service order status updated")
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}
