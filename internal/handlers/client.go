package handlers

import (
	"context"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/dumpster-logistics/internal/db"
	"github.com/ukydev/dumpster-logistics/internal/location"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ClientHandler manages a tenant's clients
type ClientHandler struct {
	clients  db.ClientCollection
	resolver *location.Resolver
}

// NewClientHandler creates a new client handler
func NewClientHandler(clients db.ClientCollection, resolver *location.Resolver) *ClientHandler {
	return &ClientHandler{clients: clients, resolver: resolver}
}

type clientRequest struct {
	Name     string              `json:"name"`
	Phone    string              `json:"phone"`
	Email    string              `json:"email"`
	Document string              `json:"document"`
	Location models.LocationInfo `json:"location"`
	Notes    string              `json:"notes"`
}

type clientResponse struct {
	models.Client
	LocationSource location.Source `json:"location_source,omitempty"`
	GeocodeError   string          `json:"geocode_error,omitempty"`
}

// locate resolves the client's location hints and stores the coordinate.
func (h *ClientHandler) locate(ctx context.Context, client *models.Client) clientResponse {
	resp := clientResponse{}
	res := h.resolver.Resolve(ctx, client.Location)
	if res.Found() {
		c := res.Coordinate
		if !c.Valid() {
			log.WithFields(log.Fields{"client": client.Name, "lat": c.Lat, "lng": c.Lng}).Warn("Client coordinate is out of range")
		}
		client.Coordinate = &c
		resp.LocationSource = res.Source
	} else {
		client.Coordinate = nil
	}
	if res.GeocodeErr != nil {
		resp.GeocodeError = res.GeocodeErr.Error()
	}
	resp.Client = *client
	return resp
}

// List returns the caller's clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	clients, err := h.clients.FindClients(r.Context(), claims.TenantID)
	if err != nil {
		storeError(w, err, "Failed to list clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// Get returns a single client
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	client, err := h.clients.FindClientByID(r.Context(), claims.TenantID, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "Failed to get client")
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// Create stores a client, resolving its location hints to a coordinate
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	client := models.Client{
		ID:       primitive.NewObjectID(),
		TenantID: claims.TenantID,
		Name:     strings.TrimSpace(req.Name),
		Phone:    req.Phone,
		Email:    req.Email,
		Document: req.Document,
		Location: req.Location,
		Notes:    req.Notes,
	}
	resp := h.locate(r.Context(), &client)

	if err := h.clients.InsertClient(r.Context(), client); err != nil {
		storeError(w, err, "Failed to create client")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update replaces a client's details and re-resolves its location
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	client, err := h.clients.FindClientByID(r.Context(), claims.TenantID, id)
	if err != nil {
		storeError(w, err, "Failed to get client")
		return
	}
	client.Name = strings.TrimSpace(req.Name)
	client.Phone = req.Phone
	client.Email = req.Email
	client.Document = req.Document
	client.Location = req.Location
	client.Notes = req.Notes
	resp := h.locate(r.Context(), client)

	if err := h.clients.UpdateClient(r.Context(), claims.TenantID, id, *client); err != nil {
		storeError(w, err, "Failed to update client")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a client
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	if err := h.clients.DeleteClient(r.Context(), claims.TenantID, r.PathValue("id")); err != nil {
		storeError(w, err, "Failed to delete client")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
