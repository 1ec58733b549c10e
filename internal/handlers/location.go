package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/location"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

// LocationHandler exposes the location resolver
type LocationHandler struct {
	resolver *location.Resolver
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(resolver *location.Resolver) *LocationHandler {
	return &LocationHandler{resolver: resolver}
}

// ResolveResponse is the result of resolving a location.
type ResolveResponse struct {
	Found        bool            `json:"found"`
	Lat          *float64        `json:"lat,omitempty"`
	Lng          *float64        `json:"lng,omitempty"`
	Source       location.Source `json:"source,omitempty"`
	GeocodeError string          `json:"geocode_error,omitempty"`
}

func newResolveResponse(res location.Resolution) ResolveResponse {
	resp := ResolveResponse{Found: res.Found(), Source: res.Source}
	if res.Found() {
		lat, lng := res.Coordinate.Lat, res.Coordinate.Lng
		resp.Lat, resp.Lng = &lat, &lng
	}
	if res.GeocodeErr != nil {
		resp.GeocodeError = res.GeocodeErr.Error()
	}
	return resp
}

// Resolve turns a map link, address or raw coordinates into a coordinate.
// Not finding one is a normal outcome and answers 200 with found=false.
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var info models.LocationInfo
	if !readJSON(w, r, &info) {
		return
	}

	res := h.resolver.Resolve(r.Context(), info)
	if res.Found() && !res.Coordinate.Valid() {
		log.WithFields(log.Fields{"lat": res.Coordinate.Lat, "lng": res.Coordinate.Lng}).Warn("Resolved coordinate is out of range")
	}
	writeJSON(w, http.StatusOK, newResolveResponse(res))
}
