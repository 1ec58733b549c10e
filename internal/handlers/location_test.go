package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/dumpster-logistics/internal/location"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

func resolveRequest(t *testing.T, handler *LocationHandler, body string) ResolveResponse {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/locations/resolve", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.Resolve(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestLocationHandler_Resolve(t *testing.T) {
	t.Run("map link", func(t *testing.T) {
		handler := NewLocationHandler(location.NewResolver(nil))
		resp := resolveRequest(t, handler, `{"map_link":"https://maps.google.com/?q=-23.5505,-46.6333"}`)

		assert.True(t, resp.Found)
		assert.Equal(t, location.SourceMapLink, resp.Source)
		require.NotNil(t, resp.Lat)
		assert.Equal(t, -23.5505, *resp.Lat)
		assert.Equal(t, -46.6333, *resp.Lng)
	})

	t.Run("geocoded address", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Geocode", mock.Anything, "Av. Paulista, 1000").Return(models.Coordinate{Lat: -23.56, Lng: -46.65}, nil)
		handler := NewLocationHandler(location.NewResolver(geocoder))

		resp := resolveRequest(t, handler, `{"address":"Av. Paulista, 1000"}`)
		assert.True(t, resp.Found)
		assert.Equal(t, location.SourceGeocoder, resp.Source)
		geocoder.AssertExpectations(t)
	})

	t.Run("geocoder failure falls back to coordinates", func(t *testing.T) {
		geocoder := new(MockGeocoder)
		geocoder.On("Geocode", mock.Anything, "Nowhere").Return(models.Coordinate{}, location.ErrNoResults)
		handler := NewLocationHandler(location.NewResolver(geocoder))

		resp := resolveRequest(t, handler, `{"address":"Nowhere","lat":-10.5,"lng":-20.25}`)
		assert.True(t, resp.Found)
		assert.Equal(t, location.SourceCoordinates, resp.Source)
		assert.NotEmpty(t, resp.GeocodeError)
	})

	t.Run("nothing usable", func(t *testing.T) {
		handler := NewLocationHandler(location.NewResolver(nil))
		resp := resolveRequest(t, handler, `{"address":"somewhere"}`)

		assert.False(t, resp.Found)
		assert.Nil(t, resp.Lat)
		assert.Empty(t, resp.Source)
	})

	t.Run("bad request", func(t *testing.T) {
		handler := NewLocationHandler(location.NewResolver(nil))
		w := httptest.NewRecorder()
		handler.Resolve(w, httptest.NewRequest("POST", "/api/locations/resolve", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		handler.Resolve(w, httptest.NewRequest("GET", "/api/locations/resolve", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
