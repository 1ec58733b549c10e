package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/dumpster-logistics/internal/location"
	"github.com/ukydev/dumpster-logistics/internal/models"
)

func TestClient_Geocode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Praça da Sé, São Paulo", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"-23.5503","lon":"-46.6339","display_name":"Praça da Sé"}]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL + "/", UserAgent: "test-agent"})
	got, err := c.Geocode(context.Background(), "Praça da Sé, São Paulo")

	require.NoError(t, err)
	assert.Equal(t, models.Coordinate{Lat: -23.5503, Lng: -46.6339}, got)
}

func TestClient_Geocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL})
	_, err := c.Geocode(context.Background(), "Nowhere")

	assert.ErrorIs(t, err, location.ErrNoResults)
}

func TestClient_Geocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"invalid json", http.StatusOK, `{bad json`},
		{"invalid latitude", http.StatusOK, `[{"lat":"north","lon":"1.0"}]`},
		{"invalid longitude", http.StatusOK, `[{"lat":"1.0","lon":""}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			c := NewClient(Options{BaseURL: server.URL})
			_, err := c.Geocode(context.Background(), "Rua A")
			assert.Error(t, err)
			assert.NotErrorIs(t, err, location.ErrNoResults)
		})
	}
}

func TestClient_Geocode_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Geocode(context.Background(), "Slow Street")
	assert.Error(t, err)
}

func TestClient_Geocode_RateLimitRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"1.5","lon":"2.5"}]`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL, RequestsPerSecond: 0.01})

	_, err := c.Geocode(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Geocode(ctx, "second")
	assert.Error(t, err)
}

func TestClient_SatisfiesGeocoder(t *testing.T) {
	var _ location.Geocoder = NewClient(Options{})
}
