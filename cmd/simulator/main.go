package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

type city struct {
	Name string
	Point
}

// Cities clients are scattered around
var cities = []city{
	{"São Paulo", Point{Lat: -23.5505, Lng: -46.6333}},
	{"Rio de Janeiro", Point{Lat: -22.9068, Lng: -43.1729}},
	{"Belo Horizonte", Point{Lat: -19.9167, Lng: -43.9345}},
	{"Curitiba", Point{Lat: -25.4284, Lng: -49.2733}},
	{"Porto Alegre", Point{Lat: -30.0346, Lng: -51.2177}},
	{"Lisbon", Point{Lat: 38.7223, Lng: -9.1393}},
	{"Madrid", Point{Lat: 40.4168, Lng: -3.7038}},
	{"London", Point{Lat: 51.5074, Lng: -0.1278}},
	{"New York", Point{Lat: 40.7128, Lng: -74.0060}},
	{"Bogotá", Point{Lat: 4.7110, Lng: -74.0721}},
}

func jitterLocation(base Point, meters float64) Point {
	latMetersPerDeg := 111320.0
	lngMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLng := (rand.Float64()*2 - 1) * (meters / lngMetersPerDeg)
	return Point{Lat: base.Lat + dLat, Lng: base.Lng + dLng}
}

func haversineKm(a, b Point) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

// Hint styles, matching the ways operators type a client location.
const (
	hintQueryLink = iota
	hintAtLink
	hintAddressText
	hintRawCoordinates
	hintCount
)

// locationHint describes p the way style says.
func locationHint(p Point, style int, cityName string) models.LocationInfo {
	switch style {
	case hintQueryLink:
		return models.LocationInfo{MapLink: fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", p.Lat, p.Lng)}
	case hintAtLink:
		return models.LocationInfo{MapLink: fmt.Sprintf("https://www.google.com/maps/@%.6f,%.6f,17z", p.Lat, p.Lng)}
	case hintAddressText:
		return models.LocationInfo{Address: fmt.Sprintf("Canteiro %s, %.6f, %.6f", cityName, p.Lat, p.Lng)}
	default:
		lat, lng := p.Lat, p.Lng
		return models.LocationInfo{Lat: &lat, Lng: &lng}
	}
}

// randomRule picks one to three distinct weekdays at a half-hour slot
// between 06:00 and 17:30.
func randomRule() models.RecurrenceRule {
	days := rand.Perm(7)[:1+rand.Intn(3)]
	slot := 12 + rand.Intn(24)
	return models.RecurrenceRule{
		DaysOfWeek: days,
		Time:       fmt.Sprintf("%02d:%02d", slot/2, (slot%2)*30),
	}
}

// apiClient talks to the dumpster-logistics API
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// do sends body as JSON and decodes a JSON answer into out. A status other
// than want is an error.
func (c *apiClient) do(method, path string, body, out interface{}, want int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type createdClient struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Coordinate     *models.Coordinate `json:"coordinate"`
	LocationSource string             `json:"location_source"`
}

func (c *apiClient) createClient(name string, info models.LocationInfo) (*createdClient, error) {
	var created createdClient
	body := map[string]interface{}{"name": name, "location": info}
	if err := c.do(http.MethodPost, "/clients", body, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"client_id": created.ID,
		"name":      name,
		"source":    created.LocationSource,
	}).Info("Created client")
	return &created, nil
}

func (c *apiClient) createSchedule(clientID string, serviceType models.ServiceType, rule models.RecurrenceRule) (*models.RecurringSchedule, error) {
	var schedule models.RecurringSchedule
	body := map[string]interface{}{"client_id": clientID, "service_type": serviceType, "rule": rule}
	if err := c.do(http.MethodPost, "/schedules", body, &schedule, http.StatusCreated); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"client_id": clientID,
		"days":      rule.DaysOfWeek,
		"time":      rule.Time,
		"next_run":  schedule.NextRun,
	}).Info("Created schedule")
	return &schedule, nil
}

// completeDueOrders plays a driver: every scheduled order that is due by now
// is marked completed. It returns the number of orders completed.
func (c *apiClient) completeDueOrders(depot Point, now time.Time) (int, error) {
	q := url.Values{}
	q.Set("status", models.OrderScheduled)
	q.Set("to", now.UTC().Format(time.RFC3339))

	var orders []models.ServiceOrder
	if err := c.do(http.MethodGet, "/service-orders?"+q.Encode(), nil, &orders, http.StatusOK); err != nil {
		return 0, err
	}

	done := 0
	for _, o := range orders {
		fields := log.Fields{"order_id": o.ID.Hex(), "type": o.Type}
		if o.Coordinate != nil {
			fields["distance_km"] = math.Round(haversineKm(depot, Point{Lat: o.Coordinate.Lat, Lng: o.Coordinate.Lng})*10) / 10
		}
		body := map[string]string{"status": models.OrderCompleted}
		if err := c.do(http.MethodPatch, "/service-orders/"+o.ID.Hex()+"/status", body, nil, http.StatusOK); err != nil {
			log.WithFields(fields).WithError(err).Error("Failed to complete order")
			continue
		}
		log.WithFields(fields).Info("Completed order")
		done++
	}
	return done, nil
}

func seed(c *apiClient, count int) int {
	serviceTypes := []models.ServiceType{models.ServiceDelivery, models.ServicePickup, models.ServiceSwap}
	created := 0
	for i := 0; i < count; i++ {
		site := cities[rand.Intn(len(cities))]
		p := jitterLocation(site.Point, 3000)
		client, err := c.createClient(fmt.Sprintf("Obra %d - %s", i+1, site.Name), locationHint(p, i%hintCount, site.Name))
		if err != nil {
			log.WithError(err).Error("Failed to create client")
			continue
		}
		if _, err := c.createSchedule(client.ID, serviceTypes[rand.Intn(len(serviceTypes))], randomRule()); err != nil {
			log.WithError(err).Error("Failed to create schedule")
			continue
		}
		created++
	}
	return created
}

func main() {
	token := os.Getenv("SIM_AUTH_TOKEN")

	clientCount := 10
	if val := os.Getenv("SIM_CLIENTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			clientCount = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := time.Minute
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"clients":  clientCount,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting dispatch simulation")

	c := newAPIClient(apiURL, token)
	seeded := seed(c, clientCount)
	log.WithField("scheduled_clients", seeded).Info("Seeding completed")
	if seeded == 0 {
		log.Error("No clients scheduled. Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		return
	}

	depot := cities[0].Point
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for now := range tick.C {
		if _, err := c.completeDueOrders(depot, now); err != nil {
			log.WithError(err).Error("Failed to poll service orders")
		}
	}
}
