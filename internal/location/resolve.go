package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

// ErrNoResults is returned by a Geocoder that found nothing for an address.
var ErrNoResults = errors.New("no geocoding results")

// Geocoder looks up the coordinate of a free-text address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinate, error)
}

// GeocodingError records why the geocoding step produced no coordinate.
type GeocodingError struct {
	Address string
	Err     error
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocode %q: %v", e.Address, e.Err)
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// Source names the step of the chain that produced a coordinate.
type Source string

const (
	SourceNone        Source = ""
	SourceMapLink     Source = "map_link"
	SourceAddress     Source = "address"
	SourceGeocoder    Source = "geocoder"
	SourceCoordinates Source = "coordinates"
)

// Resolution is the outcome of resolving a LocationInfo. GeocodeErr is set
// whenever the geocoder was consulted and failed, even if a later step still
// found a coordinate.
type Resolution struct {
	Coordinate models.Coordinate
	Source     Source
	GeocodeErr *GeocodingError
}

// Found reports whether any step produced a coordinate.
func (r Resolution) Found() bool {
	return r.Source != SourceNone
}

// Resolver runs the location fallback chain.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver creates a resolver. A nil geocoder disables the geocoding step.
func NewResolver(geocoder Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve tries, in order: the map link, a coordinate pair typed into the
// address, the geocoder, and finally the raw lat/lng fields. It never fails;
// callers must check Found.
func (r *Resolver) Resolve(ctx context.Context, info models.LocationInfo) Resolution {
	if c, ok := ParseCoordinates(info.MapLink); ok {
		return Resolution{Coordinate: c, Source: SourceMapLink}
	}

	address := strings.TrimSpace(info.Address)
	if c, ok := matchPair(decimalPair, address); ok {
		return Resolution{Coordinate: c, Source: SourceAddress}
	}

	var res Resolution
	if address != "" && r.geocoder != nil {
		c, err := r.geocoder.Geocode(ctx, address)
		if err == nil {
			return Resolution{Coordinate: c, Source: SourceGeocoder}
		}
		res.GeocodeErr = &GeocodingError{Address: address, Err: err}
		log.WithError(err).WithField("address", address).Debug("Geocoding fell through")
	}

	if info.Lat != nil && info.Lng != nil {
		res.Coordinate = models.Coordinate{Lat: *info.Lat, Lng: *info.Lng}
		res.Source = SourceCoordinates
	}
	return res
}
