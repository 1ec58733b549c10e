// Package location turns the loose location hints users type in (map links,
// addresses, pasted coordinates) into a single coordinate.
package location

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/ukydev/dumpster-logistics/internal/models"
)

var (
	// decimalPair matches "lat, lng" anywhere in a string. The pattern cannot
	// tell latitude from longitude; the first number is always taken as lat.
	decimalPair = regexp.MustCompile(`(-?\d+\.\d+)\s*,\s*(-?\d+\.\d+)`)

	// atPair matches the "/@lat,lng,zoom" path segment of map share links.
	atPair = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
)

// ParseCoordinates extracts a coordinate from a map link or free text.
//
// Absolute URLs are checked for a q= then ll= query parameter and then an
// @lat,lng path segment. Anything that is not a usable URL, or a URL where
// none of those matched, is scanned for a bare decimal pair. Coordinates in
// text must be written as "lat,lng".
func ParseCoordinates(text string) (models.Coordinate, bool) {
	if text == "" {
		return models.Coordinate{}, false
	}

	if u, err := url.Parse(text); err == nil && u.IsAbs() && u.Host != "" {
		query := u.Query()
		for _, key := range []string{"q", "ll"} {
			if c, ok := matchPair(decimalPair, query.Get(key)); ok {
				return c, true
			}
		}
		if c, ok := matchPair(atPair, u.Path); ok {
			return c, true
		}
	}

	return matchPair(decimalPair, text)
}

func matchPair(re *regexp.Regexp, s string) (models.Coordinate, bool) {
	if s == "" {
		return models.Coordinate{}, false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return models.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: lat, Lng: lng}, true
}
