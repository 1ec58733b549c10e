package models

// Coordinate is a point on earth in decimal degrees.
type Coordinate struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether the coordinate lies within the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// LocationInfo is a loosely structured set of location hints entered by a
// user. Fields may disagree with each other.
type LocationInfo struct {
	Lat     *float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng     *float64 `bson:"lng,omitempty" json:"lng,omitempty"`
	Address string   `bson:"address,omitempty" json:"address,omitempty"`
	MapLink string   `bson:"map_link,omitempty" json:"map_link,omitempty"`
}
