package values

import (
	"strings"

	"github.com/agentstation/factmap/pkg/constants"
)

// Coordinate is a point on a globe. Precision is in degrees; zero means exact.
// Altitude is stored but ignored by equality.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Precision float64
	Globe     string
	Altitude  *float64
}

// NewCoordinate returns a coordinate value. An empty globe means Earth.
func NewCoordinate(latitude, longitude, precision float64, globe string) Value {
	if globe = strings.TrimSpace(globe); globe == "" {
		globe = constants.ItemEarth
	}
	return Value{kind: KindCoordinate, coord: Coordinate{
		Latitude:  latitude,
		Longitude: longitude,
		Precision: precision,
		Globe:     normalizeEntityID(globe),
	}}
}

// FromCoordinate returns a coordinate value carrying every field of c.
func FromCoordinate(c Coordinate) Value {
	v := NewCoordinate(c.Latitude, c.Longitude, c.Precision, c.Globe)
	v.coord.Altitude = c.Altitude
	return v
}
