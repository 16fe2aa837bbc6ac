package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Position is a single vertex in GeoJSON order: [longitude, latitude].
type Position [2]float64

// Lon returns the longitude of the position
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude of the position
func (p Position) Lat() float64 { return p[1] }

// Ring is an ordered polygon boundary. A closed ring repeats its first vertex as the last one.
type Ring []Position

// Closed reports whether the ring has at least 4 positions and ends where it starts
func (r Ring) Closed() bool {
	return len(r) >= 4 && r[0] == r[len(r)-1]
}

// Close returns a copy of the ring with the first vertex appended when it is not already closed.
func (r Ring) Close() Ring {
	out := r.Clone()
	if len(out) == 0 {
		return out
	}
	if out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}

// Clone returns an independent copy of the ring
func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// Equal compares two rings vertex by vertex. A nil ring equals an empty one.
func (r Ring) Equal(other Ring) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// DistinctVertices counts the unique positions of the ring
func (r Ring) DistinctVertices() int {
	seen := make(map[Position]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Bounds returns the bounding box of the ring
func (r Ring) Bounds() (minLat, maxLat, minLon, maxLon float64, hasData bool) {
	if len(r) == 0 {
		return 0, 0, 0, 0, false
	}

	minLat, maxLat = r[0].Lat(), r[0].Lat()
	minLon, maxLon = r[0].Lon(), r[0].Lon()
	for _, p := range r[1:] {
		minLat = min(minLat, p.Lat())
		maxLat = max(maxLat, p.Lat())
		minLon = min(minLon, p.Lon())
		maxLon = max(maxLon, p.Lon())
	}
	return minLat, maxLat, minLon, maxLon, true
}

// EncodeRingToJSON encodes a ring to its JSON text form
func EncodeRingToJSON(ring Ring) (string, error) {
	if len(ring) == 0 {
		return "[]", nil
	}

	jsonData, err := json.Marshal(ring)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ring to JSON: %w", err)
	}
	return string(jsonData), nil
}

// DecodeRingFromJSON decodes the JSON text form produced by EncodeRingToJSON
func DecodeRingFromJSON(jsonString string) (Ring, error) {
	if jsonString == "" || jsonString == "[]" {
		return nil, nil
	}

	var ring Ring
	if err := json.Unmarshal([]byte(jsonString), &ring); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ring JSON: %w", err)
	}
	return ring, nil
}

// GeoJSONPolygon renders the ring as a GeoJSON Polygon geometry
func GeoJSONPolygon(ring Ring) (string, error) {
	coords, err := EncodeRingToJSON(ring)
	if err != nil {
		return "", err
	}
	return `{"type":"Polygon","coordinates":[` + coords + `]}`, nil
}

// PrettyPrintRing prints a ring in a readable format
func PrettyPrintRing(ring Ring) string {
	if len(ring) == 0 {
		return "no coordinates"
	}

	parts := make([]string, 0, len(ring))
	for _, p := range ring {
		parts = append(parts, fmt.Sprintf("[%.6f, %.6f]", p.Lon(), p.Lat()))
	}
	return strings.Join(parts, ", ")
}
