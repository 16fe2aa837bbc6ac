package osm

import (
	"encoding/xml"
	"fmt"
	"math"
	"sort"

	"map-editor/models"
)

// ParseOSMFromBytes parses OSM XML data from a byte slice
func ParseOSMFromBytes(data []byte) (*OSM, error) {
	var osm OSM
	if err := xml.Unmarshal(data, &osm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OSM XML: %w", err)
	}
	return &osm, nil
}

// FindRelationByID finds a relation by its ID
func (osm *OSM) FindRelationByID(id int64) (*Relation, bool) {
	for i := range osm.Relations {
		if osm.Relations[i].ID == id {
			return &osm.Relations[i], true
		}
	}
	return nil, false
}

// FindWayByID finds a way by its ID
func (osm *OSM) FindWayByID(id int64) (*Way, bool) {
	for i := range osm.Ways {
		if osm.Ways[i].ID == id {
			return &osm.Ways[i], true
		}
	}
	return nil, false
}

// WayPositions resolves the node references of a way, skipping nodes missing from the document
func (osm *OSM) WayPositions(way *Way) []models.Position {
	nodes := make(map[int64]Node, len(osm.Nodes))
	for _, n := range osm.Nodes {
		nodes[n.ID] = n
	}

	positions := make([]models.Position, 0, len(way.Nodes))
	for _, ref := range way.Nodes {
		if n, ok := nodes[ref.Ref]; ok {
			positions = append(positions, models.Position{n.Lon, n.Lat})
		}
	}
	return positions
}

// RelationBoundary connects the outer ways of a relation into one closed ring
func (osm *OSM) RelationBoundary(relation *Relation) (models.Ring, error) {
	var segments [][]models.Position
	for _, member := range relation.Members {
		if member.Type != "way" || member.Role != "outer" {
			continue
		}
		way, found := osm.FindWayByID(member.Ref)
		if !found {
			continue
		}
		if coords := osm.WayPositions(way); len(coords) > 0 {
			segments = append(segments, coords)
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no outer ways found in relation %d", relation.ID)
	}

	ring, ok := connectSegments(segments)
	if !ok {
		ring = convexHullOrder(segments)
	}
	ring = ring.Close()
	if !ring.Closed() {
		return nil, fmt.Errorf("relation %d does not form a closed ring", relation.ID)
	}
	return ring, nil
}

// connectSegments chains way segments end to end, reversing them where needed.
// It reports false when the segments do not form a single chain.
func connectSegments(segments [][]models.Position) (models.Ring, bool) {
	result := append(models.Ring{}, segments[0]...)
	used := make([]bool, len(segments))
	used[0] = true

	for remaining := len(segments) - 1; remaining > 0; remaining-- {
		last := result[len(result)-1]
		next := -1
		reversed := false
		for i, seg := range segments {
			if used[i] {
				continue
			}
			if closeEnough(seg[0], last) {
				next = i
				break
			}
			if closeEnough(seg[len(seg)-1], last) {
				next, reversed = i, true
				break
			}
		}
		if next < 0 {
			return nil, false
		}

		seg := segments[next]
		if reversed {
			for i := len(seg) - 2; i >= 0; i-- {
				result = append(result, seg[i])
			}
		} else {
			result = append(result, seg[1:]...)
		}
		used[next] = true
	}
	return result, true
}

// convexHullOrder is the fallback when ways cannot be chained: every vertex is sorted by angle
// around the southernmost point.
func convexHullOrder(segments [][]models.Position) models.Ring {
	var all models.Ring
	for _, seg := range segments {
		all = append(all, seg...)
	}
	if len(all) <= 3 {
		return all
	}

	start := 0
	for i, p := range all {
		if p.Lat() < all[start].Lat() || (p.Lat() == all[start].Lat() && p.Lon() < all[start].Lon()) {
			start = i
		}
	}
	origin := all[start]

	rest := make(models.Ring, 0, len(all)-1)
	rest = append(rest, all[:start]...)
	rest = append(rest, all[start+1:]...)
	sort.SliceStable(rest, func(i, j int) bool {
		return angle(origin, rest[i]) < angle(origin, rest[j])
	})
	return append(models.Ring{origin}, rest...)
}

func angle(from, to models.Position) float64 {
	return math.Atan2(to.Lat()-from.Lat(), to.Lon()-from.Lon())
}

// closeEnough treats points within ~0.1m as the same vertex
func closeEnough(a, b models.Position) bool {
	const tolerance = 0.000001
	dLat := a.Lat() - b.Lat()
	dLon := a.Lon() - b.Lon()
	return dLat*dLat+dLon*dLon < tolerance*tolerance
}
