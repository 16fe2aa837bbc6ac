package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"map-editor/models"
)

// PolygonInteriorCentroid returns a (lat, lon) point that lies inside the ring.
// It starts from the area centroid and walks toward the first vertex when the centroid
// falls outside (concave shapes).
func PolygonInteriorCentroid(ring models.Ring) (float64, float64) {
	if len(ring) < 3 {
		if len(ring) == 0 {
			return 0, 0
		}
		return ring[0].Lat(), ring[0].Lon()
	}

	var area float64
	var cx, cy float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		x0, y0 := ring[i].Lon(), ring[i].Lat()
		x1, y1 := ring[j].Lon(), ring[j].Lat()

		a := x0*y1 - x1*y0
		area += a
		cx += (x0 + x1) * a
		cy += (y0 + y1) * a
	}
	area *= 0.5
	if area == 0 {
		return ring[0].Lat(), ring[0].Lon()
	}
	centroidLon := cx / (6 * area)
	centroidLat := cy / (6 * area)

	if PointInPolygon(centroidLat, centroidLon, ring) {
		return centroidLat, centroidLon
	}

	const stepCount = 20
	for t := 0.95; t >= 0; t -= 1.0 / stepCount {
		testLat := t*centroidLat + (1-t)*ring[0].Lat()
		testLon := t*centroidLon + (1-t)*ring[0].Lon()
		if PointInPolygon(testLat, testLon, ring) {
			return testLat, testLon
		}
	}

	return ring[0].Lat(), ring[0].Lon()
}

// PointInPolygon is a ray-casting test of (lat, lon) against the ring
func PointInPolygon(lat, lon float64, ring models.Ring) bool {
	n := len(ring)
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		yi, xi := ring[i].Lat(), ring[i].Lon()
		yj, xj := ring[j].Lat(), ring[j].Lon()
		intersect := ((xi > lon) != (xj > lon)) &&
			(lat < (yj-yi)*(lon-xi)/(xj-xi+1e-14)+yi)
		if intersect {
			inside = !inside
		}
		j = i
	}
	return inside
}

// NormalizeName folds a display name for matching: diacritics removed, dashes unified,
// whitespace collapsed and lower-cased. "Jumeirah Village Círcle – JVC" and
// "jumeirah village circle - jvc" normalize to the same key.
func NormalizeName(s string) string {
	s = strings.NewReplacer("–", "-", "—", "-", "―", "-").Replace(s)

	decomposed := norm.NFD.String(s)
	out := make([]rune, 0, len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return strings.Join(strings.Fields(string(out)), " ")
}
