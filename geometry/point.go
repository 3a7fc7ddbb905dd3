// Package geometry holds the simulator's 3-D point type and the geographic
// conversion helper used by mobility commands.
package geometry

import "math"

// Point is a position in 3-D Cartesian space.
type Point struct {
	X, Y, Z float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s, p.Z * s}
}

// Length returns the Euclidean norm of p treated as a vector.
func (p Point) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// SquaredDistance returns the squared Euclidean distance between p and q,
// avoiding a sqrt for reachability checks (§4.5 compares against R^2).
func SquaredDistance(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// GeoCoords is a geographic position (degrees, degrees, meters).
type GeoCoords struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// earthRadiusMeters is used for the flat-earth approximation below; the
// spec explicitly scopes geodesy proper out of the core (§1), so this
// mirrors the linear approximation the original implementation uses rather
// than a full geodetic projection.
const earthRadiusMeters = 6371000.0

// ToCartesian converts a geographic coordinate to a Cartesian point relative
// to reference, using an equirectangular (flat-earth) approximation: degrees
// of latitude/longitude are scaled by the reference latitude's local radius.
// This is adequate for the short-range scenarios the simulator targets and
// deliberately does not attempt geodesic precision (out of scope, §1).
func ToCartesian(coords, reference GeoCoords) Point {
	latRad := reference.Latitude * math.Pi / 180.0
	dLat := (coords.Latitude - reference.Latitude) * math.Pi / 180.0
	dLon := (coords.Longitude - reference.Longitude) * math.Pi / 180.0

	y := dLat * earthRadiusMeters
	x := dLon * earthRadiusMeters * math.Cos(latRad)
	z := coords.Altitude - reference.Altitude

	return Point{X: x, Y: y, Z: z}
}
