// Package geo provides geodetic<->local-tangent-plane projection and the
// track-crossing / turn-conflict / segment-intersection geometry shared by
// the trajectory monitor and guidance loop.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	golanggeo "github.com/kellydunn/golang-geo"
)

// earthRadiusM is the mean earth radius used by the local equirectangular
// projection below; bearing and distance come from golang-geo.
const earthRadiusM = 6371000.0

// Point is a geodetic position: latitude/longitude in degrees, altitude in
// meters above the reference datum.
type Point struct {
	Lat, Lon, Alt float64
}

// toGolangGeo adapts Point to the kellydunn/golang-geo representation used
// for great-circle bearing and distance.
func (p Point) toGolangGeo() *golanggeo.Point {
	return golanggeo.NewPoint(p.Lat, p.Lon)
}

// GroundDistance returns the geodesic distance between a and b in meters,
// ignoring altitude.
func GroundDistance(a, b Point) float64 {
	return a.toGolangGeo().GreatCircleDistance(b.toGolangGeo()) * 1000.0
}

// Bearing returns the initial great-circle bearing from a to b, in degrees
// from true north, in [0, 360).
func Bearing(a, b Point) float64 {
	brg := a.toGolangGeo().BearingTo(b.toGolangGeo())
	return math.Mod(brg+360.0, 360.0)
}

// Projector anchors a local East/North/Up tangent-plane frame at a reference
// point; every horizontal computation in this core goes through one of
// these rather than working in raw lat/lon.
type Projector struct {
	ref            Point
	metersPerDegLat float64
	metersPerDegLon float64
}

// NewProjector anchors a projector at ref. Using a fresh projector per
// operation (rather than a single global one) keeps small-angle error
// negligible over the leg lengths a small UAS flies.
func NewProjector(ref Point) *Projector {
	latRad := ref.Lat * math.Pi / 180.0
	return &Projector{
		ref:             ref,
		metersPerDegLat: (math.Pi / 180.0) * earthRadiusM,
		metersPerDegLon: (math.Pi / 180.0) * earthRadiusM * math.Cos(latRad),
	}
}

// Project converts a geodetic position into an ENU vector (X=East, Y=North,
// Z=Up) relative to the projector's reference point.
func (pr *Projector) Project(p Point) r3.Vector {
	return r3.Vector{
		X: (p.Lon - pr.ref.Lon) * pr.metersPerDegLon,
		Y: (p.Lat - pr.ref.Lat) * pr.metersPerDegLat,
		Z: p.Alt - pr.ref.Alt,
	}
}

// Unproject converts an ENU vector back to a geodetic position.
func (pr *Projector) Unproject(v r3.Vector) Point {
	return Point{
		Lat: pr.ref.Lat + v.Y/pr.metersPerDegLat,
		Lon: pr.ref.Lon + v.X/pr.metersPerDegLon,
		Alt: pr.ref.Alt + v.Z,
	}
}
