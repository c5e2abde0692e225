package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestProjectUnprojectRoundTrip(t *testing.T) {
	ref := Point{Lat: 38.0, Lon: -76.0, Alt: 50}
	pr := NewProjector(ref)

	target := Point{Lat: 38.001, Lon: -76.0005, Alt: 75}
	v := pr.Project(target)
	back := pr.Unproject(v)

	test.That(t, back.Lat, test.ShouldAlmostEqual, target.Lat, 1e-9)
	test.That(t, back.Lon, test.ShouldAlmostEqual, target.Lon, 1e-9)
	test.That(t, back.Alt, test.ShouldAlmostEqual, target.Alt)
}

func TestVelocityPolarRoundTrip(t *testing.T) {
	v := VelocityPolar{TrackDeg: 45, GroundSpeed: 12, VerticalSpeed: -1.5}
	enu := v.ToENU()
	back := ENUToPolar(enu)

	test.That(t, back.TrackDeg, test.ShouldAlmostEqual, v.TrackDeg, 1e-6)
	test.That(t, back.GroundSpeed, test.ShouldAlmostEqual, v.GroundSpeed, 1e-6)
	test.That(t, back.VerticalSpeed, test.ShouldAlmostEqual, v.VerticalSpeed, 1e-6)
}

func TestSegmentProjectionMidpoint(t *testing.T) {
	a := r3.Vector{X: 0, Y: 0, Z: 0}
	b := r3.Vector{X: 0, Y: 100, Z: 0}
	p := r3.Vector{X: 10, Y: 50, Z: 0}

	_, tFrac, xtrack := SegmentProjection(p, a, b)
	test.That(t, tFrac, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, xtrack, test.ShouldAlmostEqual, 10.0, 1e-9)
}

func TestTangentHeadingRightTurn(t *testing.T) {
	center := r3.Vector{X: 0, Y: 0, Z: 0}
	// Point due east of the center; a right turn (radius > 0) circles
	// clockwise, so the tangent there should point due south.
	pos := r3.Vector{X: 100, Y: 0, Z: 0}
	hdg := TangentHeading(center, pos, 100)
	test.That(t, math.Mod(hdg+360, 360), test.ShouldAlmostEqual, 180.0, 1e-6)
}

func TestTimeToEdgeCrossing(t *testing.T) {
	pos := r3.Vector{X: 0, Y: 0, Z: 0}
	vel := r3.Vector{X: 0, Y: 10, Z: 0}
	a := r3.Vector{X: -50, Y: 100, Z: 0}
	b := r3.Vector{X: 50, Y: 100, Z: 0}

	tt := TimeToEdgeCrossing(pos, vel, a, b)
	test.That(t, tt, test.ShouldAlmostEqual, 10.0, 1e-9)
}

func TestPointInPolygon(t *testing.T) {
	square := []r3.Vector{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	test.That(t, PointInPolygon(r3.Vector{X: 5, Y: 5}, square), test.ShouldBeTrue)
	test.That(t, PointInPolygon(r3.Vector{X: 15, Y: 5}, square), test.ShouldBeFalse)
}
