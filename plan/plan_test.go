package plan

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.icarous.dev/core/geo"
)

func straightPlan() *Plan {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := New(PlanNominal)
	p.Append(Waypoint{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Time: base, GroundSpeedIn: 15})
	p.Append(Waypoint{Position: geo.Point{Lat: 38.001, Lon: -76.0, Alt: 50}, Time: base.Add(10 * time.Second), GroundSpeedIn: 15})
	p.Append(Waypoint{Position: geo.Point{Lat: 38.002, Lon: -76.0, Alt: 50}, Time: base.Add(20 * time.Second), GroundSpeedIn: 15})
	return p
}

func TestPlanValidateMonotonic(t *testing.T) {
	p := straightPlan()
	test.That(t, p.Validate(), test.ShouldBeNil)

	p.Waypoints[2].Time = p.Waypoints[0].Time
	err := p.Validate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlanValidateTurnClosure(t *testing.T) {
	base := time.Now()
	p := New(PlanNominal)
	center := geo.Point{Lat: 38.0005, Lon: -76.0}
	p.Append(Waypoint{Position: geo.Point{Lat: 38.0, Lon: -76.0}, Time: base})
	p.Append(Waypoint{Position: geo.Point{Lat: 38.0005, Lon: -76.0005}, Time: base.Add(time.Second),
		Track: TrackTCP{Type: TrackBOT, Radius: 50, Center: center}})
	// Missing EOT before plan end.
	test.That(t, p.Validate(), test.ShouldNotBeNil)

	p.Append(Waypoint{Position: geo.Point{Lat: 38.0005, Lon: -75.9995}, Time: base.Add(2 * time.Second),
		Track: TrackTCP{Type: TrackEOT, Radius: 50, Center: center}})
	test.That(t, p.Validate(), test.ShouldBeNil)
}

func TestChangeWaypointSpeedIdempotent(t *testing.T) {
	p := straightPlan()
	clone, ok := ChangeWaypointSpeed(p, 1, 15)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, clone, test.ShouldBeNil)

	clone, ok = ChangeWaypointSpeed(p, 1, 10)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, clone.ID, test.ShouldEqual, PlanSpeedChange)
	test.That(t, clone.Waypoints[1].GroundSpeedIn, test.ShouldEqual, 10.0)
}

func TestChangeWaypointAltNoOpBelowEpsilon(t *testing.T) {
	p := straightPlan()
	clone, ok := ChangeWaypointAlt(p, 1, 50+1e-6, true)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, clone, test.ShouldBeNil)

	clone, ok = ChangeWaypointAlt(p, 1, 60, true)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, clone.Waypoints[1].Position.Alt, test.ShouldEqual, 60.0)
	test.That(t, clone.Waypoints[2].Position.Alt, test.ShouldEqual, 60.0)
}

func TestGroundDistanceMatchesSumOfLegs(t *testing.T) {
	p := straightPlan()
	var sum float64
	for i := 0; i < p.Len()-1; i++ {
		sum += p.LegDistance(i)
	}
	test.That(t, p.GroundDistance(), test.ShouldAlmostEqual, sum, 1e-9)
}
