package guidance

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.icarous.dev/core/config"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/plan"
	"go.icarous.dev/core/store"
)

func testPlan() *plan.Plan {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := plan.New(plan.PlanNominal)
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Time: base, GroundSpeedIn: 15})
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.001, Lon: -76.0, Alt: 50}, Time: base.Add(10 * time.Second), GroundSpeedIn: 15})
	return p
}

func TestGuidanceClampsGroundSpeed(t *testing.T) {
	params := config.Default()
	g := New(params, logging.NewNopLogger())
	book := store.NewBook()
	p := testPlan()
	book.Put(p)
	g.SetFlightPlan(book, p.ID, 1)

	pose := Pose{Position: p.Waypoints[0].Position, Velocity: geo.VelocityPolar{TrackDeg: 0, GroundSpeed: 15}}
	res := g.Run(p.Waypoints[0].Time, book, pose, geo.VelocityPolar{})

	test.That(t, res.Setpoint.GroundSpeed, test.ShouldBeGreaterThanOrEqualTo, params.MinHS)
	test.That(t, res.Setpoint.GroundSpeed, test.ShouldBeLessThanOrEqualTo, params.MaxHS)
}

func TestGuidanceArrivalAdvancesWaypoint(t *testing.T) {
	params := config.Default()
	g := New(params, logging.NewNopLogger())
	book := store.NewBook()
	p := testPlan()
	book.Put(p)
	g.SetFlightPlan(book, p.ID, 1)

	pose := Pose{Position: p.Waypoints[1].Position, Velocity: geo.VelocityPolar{TrackDeg: 0, GroundSpeed: 15}}
	res := g.Run(p.Waypoints[1].Time, book, pose, geo.VelocityPolar{})

	test.That(t, res.WPReached, test.ShouldBeTrue)
	test.That(t, book.NextWP(p.ID), test.ShouldEqual, 2)
}

func TestVectorModeForwardsCommandVerbatim(t *testing.T) {
	g := New(config.Default(), logging.NewNopLogger())
	g.SetVectorCommand(geo.VelocityPolar{TrackDeg: 90, GroundSpeed: 10, VerticalSpeed: 1})

	res := g.Run(time.Now(), store.NewBook(), Pose{}, geo.VelocityPolar{})
	test.That(t, res.Setpoint.TrackDeg, test.ShouldEqual, 90.0)
	test.That(t, res.Setpoint.GroundSpeed, test.ShouldEqual, 10.0)
}

func TestChangeWaypointSpeedInstallsCloneButReportsOriginal(t *testing.T) {
	g := New(config.Default(), logging.NewNopLogger())
	book := store.NewBook()
	p := testPlan()
	book.Put(p)
	book.SetActive(p.ID)

	reportID, changed := g.ChangeWaypointSpeed(book, p.ID, 1, 10)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, reportID, test.ShouldEqual, p.ID)
	test.That(t, book.ActiveID(), test.ShouldEqual, plan.PlanSpeedChange)
}
