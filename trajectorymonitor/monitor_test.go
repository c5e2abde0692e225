package trajectorymonitor

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/fence"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/plan"
)

func cruisePlan() *plan.Plan {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := plan.New(plan.PlanNominal)
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Time: base, GroundSpeedIn: 15})
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.001, Lon: -76.0, Alt: 50}, Time: base.Add(10 * time.Second), GroundSpeedIn: 15})
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.002, Lon: -76.0, Alt: 50}, Time: base.Add(20 * time.Second), GroundSpeedIn: 15})
	return p
}

func TestQueryNoFencesNoTraffic(t *testing.T) {
	p := cruisePlan()
	m := New(config.Default())
	pose := Pose{Position: p.Waypoints[0].Position, Velocity: geo.VelocityPolar{TrackDeg: 0, GroundSpeed: 15}}

	res := m.Query(p.Waypoints[0].Time, p, p, pose, 1, 1, nil, nil)
	test.That(t, res.FenceConflict, test.ShouldBeFalse)
	test.That(t, res.TrafficConflict, test.ShouldBeFalse)
	test.That(t, res.LineOfSightToGoal, test.ShouldBeTrue)
}

func TestQueryKeepInFenceIgnoredWhenPlanStaysInside(t *testing.T) {
	p := cruisePlan()
	m := New(config.Default())
	pose := Pose{Position: p.Waypoints[1].Position, Velocity: geo.VelocityPolar{TrackDeg: 0, GroundSpeed: 15}}

	f := fence.Fence{
		ID:   "f1",
		Type: fence.KeepIn,
		Vertices: []geo.Point{
			{Lat: 37.9995, Lon: -76.0005},
			{Lat: 38.0025, Lon: -76.0005},
			{Lat: 38.0025, Lon: -75.9995},
			{Lat: 37.9995, Lon: -75.9995},
		},
		Floor: 0, Ceiling: 100,
	}

	res := m.Query(p.Waypoints[1].Time, p, p, pose, 2, 2, []fence.Fence{f}, nil)
	test.That(t, res.FenceConflict, test.ShouldBeFalse)
}

func TestNextFeasibleWaypointStaysWithinPlanBounds(t *testing.T) {
	p := cruisePlan()
	pose := Pose{Position: p.Waypoints[0].Position, Velocity: geo.VelocityPolar{GroundSpeed: 15}}
	idx := NextFeasibleWaypoint(p, 1, pose, nil, 9999, 0, config.Default())
	test.That(t, idx, test.ShouldBeBetweenOrEqual, 0, p.Len()-1)
}

func TestTrafficPredictionHeadOnConflict(t *testing.T) {
	params := config.Default()
	pose := Pose{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Velocity: geo.VelocityPolar{TrackDeg: 0, GroundSpeed: 10}}
	tracks := []daa.TrafficTrack{
		{
			Callsign: "T1",
			Position: geo.Point{Lat: 38.001, Lon: -76.0, Alt: 50},
			Velocity: geo.VelocityPolar{TrackDeg: 180, GroundSpeed: 10},
		},
	}
	conflict, tt := trafficPrediction(pose, cruisePlan(), 1, tracks, params)
	test.That(t, conflict, test.ShouldBeTrue)
	test.That(t, tt, test.ShouldBeGreaterThanOrEqualTo, 0.0)
}
