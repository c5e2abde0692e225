package core

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/plan"
)

func testWaypoints() []plan.Waypoint {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []plan.Waypoint{
		{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Time: base, GroundSpeedIn: 15},
		{Position: geo.Point{Lat: 38.002, Lon: -76.0, Alt: 50}, Time: base.Add(60 * time.Second), GroundSpeedIn: 15},
	}
}

func TestTickEmitsTakeoffOnFirstArmedTick(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	c := NewWithClock(config.Default(), logging.NewNopLogger(), mock)
	c.InputFlightPlanData(plan.PlanNominal, testWaypoints(), false, 0)
	c.InputVehicleState(geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, geo.VelocityPolar{})
	c.StartMission(1, 0)

	cmds, _ := c.Tick()
	test.That(t, len(cmds), test.ShouldBeGreaterThan, 0)
	test.That(t, cmds[0].Kind, test.ShouldEqual, command.KindTakeoff)
}

func TestInputParametersReplacesStateParameters(t *testing.T) {
	c := New(config.Default(), logging.NewNopLogger())
	updated := config.Default()
	updated.MaxHS = 40
	c.InputParameters(updated)
	test.That(t, c.state().Params.MaxHS, test.ShouldEqual, 40.0)
}

func TestReachedWaypointAdvancesBookkeptIndex(t *testing.T) {
	c := New(config.Default(), logging.NewNopLogger())
	c.InputFlightPlanData(plan.PlanNominal, testWaypoints(), false, 0)

	c.ReachedWaypoint(plan.PlanNominal, 0)
	test.That(t, c.state().Book.NextWP(plan.PlanNominal), test.ShouldEqual, 1)
}

func TestStartMissionArmsImmediately(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewWithClock(config.Default(), logging.NewNopLogger(), mock)

	c.StartMission(1, 5*time.Second)
	test.That(t, c.state().MissionArmed, test.ShouldBeTrue)
	test.That(t, c.state().MissionArmedAt, test.ShouldResemble, mock.Now())
}

func TestStartMissionDelayedArmsAtPlanStartPlusDelay(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewWithClock(config.Default(), logging.NewNopLogger(), mock)
	c.InputFlightPlanData(plan.PlanNominal, testWaypoints(), false, 0)

	c.StartMission(0, 10*time.Second)
	test.That(t, c.state().MissionArmed, test.ShouldBeTrue)
	test.That(t, c.state().MissionArmedAt, test.ShouldResemble, testWaypoints()[0].Time.Add(10*time.Second))
}

func TestInputDitchStatusSetsTODAltitudeAndArmsDitchRequest(t *testing.T) {
	c := New(config.Default(), logging.NewNopLogger())
	site := geo.Point{Lat: 38.0, Lon: -76.0, Alt: 0}

	c.InputDitchStatus(site, 30, true, true)
	test.That(t, c.state().TODAltitude, test.ShouldEqual, 30.0)
	test.That(t, c.state().DitchSiteValid, test.ShouldBeTrue)
	test.That(t, c.state().DitchRequested, test.ShouldBeTrue)
}
