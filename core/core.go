// Package core wires cognition, guidance, and the trajectory monitor into
// the single per-tick autonomy loop a host application drives: feed in
// vehicle state and plan data between ticks, call Tick once per period, and
// drain the resulting command queue.
package core

import (
	"time"

	"github.com/benbjohnson/clock"

	"go.icarous.dev/core/cognition"
	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/fence"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/guidance"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/plan"
	"go.icarous.dev/core/trajectorymonitor"
)

// Core owns one cognition instance and one guidance loop, sharing a single
// plan book between them, and runs them in a fixed order every tick:
// cognition decides, then guidance steers. Reversing that order would let
// guidance act on a mode cognition hasn't applied yet.
type Core struct {
	logger logging.Logger
	clock  clock.Clock

	cognition *cognition.Cognition
	guidance  *guidance.Guidance

	nextWPOnNominal int
	nextWPOnActive  int
}

// New builds a Core with a production clock.
func New(params config.Parameters, logger logging.Logger) *Core {
	return &Core{
		logger:    logger,
		clock:     clock.New(),
		cognition: cognition.New(params, logger),
		guidance:  guidance.New(params, logger),
	}
}

// NewWithClock builds a Core driven by an injected clock, for deterministic
// tests.
func NewWithClock(params config.Parameters, logger logging.Logger, clk clock.Clock) *Core {
	c := New(params, logger)
	c.clock = clk
	return c
}

// state is a shorthand for the cognition aggregate every input_* method
// mutates.
func (c *Core) state() *cognition.State { return c.cognition.State() }

// InputVehicleState records ownship's current position and velocity.
func (c *Core) InputVehicleState(position geo.Point, velocity geo.VelocityPolar) {
	pose := guidance.Pose{Position: position, Velocity: velocity}
	c.state().Pose = pose
}

// InputWind records the current wind vector.
func (c *Core) InputWind(wind geo.VelocityPolar) {
	c.state().Wind = wind
}

// InputFlightPlanData installs or replaces planID's waypoint sequence. When
// repair is true the plan is first run through plan.Repair, which inserts
// BOT/EOT turn TCPs at course changes sized by the configured turn rate;
// the ground-speed and vertical-speed channels are left as delivered. A plan
// that fails plan.Validate is not stored: the rejection is logged at error
// level and an error-severity status command is queued.
func (c *Core) InputFlightPlanData(planID string, waypoints []plan.Waypoint, repair bool, initHeadingDeg float64) {
	p := plan.FromWaypoints(planID, waypoints)
	if repair {
		p = plan.Repair(p, initHeadingDeg, c.state().Params.TurnRate)
	}
	if err := p.Validate(); err != nil {
		c.logger.Errorw("rejected flight plan", "plan", planID, "error", err)
		c.state().EnqueueCommand(command.Status(command.SeverityError, "rejected flight plan "+planID+": "+err.Error()))
		return
	}
	c.state().Book.Put(p)
}

// InputParameters replaces configuration wholesale across cognition and
// guidance.
func (c *Core) InputParameters(params config.Parameters) {
	c.state().Params = params
	c.guidance.SetParameters(params)
}

// InputDitchStatus is the ditch-site response/request input: site and
// valid carry the external planner's answer to a RequestDitchSite command,
// todAlt sets the top-of-descent altitude ProceedToDitchSite plans toward,
// and requested arms an external ditch request (the "ditching" event) even
// absent a prior traffic-conflict resolution.
func (c *Core) InputDitchStatus(site geo.Point, todAlt float64, valid bool, requested bool) {
	s := c.state()
	s.DitchSite = site
	s.TODAltitude = todAlt
	s.DitchSiteValid = valid
	if requested {
		s.DitchRequested = true
	}
}

// InputMergeStatus records the current merge-coordination state.
func (c *Core) InputMergeStatus(status int) {
	c.state().MergeStatus = status
}

// InputTrafficAlert records the DAA-reported alert level for a single
// traffic track.
func (c *Core) InputTrafficAlert(callsign string, level daa.AlertLevel) {
	c.state().TrafficAlerts[callsign] = level
}

// InputTraffic records or replaces a traffic track's reported state.
func (c *Core) InputTraffic(track daa.TrafficTrack) {
	c.state().Traffic[track.Callsign] = track
}

// InputTrackBands, InputSpeedBands, InputAltBands, and InputVSBands replace
// the DAA band set for their respective dimension.
func (c *Core) InputTrackBands(bands daa.BandSet) { c.state().TrackBands = bands }
func (c *Core) InputSpeedBands(bands daa.BandSet) { c.state().SpeedBands = bands }
func (c *Core) InputAltBands(bands daa.BandSet)   { c.state().AltBands = bands }
func (c *Core) InputVSBands(bands daa.BandSet)    { c.state().VSBands = bands }

// InputGeofenceConflictData records the fence monitor's horizontal/vertical
// conflict summary.
func (c *Core) InputGeofenceConflictData(fc daa.FenceConflict) {
	c.state().FenceConflictData = fc
}

// InputFences replaces the known fence set.
func (c *Core) InputFences(fences []fence.Fence) {
	c.state().Fences = fences
}

// ReachedWaypoint is the host's acknowledgement that planID's waypoint
// wpSeq has been physically reached.
func (c *Core) ReachedWaypoint(planID string, wpSeq int) {
	c.state().Book.ReachedWaypoint(planID, wpSeq)
}

// StartMission arms the mission in both cases value distinguishes: value>0
// arms for immediate takeoff, value==0 arms for a delayed takeoff at
// wall-clock ≥ the nominal plan's scheduled start plus delay.
func (c *Core) StartMission(value float64, delay time.Duration) {
	s := c.state()
	s.MissionStartValue = value
	s.MissionStartDelay = delay
	s.MissionArmed = true

	if value > 0 {
		s.MissionArmedAt = c.clock.Now()
		return
	}

	planStart := c.clock.Now()
	if nominal, ok := s.Book.Get(plan.PlanNominal); ok && nominal.Len() > 0 {
		planStart = nominal.Waypoints[0].Time
	}
	s.MissionArmedAt = planStart.Add(delay)
}

// Tick reads the clock, refreshes the trajectory monitor's prediction
// against the current pose and plans, runs cognition, then runs guidance,
// and returns the tick's full command queue plus guidance's setpoint.
func (c *Core) Tick() ([]command.Command, guidance.Result) {
	now := c.clock.Now()
	s := c.state()

	nominal, _ := s.Book.Get(plan.PlanNominal)
	active, _ := s.Book.Active()
	if active == nil {
		active = nominal
	}

	monitor := trajectorymonitor.New(s.Params)
	pose := trajectorymonitor.Pose{Position: s.Pose.Position, Velocity: s.Pose.Velocity}
	s.TrajResult = monitor.Query(
		now, active, nominal, pose,
		s.Book.NextWP(plan.PlanNominal), s.Book.NextWP(s.Book.ActiveID()),
		s.Fences, trafficSlice(s.Traffic),
	)

	cmds := c.cognition.Run(now, c.guidance)
	result := c.guidance.Run(now, s.Book, guidance.Pose{Position: s.Pose.Position, Velocity: s.Pose.Velocity}, s.Wind)

	return cmds, result
}

func trafficSlice(m map[string]daa.TrafficTrack) []daa.TrafficTrack {
	out := make([]daa.TrafficTrack, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	return out
}
