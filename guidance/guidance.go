// Package guidance implements the single-threaded control loop that turns
// the active plan or a vector command into a 3-D velocity setpoint.
package guidance

import (
	"math"
	"time"

	"go.icarous.dev/core/config"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/plan"
	"go.icarous.dev/core/store"
)

// Mode selects which of guidance's sub-algorithms produces the setpoint.
type Mode int

const (
	ModeFlightPlan Mode = iota
	ModePoint2Point
	ModeVector
	ModeTakeoff
	ModeLand
)

// Pose is ownship's current kinematic state.
type Pose struct {
	Position geo.Point
	Velocity geo.VelocityPolar
}

// Result is one tick's output: the velocity setpoint plus any
// waypoint-progress side effects from arrival at the current target.
type Result struct {
	Setpoint       geo.VelocityPolar
	WPReached      bool
	ReachedWPSeq   int
	ActivePlanID   string
	ActiveNextWP   int
}

// Guidance is the plan-following control loop. It holds no plan data of its
// own; plans are borrowed from a *store.Book for the duration of one Run.
type Guidance struct {
	params config.Parameters
	logger logging.Logger

	mode Mode

	vectorCmd geo.VelocityPolar
	p2pTarget geo.Point
	p2pSpeed  float64

	lastHeadingDeg float64
	lastGS         float64
	haveLast       bool
}

// New builds a Guidance loop with the given configuration.
func New(params config.Parameters, logger logging.Logger) *Guidance {
	return &Guidance{params: params, logger: logger, mode: ModeTakeoff}
}

// SetParameters replaces the configuration wholesale (input_parameters).
func (g *Guidance) SetParameters(p config.Parameters) { g.params = p }

// Mode returns the current control mode.
func (g *Guidance) Mode() Mode { return g.mode }

// SetMode switches control mode directly (used for TAKEOFF/LAND).
func (g *Guidance) SetMode(m Mode) { g.mode = m }

// SetVectorCommand installs an externally-commanded velocity, forwarded
// verbatim while in ModeVector.
func (g *Guidance) SetVectorCommand(v geo.VelocityPolar) {
	g.mode = ModeVector
	g.vectorCmd = v
}

// SetPoint2Point switches to point-to-point mode, steering toward target at
// speed.
func (g *Guidance) SetPoint2Point(target geo.Point, speed float64) {
	g.mode = ModePoint2Point
	g.p2pTarget = target
	g.p2pSpeed = speed
}

// SetFlightPlan activates planID at wpIndex in book and switches to
// flight-plan mode. This is the guidance-facing mutator cognition calls
// after deciding on a mode/plan change.
func (g *Guidance) SetFlightPlan(book *store.Book, planID string, wpIndex int) {
	book.SetActive(planID)
	book.SetNextWP(planID, wpIndex)
	g.mode = ModeFlightPlan
}

// ChangeWaypointSpeed stores a speed-edited clone of planID in book and
// installs the clone as active, returning the original plan id for
// cognition reporting. The clone id is internal, never surfaced to callers.
func (g *Guidance) ChangeWaypointSpeed(book *store.Book, planID string, wpIdx int, newSpeed float64) (reportPlanID string, changed bool) {
	p, ok := book.Get(planID)
	if !ok {
		return planID, false
	}
	clone, ok := plan.ChangeWaypointSpeed(p, wpIdx, newSpeed)
	if !ok {
		return planID, false
	}
	book.Put(clone)
	book.SetNextWP(clone.ID, wpIdx)
	book.SetActive(clone.ID)
	return planID, true
}

// ChangeWaypointAlt is the altitude analogue of ChangeWaypointSpeed.
func (g *Guidance) ChangeWaypointAlt(book *store.Book, planID string, wpIdx int, newAlt float64, updateAll bool) (reportPlanID string, changed bool) {
	p, ok := book.Get(planID)
	if !ok {
		return planID, false
	}
	clone, ok := plan.ChangeWaypointAlt(p, wpIdx, newAlt, updateAll)
	if !ok {
		return planID, false
	}
	book.Put(clone)
	book.SetNextWP(clone.ID, wpIdx)
	book.SetActive(clone.ID)
	return planID, true
}

// ChangeWaypointETA applies an ETA edit in place (no clone).
func (g *Guidance) ChangeWaypointETA(book *store.Book, planID string, wpIdx int, newTime time.Time, updateAll bool) {
	p, ok := book.Get(planID)
	if !ok {
		return
	}
	plan.ChangeWaypointETA(p, wpIdx, newTime, updateAll)
}

// Run produces one tick's velocity setpoint and waypoint-progress side
// effects.
func (g *Guidance) Run(now time.Time, book *store.Book, pose Pose, wind geo.VelocityPolar) Result {
	switch g.mode {
	case ModeVector:
		return Result{Setpoint: g.vectorCmd}
	case ModeTakeoff:
		return Result{Setpoint: geo.VelocityPolar{}}
	case ModeLand:
		return g.runLand(book, pose)
	case ModePoint2Point:
		return g.runPoint2Point(pose)
	default:
		return g.runFlightPlan(now, book, pose, wind)
	}
}

func clampf(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
