package cognition

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/guidance"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/plan"
	"go.icarous.dev/core/store"
)

// recordingHandler counts how many times each lifecycle step ran and never
// completes on its own; tests drive it to completion explicitly via done.
type recordingHandler struct {
	BaseHandler
	name    string
	log     *[]string
	initN   int
	execN   int
	termN   int
	done    bool
}

func (h *recordingHandler) Initialize(ctx *Ctx) StepResult {
	h.initN++
	*h.log = append(*h.log, h.name+":init")
	return ResultSuccess
}

func (h *recordingHandler) Execute(ctx *Ctx) StepResult {
	h.execN++
	*h.log = append(*h.log, h.name+":exec")
	if h.done {
		return ResultSuccess
	}
	return ResultInProgress
}

func (h *recordingHandler) Terminate(ctx *Ctx) StepResult {
	h.termN++
	*h.log = append(*h.log, h.name+":term")
	return ResultSuccess
}

type stubGuidance struct{ mode guidance.Mode }

func (s *stubGuidance) Mode() guidance.Mode                 { return s.mode }
func (s *stubGuidance) SetMode(m guidance.Mode)             { s.mode = m }
func (s *stubGuidance) SetFlightPlan(*store.Book, string, int) {}
func (s *stubGuidance) SetVectorCommand(geo.VelocityPolar)     {}
func (s *stubGuidance) SetPoint2Point(geo.Point, float64)      {}
func (s *stubGuidance) ChangeWaypointSpeed(*store.Book, string, int, float64) (string, bool) {
	return "", false
}
func (s *stubGuidance) ChangeWaypointAlt(*store.Book, string, int, float64, bool) (string, bool) {
	return "", false
}
func (s *stubGuidance) ChangeWaypointETA(*store.Book, string, int, time.Time, bool) {}

func newTestScheduler() *Scheduler {
	return NewScheduler(logging.NewNopLogger())
}

// TestSchedulerPriorityPreemptsLowerPriorityHead triggers a low-priority
// handler first, then a higher-priority one on the next tick. The lower one
// must be preempted (marked done) without ever reaching Terminate.
func TestSchedulerPriorityPreemptsLowerPriorityHead(t *testing.T) {
	s := newTestScheduler()
	var log []string

	lowArmed, highArmed := true, false
	lowHandler := &recordingHandler{name: "low", log: &log}
	highHandler := &recordingHandler{name: "high", log: &log, done: true}

	s.Register(Binding{EventName: "low", Priority: 3, Trigger: func(*State) bool { return lowArmed },
		NewHandler: func() Handler { return lowHandler }})
	s.Register(Binding{EventName: "high", Priority: 9, Trigger: func(*State) bool { return highArmed },
		NewHandler: func() Handler { return highHandler }})

	state := NewState(config.Default())
	g := &stubGuidance{}

	// Tick 1: only low triggers, advances to INITIALIZE.
	ctx := &Ctx{State: state, Guidance: g}
	s.Tick(ctx)
	test.That(t, lowHandler.initN, test.ShouldEqual, 1)
	test.That(t, lowHandler.termN, test.ShouldEqual, 0)

	// Tick 2: high triggers too and preempts the still-running low handler.
	highArmed = true
	s.Tick(ctx)

	test.That(t, lowHandler.termN, test.ShouldEqual, 0)
	test.That(t, highHandler.initN, test.ShouldBeGreaterThan, 0)
}

// TestSchedulerDeterministicCommandQueue runs two independently constructed
// Cognition instances through identical inputs and expects byte-identical
// command queues, since registration order is fixed and ties break on it.
func TestSchedulerDeterministicCommandQueue(t *testing.T) {
	params := config.Default()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	run := func() []int {
		c := New(params, logging.NewNopLogger())
		s := c.State()
		s.MissionArmed = true
		s.MissionArmedAt = now.Add(-time.Second)
		g := &stubGuidance{}
		cmds := c.Run(now, g)
		out := make([]int, len(cmds))
		for i, cmd := range cmds {
			out[i] = int(cmd.Kind)
		}
		return out
	}

	a := run()
	b := run()
	test.That(t, a, test.ShouldResemble, b)
}

func TestGetResolutionTypeHonorsPriorityOrderAndRecovery(t *testing.T) {
	s := NewState(config.Default())
	s.Params.ResolutionType = 201 // track, speed, altitude priority

	s.TrackBands.CurrentConflict = true
	s.TrackBands.Intervals = []daa.Interval{{Low: -10, High: 10, Severity: daa.SeverityRecovery}}
	s.TrackBands.PreferredResolution = 0 // falls inside the recovery interval

	s.AltBands.CurrentConflict = true
	s.AltBands.PreferredResolution = 100 // no recovery interval configured

	got := GetResolutionType(s)
	test.That(t, got, test.ShouldEqual, config.ResAltitude)
}

func TestGetResolutionTypeFallsBackToFirstPriorityWhenNoneQualify(t *testing.T) {
	s := NewState(config.Default())
	s.Params.ResolutionType = 12 // altitude, track priority

	got := GetResolutionType(s)
	test.That(t, got, test.ShouldEqual, config.ResAltitude)
}

func testNominalPlan() *plan.Plan {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := plan.New(plan.PlanNominal)
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.0, Lon: -76.0, Alt: 50}, Time: base, GroundSpeedIn: 15})
	p.Append(plan.Waypoint{Position: geo.Point{Lat: 38.002, Lon: -76.0, Alt: 50}, Time: base.Add(60 * time.Second), GroundSpeedIn: 15})
	return p
}

// TestTakeoffSequenceEngagesNominalPlan drives the scheduler through
// takeoff completion and expects the EngageNominalPlan child spawned by the
// takeoff handler to engage the nominal plan.
func TestTakeoffSequenceEngagesNominalPlan(t *testing.T) {
	params := config.Default()
	c := New(params, logging.NewNopLogger())
	s := c.State()
	s.Book.Put(testNominalPlan())
	s.Book.SetNextWP(plan.PlanNominal, 1)
	s.MissionArmed = true
	s.MissionArmedAt = time.Now().Add(-time.Second)

	g := guidance.New(params, logging.NewNopLogger())
	now := time.Now()

	// Tick 1: takeoff triggers and initializes.
	cmds := c.Run(now, g)
	test.That(t, len(cmds), test.ShouldBeGreaterThan, 0)
	test.That(t, cmds[0].Kind, test.ShouldEqual, command.KindTakeoff)

	// Report takeoff complete; the handler needs one tick each to observe
	// completion (EXECUTE), run TERMINATE (which spawns the child), and then
	// let the spawned child run its own INITIALIZE step.
	s.Phase.Takeoff = TakeoffComplete
	c.Run(now.Add(1*time.Second), g)
	c.Run(now.Add(2*time.Second), g)
	c.Run(now.Add(3*time.Second), g)

	test.That(t, g.Mode(), test.ShouldEqual, guidance.ModeFlightPlan)
}
