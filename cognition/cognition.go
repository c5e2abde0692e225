package cognition

import (
	"time"

	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/logging"
)

// Cognition owns the scheduler and the state it operates on, and exposes
// the single per-tick entry point the core calls.
type Cognition struct {
	scheduler *Scheduler
	state     *State
}

// New builds a Cognition instance with every default binding registered, in
// a fixed order so that two runs seeded with identical state and inputs
// produce byte-identical command queues.
func New(params config.Parameters, logger logging.Logger) *Cognition {
	c := &Cognition{
		scheduler: NewScheduler(logger),
		state:     NewState(params),
	}
	c.registerDefaultBindings()
	return c
}

// State exposes the mutable cognition aggregate so input_* handlers and the
// wiring core can update it between ticks.
func (c *Cognition) State() *State { return c.state }

func (c *Cognition) registerDefaultBindings() {
	register := func(event string, priority float64, trigger Trigger, newHandler func() Handler) {
		c.scheduler.Register(Binding{EventName: event, Priority: priority, Trigger: trigger, NewHandler: newHandler})
	}

	register(EventTakeoff, 10, TakeoffTrigger, func() Handler { return &TakeoffHandler{} })
	register(EventNominalDeparture, 9, NominalDepartureTrigger, func() Handler { return &EngageNominalPlanHandler{} })
	register(EventTrafficConflictDitch, 8, TrafficConflictDitchTrigger, func() Handler { return &RequestDitchSiteHandler{} })
	register(EventDitching, 8, DitchingTrigger, func() Handler { return &RequestDitchSiteHandler{} })
	register(EventTrafficConflictVectorRes, 7, TrafficConflictVectorResTrigger, func() Handler { return &TrafficConflictHandler{} })
	register(EventTrafficConflictPathRes, 7, TrafficConflictPathResTrigger, func() Handler { return &TrafficConflictHandler{} })
	register(EventFenceConflict, 6, FenceConflictTrigger, func() Handler { return &EngageNominalPlanHandler{} })
	register(EventTODReached, 6, TODReachedTrigger, func() Handler { return &ProceedFromTODtoLandHandler{} })
	register(EventFlightplanDeviation, 5, FlightplanDeviationTrigger, func() Handler { return &EngageNominalPlanHandler{} })
	register(EventPrimaryPlanComplete, 3, PrimaryPlanCompleteTrigger, func() Handler { return &BaseHandler{} })
	register(EventSecondaryPlanComplete, 3, SecondaryPlanCompleteTrigger, func() Handler { return &EngageNominalPlanHandler{} })
}

// Run advances the state's clock to now, ticks the scheduler once, and
// returns every command enqueued this tick (draining the queue).
func (c *Cognition) Run(now time.Time, guidance GuidanceFacade) []command.Command {
	c.state.Now = now
	ctx := &Ctx{State: c.state, Guidance: guidance}
	c.scheduler.Tick(ctx)
	return c.state.DrainCommands()
}
