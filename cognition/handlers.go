package cognition

import (
	"time"

	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/guidance"
	"go.icarous.dev/core/plan"
)

// Event names bound by registerDefaultBindings; also used by handlers that
// spawn children so the child's EventName is stable for logging.
const (
	EventTakeoff                  = "takeoff"
	EventNominalDeparture         = "nominal_departure"
	EventFenceConflict            = "fence_conflict"
	EventFlightplanDeviation      = "flightplan_deviation"
	EventTrafficConflictVectorRes = "traffic_conflict_vector_res"
	EventTrafficConflictPathRes   = "traffic_conflict_path_res"
	EventTrafficConflictDitch     = "traffic_conflict_ditch"
	EventDitching                 = "ditching"
	EventTODReached               = "tod_reached"
	EventPrimaryPlanComplete      = "primary_plan_complete"
	EventSecondaryPlanComplete    = "secondary_plan_complete"

	eventEngageNominalPlan    = "engage_nominal_plan"
	eventReturnToMission      = "return_to_mission"
	eventVector2Mission       = "vector2_mission"
	eventProceedToDitchSite   = "proceed_to_ditch_site"
	eventProceedFromTODToLand = "proceed_from_tod_to_land"
	eventLandPhase            = "land_phase"
)

const takeoffTimeout = 5 * time.Second

// TakeoffHandler commands takeoff and waits for external confirmation,
// resetting if none arrives within takeoffTimeout.
type TakeoffHandler struct {
	BaseHandler
	startedAt time.Time
}

func (h *TakeoffHandler) Initialize(ctx *Ctx) StepResult {
	ctx.EnqueueCommand(command.Takeoff())
	ctx.Phase.Takeoff = TakeoffInProgress
	h.startedAt = ctx.Now
	return ResultSuccess
}

func (h *TakeoffHandler) Execute(ctx *Ctx) StepResult {
	switch ctx.Phase.Takeoff {
	case TakeoffComplete:
		return ResultSuccess
	default:
		if ctx.Now.Sub(h.startedAt) > takeoffTimeout {
			return ResultReset
		}
		return ResultInProgress
	}
}

func (h *TakeoffHandler) Terminate(ctx *Ctx) StepResult {
	ctx.Spawn(eventEngageNominalPlan, 9, &EngageNominalPlanHandler{})
	return ResultSuccess
}

// EngageNominalPlanHandler switches guidance back onto the nominal plan at
// its bookkept next waypoint.
type EngageNominalPlanHandler struct{ BaseHandler }

func (h *EngageNominalPlanHandler) Initialize(ctx *Ctx) StepResult {
	nextWP := ctx.Book.NextWP(plan.PlanNominal)
	if nextWP <= 0 {
		nextWP = 1
	}
	ctx.Guidance.SetFlightPlan(ctx.Book, plan.PlanNominal, nextWP)
	ctx.EnqueueCommand(command.FpChange(plan.PlanNominal, nextWP, ctx.TrajResult.NextFeasibleWP))
	return ResultSuccess
}

// TrafficConflictHandler drives one DAA resolution dimension toward its
// preferred band value and holds it until the conflict has stayed clear for
// PersistenceTime.
type TrafficConflictHandler struct {
	BaseHandler
	dimension      config.ResolutionType
	clearSince     time.Time
	haveClearSince bool
}

func (h *TrafficConflictHandler) Initialize(ctx *Ctx) StepResult {
	ctx.PrevResolution = ResolutionMemory{
		Valid: true,
		Track: ctx.Pose.Velocity.TrackDeg,
		Speed: ctx.Pose.Velocity.GroundSpeed,
		Alt:   ctx.Pose.Position.Alt,
		VS:    ctx.Pose.Velocity.VerticalSpeed,
	}
	h.dimension = GetResolutionType(ctx.State)
	h.haveClearSince = false
	return ResultSuccess
}

func (h *TrafficConflictHandler) Execute(ctx *Ctx) StepResult {
	switch h.dimension {
	case config.ResSpeed:
		pref := ctx.SpeedBands.PreferredResolution
		mult := 1.01
		if pref < ctx.PrevResolution.Speed {
			mult = 0.99
		}
		ctx.Guidance.ChangeWaypointSpeed(ctx.Book, ctx.Book.ActiveID(), ctx.Book.NextWP(ctx.Book.ActiveID()), pref*mult)
		ctx.EnqueueCommand(command.SpeedChange(ctx.Book.ActiveID(), pref*mult, false))
	case config.ResAltitude:
		if reachedTarget(ctx.Pose.Position.Alt, ctx.AltBands.PreferredResolution) {
			ctx.Guidance.ChangeWaypointAlt(ctx.Book, ctx.Book.ActiveID(), ctx.Book.NextWP(ctx.Book.ActiveID()), ctx.AltBands.PreferredResolution, true)
			ctx.EnqueueCommand(command.AltChange(ctx.Book.ActiveID(), ctx.AltBands.PreferredResolution, false))
		}
	case config.ResTrack:
		v := geo.VelocityPolar{TrackDeg: ctx.TrackBands.PreferredResolution, GroundSpeed: ctx.Pose.Velocity.GroundSpeed}
		ctx.Guidance.SetVectorCommand(v)
		ctx.EnqueueCommand(command.Velocity(v.ToENU().Y, v.ToENU().X, v.ToENU().Z))
	case config.ResVerticalSpeed:
		v := geo.VelocityPolar{TrackDeg: ctx.Pose.Velocity.TrackDeg, GroundSpeed: ctx.Pose.Velocity.GroundSpeed, VerticalSpeed: ctx.VSBands.PreferredResolution}
		ctx.Guidance.SetVectorCommand(v)
		ctx.EnqueueCommand(command.Velocity(v.ToENU().Y, v.ToENU().X, v.ToENU().Z))
	}

	returnSafe := h.returnSafe(ctx)
	noConflict := !anyBandConflict(ctx.State)

	if noConflict && returnSafe {
		if !h.haveClearSince {
			h.clearSince = ctx.Now
			h.haveClearSince = true
		}
		elapsed := ctx.Now.Sub(h.clearSince).Seconds()
		if elapsed >= ctx.Params.PersistenceTime {
			return ResultSuccess
		}
	} else {
		h.haveClearSince = false
	}
	return ResultInProgress
}

func (h *TrafficConflictHandler) returnSafe(ctx *Ctx) bool {
	return ctx.TrajResult.LineOfSightToGoal && !ctx.TrajResult.TrafficConflict
}

func reachedTarget(cur, target float64) bool {
	return absf(cur-target) < 1.0
}

func (h *TrafficConflictHandler) Terminate(ctx *Ctx) StepResult {
	switch {
	case ctx.Params.Return2NextWP:
		ctx.Spawn(eventReturnToMission, 7, &ReturnToNextFeasibleWPHandler{})
	case ctx.Params.ReturnVector:
		ctx.Spawn(eventVector2Mission, 7, &Vector2MissionHandler{})
	default:
		ctx.Spawn(eventEngageNominalPlan, 7, &EngageNominalPlanHandler{})
	}
	return ResultSuccess
}

// ReturnToMissionHandler requests a replan from current pose to the next
// feasible waypoint on the nominal plan, then waits until the planner's
// response (a plan stored under the requested Plan<N> id) arrives before
// installing it.
type ReturnToMissionHandler struct {
	BaseHandler
	requestedPlanID string
	requestedAt     time.Time
}

const requestTimeout = 10 * time.Second

func (h *ReturnToMissionHandler) Initialize(ctx *Ctx) StepResult {
	h.requestedPlanID = ctx.Book.NextDetourID()
	h.requestedAt = ctx.Now

	to := ctx.TrajResult.NextFeasibleWP
	var toPos geo.Point
	if nominal, ok := ctx.Book.Get(plan.PlanNominal); ok && to >= 0 && to < nominal.Len() {
		toPos = nominal.Waypoints[to].Position
	}

	ctx.RequestState[h.requestedPlanID] = RequestProcessing
	ctx.EnqueueCommand(command.FpRequest(h.requestedPlanID,
		command.EndpointState{Position: ctx.Pose.Position, Velocity: ctx.Pose.Velocity},
		command.EndpointState{Position: toPos, Velocity: geo.VelocityPolar{}},
	))
	return ResultSuccess
}

func (h *ReturnToMissionHandler) Execute(ctx *Ctx) StepResult {
	if _, ok := ctx.Book.Get(h.requestedPlanID); ok {
		ctx.RequestState[h.requestedPlanID] = RequestResponded
	}
	switch ctx.RequestState[h.requestedPlanID] {
	case RequestResponded:
		return ResultSuccess
	default:
		if ctx.Now.Sub(h.requestedAt) > requestTimeout {
			return ResultReset
		}
		return ResultInProgress
	}
}

func (h *ReturnToMissionHandler) Terminate(ctx *Ctx) StepResult {
	if _, ok := ctx.Book.Get(h.requestedPlanID); ok {
		ctx.Guidance.SetFlightPlan(ctx.Book, h.requestedPlanID, 1)
		ctx.EnqueueCommand(command.FpChange(h.requestedPlanID, 1, ctx.TrajResult.NextFeasibleWP))
	}
	return ResultSuccess
}

// ReturnToNextFeasibleWPHandler replans back onto the nominal route at the
// trajectory monitor's current next-feasible-waypoint estimate.
type ReturnToNextFeasibleWPHandler struct {
	ReturnToMissionHandler
}

// Vector2MissionHandler closes the loop on a direct velocity command toward
// the next feasible waypoint, without requesting a replan.
type Vector2MissionHandler struct {
	BaseHandler
}

func (h *Vector2MissionHandler) Execute(ctx *Ctx) StepResult {
	nominal, ok := ctx.Book.Get(plan.PlanNominal)
	if !ok {
		return ResultShutdown
	}
	idx := ctx.TrajResult.NextFeasibleWP
	if idx < 0 || idx >= nominal.Len() {
		return ResultShutdown
	}
	target := nominal.Waypoints[idx].Position

	pr := geo.NewProjector(ctx.Pose.Position)
	posV := pr.Project(ctx.Pose.Position)
	targetV := pr.Project(target)
	dist := posV.Sub(targetV).Norm()

	heading := geo.RadialBearing(posV, targetV)
	speed := ctx.Pose.Velocity.GroundSpeed
	if dist < 200 {
		speed = ctx.Params.MinHS
	}
	altErr := target.Alt - ctx.Pose.Position.Alt
	vs := clampAbs(ctx.Params.ClimbRateGain*altErr, ctx.Params.MinVS, ctx.Params.MaxVS)

	v := geo.VelocityPolar{TrackDeg: heading, GroundSpeed: speed, VerticalSpeed: vs}
	ctx.Guidance.SetVectorCommand(v)
	enu := v.ToENU()
	ctx.EnqueueCommand(command.Velocity(enu.Y, enu.X, enu.Z))

	capture := maxf(10, 2.5*ctx.Pose.Velocity.GroundSpeed)
	if dist <= capture {
		return ResultSuccess
	}
	return ResultInProgress
}

func (h *Vector2MissionHandler) Terminate(ctx *Ctx) StepResult {
	ctx.Spawn(eventEngageNominalPlan, 7, &EngageNominalPlanHandler{})
	return ResultSuccess
}

// RequestDitchSiteHandler commands a ditch-site search and waits for the
// external planner to mark one valid.
type RequestDitchSiteHandler struct {
	BaseHandler
	requestedAt time.Time
}

func (h *RequestDitchSiteHandler) Initialize(ctx *Ctx) StepResult {
	ctx.Phase.DitchActive = true
	h.requestedAt = ctx.Now
	ctx.DitchRequested = true
	ctx.EnqueueCommand(command.Ditch())
	return ResultSuccess
}

func (h *RequestDitchSiteHandler) Execute(ctx *Ctx) StepResult {
	if ctx.DitchSiteValid {
		return ResultSuccess
	}
	if ctx.Now.Sub(h.requestedAt) > requestTimeout {
		return ResultReset
	}
	return ResultInProgress
}

func (h *RequestDitchSiteHandler) Terminate(ctx *Ctx) StepResult {
	ctx.Spawn(eventProceedToDitchSite, 8, &ProceedToDitchSiteHandler{})
	return ResultSuccess
}

// ProceedToDitchSiteHandler requests a plan from current pose to the
// ditch site and installs it once the external planner responds.
type ProceedToDitchSiteHandler struct {
	BaseHandler
	requestedAt time.Time
	requested   bool
}

func (h *ProceedToDitchSiteHandler) Initialize(ctx *Ctx) StepResult {
	h.requestedAt = ctx.Now
	h.requested = true
	ctx.RequestState[plan.PlanDitch] = RequestProcessing

	from := command.EndpointState{Position: ctx.Pose.Position, Velocity: ctx.Pose.Velocity}
	to := command.EndpointState{Position: geo.Point{Lat: ctx.DitchSite.Lat, Lon: ctx.DitchSite.Lon, Alt: ctx.TODAltitude}}
	ctx.EnqueueCommand(command.FpRequest(plan.PlanDitch, from, to))
	return ResultSuccess
}

func (h *ProceedToDitchSiteHandler) Execute(ctx *Ctx) StepResult {
	if _, ok := ctx.Book.Get(plan.PlanDitch); ok {
		ctx.RequestState[plan.PlanDitch] = RequestResponded
	}
	switch ctx.RequestState[plan.PlanDitch] {
	case RequestResponded:
		return ResultSuccess
	default:
		if ctx.Now.Sub(h.requestedAt) > requestTimeout {
			return ResultReset
		}
		return ResultInProgress
	}
}

func (h *ProceedToDitchSiteHandler) Terminate(ctx *Ctx) StepResult {
	ctx.Guidance.SetFlightPlan(ctx.Book, plan.PlanDitch, 1)
	ctx.EnqueueCommand(command.FpChange(plan.PlanDitch, 1, 1))
	return ResultSuccess
}

// ProceedFromTODtoLandHandler switches guidance to point-to-point toward the
// ditch site once top-of-descent is reached, then hands off to landing.
type ProceedFromTODtoLandHandler struct {
	BaseHandler
}

func (h *ProceedFromTODtoLandHandler) Initialize(ctx *Ctx) StepResult {
	ctx.Phase.TODReached = true
	ctx.Guidance.SetPoint2Point(ctx.DitchSite, ctx.Params.MinHS)
	ctx.EnqueueCommand(command.P2P(ctx.DitchSite, ctx.Params.MinHS))
	return ResultSuccess
}

func (h *ProceedFromTODtoLandHandler) Execute(ctx *Ctx) StepResult {
	if ctx.Phase.P2PComplete {
		return ResultSuccess
	}
	return ResultInProgress
}

func (h *ProceedFromTODtoLandHandler) Terminate(ctx *Ctx) StepResult {
	ctx.Spawn(eventLandPhase, 6, &LandPhaseHandler{})
	return ResultSuccess
}

// LandPhaseHandler switches guidance to landing mode and commands touchdown.
type LandPhaseHandler struct{ BaseHandler }

func (h *LandPhaseHandler) Initialize(ctx *Ctx) StepResult {
	ctx.Guidance.SetMode(guidance.ModeLand)
	ctx.EnqueueCommand(command.Land())
	return ResultSuccess
}

func clampAbs(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
