// Package cognition implements the priority-driven event-handler scheduler,
// the cognition state it operates on, the trigger predicates that spawn
// handlers, and the concrete handlers themselves.
package cognition

import (
	"time"

	"go.icarous.dev/core/command"
	"go.icarous.dev/core/config"
	"go.icarous.dev/core/daa"
	"go.icarous.dev/core/fence"
	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/guidance"
	"go.icarous.dev/core/store"
	"go.icarous.dev/core/trajectorymonitor"
)

// TakeoffPhase tracks the Takeoff handler's external-confirmation state
// machine.
type TakeoffPhase int

const (
	TakeoffNotStarted TakeoffPhase = iota
	TakeoffInProgress
	TakeoffComplete
)

// RequestStatus is the three-state request/response protocol a handler
// walks while waiting on an external planner: NIL -> PROCESSING -> RESPONDED.
type RequestStatus int

const (
	RequestNil RequestStatus = iota
	RequestProcessing
	RequestResponded
)

// ResolutionMemory snapshots ownship's commanded state at the moment a
// TrafficConflict handler begins resolving, so it can be restored or
// compared against on re-engagement.
type ResolutionMemory struct {
	Valid bool
	Track float64
	Speed float64
	Alt   float64
	VS    float64
}

// PhaseFlags is the bundle of mission-phase booleans: takeoff progress,
// point-to-point completion, top-of-descent reached, and the ditch/merge/
// return-to-launch flags.
type PhaseFlags struct {
	Takeoff     TakeoffPhase
	P2PComplete bool
	TODReached  bool
	DitchActive bool
	MergeActive bool
	RTLActive   bool
}

// State is the single aggregate cognition mutates once per tick. It is
// constructed once at boot and lives until shutdown; only the cognition
// tick and the input_* handlers mutate it.
type State struct {
	Now  time.Time
	Pose guidance.Pose
	Wind geo.VelocityPolar

	TrackBands daa.BandSet
	SpeedBands daa.BandSet
	VSBands    daa.BandSet
	AltBands   daa.BandSet

	FenceConflictData daa.FenceConflict
	Traffic           map[string]daa.TrafficTrack
	TrafficAlerts     map[string]daa.AlertLevel

	Book *store.Book

	TrajResult trajectorymonitor.Result

	PrevResolution ResolutionMemory
	RequestState   map[string]RequestStatus

	Phase PhaseFlags

	MissionStartValue float64
	MissionStartDelay time.Duration
	MissionArmedAt    time.Time
	MissionArmed      bool

	DitchSite      geo.Point
	DitchRequested bool
	DitchSiteValid bool
	TODAltitude    float64

	MergeStatus int

	Fences []fence.Fence

	Params config.Parameters

	Commands []command.Command
}

// NewState constructs an empty cognition state backed by its own plan book.
func NewState(params config.Parameters) *State {
	return &State{
		Book:          store.NewBook(),
		Traffic:       map[string]daa.TrafficTrack{},
		TrafficAlerts: map[string]daa.AlertLevel{},
		RequestState:  map[string]RequestStatus{},
		Params:        params,
	}
}

// EnqueueCommand appends cmd to the outgoing command queue. The queue is
// append-only within a tick; only DrainCommands clears it.
func (s *State) EnqueueCommand(cmd command.Command) {
	s.Commands = append(s.Commands, cmd)
}

// DrainCommands returns and clears the command queue, matching the host's
// end-of-tick drain.
func (s *State) DrainCommands() []command.Command {
	cmds := s.Commands
	s.Commands = nil
	return cmds
}

// NextWaypointOn returns the bookkept next-waypoint index for planID.
func (s *State) NextWaypointOn(planID string) int {
	return s.Book.NextWP(planID)
}
