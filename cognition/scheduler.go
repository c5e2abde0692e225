package cognition

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"go.icarous.dev/core/geo"
	"go.icarous.dev/core/guidance"
	"go.icarous.dev/core/logging"
	"go.icarous.dev/core/store"
)

// StepResult is a handler state-machine step's outcome.
type StepResult int

const (
	ResultSuccess StepResult = iota
	ResultInProgress
	ResultReset
	ResultShutdown
)

// ExecState is the handler lifecycle state.
type ExecState int

const (
	ExecNoop ExecState = iota
	ExecInitialize
	ExecExecute
	ExecTerminate
	ExecDone
)

// Handler is the polymorphic capability set every concrete behavior
// implements. Prefer embedding BaseHandler and overriding
// only the methods a handler actually needs, rather than building a class
// hierarchy.
type Handler interface {
	Initialize(ctx *Ctx) StepResult
	Execute(ctx *Ctx) StepResult
	Terminate(ctx *Ctx) StepResult
}

// BaseHandler supplies the default: every method returns SUCCESS.
type BaseHandler struct{}

func (BaseHandler) Initialize(*Ctx) StepResult { return ResultSuccess }
func (BaseHandler) Execute(*Ctx) StepResult    { return ResultSuccess }
func (BaseHandler) Terminate(*Ctx) StepResult  { return ResultSuccess }

// Spawn is a child handler instance request, collected during a step and
// drained onto the scheduler's queue once that step completes.
type Spawn struct {
	EventName string
	Priority  float64
	Handler   Handler
}

// Ctx is the per-step execution context handed to Handler methods: the
// cognition state, the guidance facade for mode/plan mutators, and a spawn
// collector.
type Ctx struct {
	*State
	Guidance GuidanceFacade
	spawned  []Spawn
}

// Spawn records a child handler to be pushed onto the scheduler once the
// current step finishes.
func (c *Ctx) Spawn(eventName string, priority float64, h Handler) {
	c.spawned = append(c.spawned, Spawn{EventName: eventName, Priority: priority, Handler: h})
}

// GuidanceFacade is the guidance-facing mutator surface cognition calls
// directly, bypassing the command queue, whenever a handler needs to change
// what guidance is doing this same tick rather than wait a tick for the
// host to relay a queued command back in.
type GuidanceFacade interface {
	Mode() guidance.Mode
	SetMode(m guidance.Mode)
	SetFlightPlan(book *store.Book, planID string, wpIndex int)
	SetVectorCommand(v geo.VelocityPolar)
	SetPoint2Point(target geo.Point, speed float64)
	ChangeWaypointSpeed(book *store.Book, planID string, wpIdx int, newSpeed float64) (string, bool)
	ChangeWaypointAlt(book *store.Book, planID string, wpIdx int, newAlt float64, updateAll bool) (string, bool)
	ChangeWaypointETA(book *store.Book, planID string, wpIdx int, newTime time.Time, updateAll bool)
}

// Binding registers an event name with its priority, trigger, and handler
// factory.
type Binding struct {
	EventName  string
	Priority   float64
	Trigger    Trigger
	NewHandler func() Handler
}

// Instance is a handler instance living inside the heapset.
type Instance struct {
	EventName       string
	Handler         Handler
	DefaultPriority float64
	CurrentPriority float64
	ExecState       ExecState
	Children        []*Instance
	ID              uuid.UUID

	order int // registration-order tiebreaker, for determinism
	heapIndex int
}

// instanceHeap is a max-heap on CurrentPriority, falling back to
// registration order to keep ties deterministic.
type instanceHeap []*Instance

func (h instanceHeap) Len() int { return len(h) }
func (h instanceHeap) Less(i, j int) bool {
	if h[i].CurrentPriority != h[j].CurrentPriority {
		return h[i].CurrentPriority > h[j].CurrentPriority
	}
	return h[i].order < h[j].order
}
func (h instanceHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex, h[j].heapIndex = i, j
}
func (h *instanceHeap) Push(x interface{}) {
	inst := x.(*Instance)
	inst.heapIndex = len(*h)
	*h = append(*h, inst)
}
func (h *instanceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	inst := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return inst
}

// Scheduler is the priority heapset driving the cognition tick.
type Scheduler struct {
	bindings []Binding
	active   map[string]*Instance
	queue    instanceHeap
	seq      int
	logger   logging.Logger
}

// NewScheduler returns an empty scheduler.
func NewScheduler(logger logging.Logger) *Scheduler {
	return &Scheduler{active: map[string]*Instance{}, logger: logger}
}

// Register appends a binding in registration order. Registration order is
// the tiebreaker whenever two bindings trigger on the same tick.
func (s *Scheduler) Register(b Binding) {
	s.bindings = append(s.bindings, b)
}

// Active reports whether eventName currently has a live handler instance.
func (s *Scheduler) Active(eventName string) bool {
	_, ok := s.active[eventName]
	return ok
}

func (s *Scheduler) peek() *Instance {
	if len(s.queue) == 0 {
		return nil
	}
	return s.queue[0]
}

func (s *Scheduler) push(eventName string, priority float64, h Handler) *Instance {
	inst := &Instance{
		EventName:       eventName,
		Handler:         h,
		DefaultPriority: priority,
		CurrentPriority: priority,
		ExecState:       ExecNoop,
		ID:              uuid.New(),
		order:           s.seq,
	}
	s.seq++
	s.active[eventName] = inst
	heap.Push(&s.queue, inst)
	return inst
}

func (s *Scheduler) pop() *Instance {
	if len(s.queue) == 0 {
		return nil
	}
	inst := heap.Pop(&s.queue).(*Instance)
	delete(s.active, inst.EventName)
	return inst
}

// Tick runs one pass of the scheduler: the monitor pass followed by one
// handler-pass step.
func (s *Scheduler) Tick(ctx *Ctx) {
	s.monitorPass(ctx)
	s.handlerPass(ctx)
}

// monitorPass evaluates every binding whose event has no live instance and
// pushes a new handler instance for each one that triggers, in registration
// order. Pushing a handler ahead of the current head preempts it: the old
// head is marked done without running its Terminate step.
func (s *Scheduler) monitorPass(ctx *Ctx) {
	headBefore := s.peek()
	for _, b := range s.bindings {
		if s.Active(b.EventName) {
			continue
		}
		if !b.Trigger(ctx.State) {
			continue
		}
		s.push(b.EventName, b.Priority, b.NewHandler())
		headAfter := s.peek()
		if headBefore != headAfter && headBefore != nil {
			headBefore.ExecState = ExecDone
		}
		headBefore = headAfter
	}
}

// handlerPass advances the queue head's NOOP/INITIALIZE/EXECUTE/TERMINATE
// state machine by exactly one step, then drains any children it spawned.
func (s *Scheduler) handlerPass(ctx *Ctx) {
	h := s.peek()
	if h == nil {
		return
	}

	if h.ExecState == ExecNoop {
		// A spawned child has no registered binding/trigger of its own (it
		// was pushed directly by its parent's step, not by the monitor
		// pass) and always proceeds past NOOP.
		if b := s.binding(h.EventName); b != nil && !b.Trigger(ctx.State) {
			s.pop()
			return
		}
		h.ExecState = ExecInitialize
		h.CurrentPriority = h.DefaultPriority + 0.5
		heap.Fix(&s.queue, h.heapIndex)
	}

	ctx.spawned = nil
	switch h.ExecState {
	case ExecInitialize:
		switch h.Handler.Initialize(ctx) {
		case ResultSuccess:
			h.ExecState = ExecExecute
		case ResultShutdown:
			h.ExecState = ExecDone
		}
	case ExecExecute:
		switch h.Handler.Execute(ctx) {
		case ResultSuccess:
			h.ExecState = ExecTerminate
		case ResultReset:
			h.ExecState = ExecInitialize
		case ResultShutdown:
			h.ExecState = ExecDone
		case ResultInProgress:
		}
	case ExecTerminate:
		switch h.Handler.Terminate(ctx) {
		case ResultSuccess:
			h.ExecState = ExecDone
		case ResultReset:
			h.ExecState = ExecInitialize
		case ResultInProgress:
		}
	}

	if h.ExecState == ExecDone {
		h.CurrentPriority = h.DefaultPriority
		s.pop()
	}

	for _, spawn := range ctx.spawned {
		child := s.push(spawn.EventName, spawn.Priority, spawn.Handler)
		h.Children = append(h.Children, child)
	}
	ctx.spawned = nil
}

func (s *Scheduler) binding(eventName string) *Binding {
	b, ok := lo.Find(s.bindings, func(b Binding) bool { return b.EventName == eventName })
	if !ok {
		return nil
	}
	return &b
}
