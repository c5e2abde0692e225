// Package store is the plan arena: plans, the next-waypoint-per-plan index,
// and the active-plan pointer, all addressed by small string keys rather
// than a cyclic pointer graph.
package store

import (
	"strconv"

	"go.icarous.dev/core/plan"
)

// Book owns every plan known to the core plus the per-plan next-waypoint
// index: cognition state exclusively owns plans through this book, never
// through pointers held elsewhere.
type Book struct {
	plans        map[string]*plan.Plan
	nextWP       map[string]int
	activePlanID string
	detourSeq    int
}

// NewBook returns an empty plan book.
func NewBook() *Book {
	return &Book{plans: map[string]*plan.Plan{}, nextWP: map[string]int{}}
}

// Put stores (or replaces) p, keyed by p.ID.
func (b *Book) Put(p *plan.Plan) {
	b.plans[p.ID] = p
	if _, ok := b.nextWP[p.ID]; !ok {
		b.nextWP[p.ID] = 0
	}
}

// Get returns the plan stored under id.
func (b *Book) Get(id string) (*plan.Plan, bool) {
	p, ok := b.plans[id]
	return p, ok
}

// Delete removes a plan and its bookkeeping from the book.
func (b *Book) Delete(id string) {
	delete(b.plans, id)
	delete(b.nextWP, id)
}

// SetActive marks id as the active plan. It does not require id to already
// be stored, matching a handler that activates a plan in the same step it
// installs it.
func (b *Book) SetActive(id string) { b.activePlanID = id }

// ActiveID returns the currently active plan id.
func (b *Book) ActiveID() string { return b.activePlanID }

// Active returns the currently active plan, if stored.
func (b *Book) Active() (*plan.Plan, bool) {
	return b.Get(b.activePlanID)
}

// NextWP returns the next-waypoint index bookkept for id.
func (b *Book) NextWP(id string) int { return b.nextWP[id] }

// SetNextWP overwrites the next-waypoint index for id.
func (b *Book) SetNextWP(id string, idx int) { b.nextWP[id] = idx }

// AdvanceNextWP increments the next-waypoint index for id by one.
func (b *Book) AdvanceNextWP(id string) { b.nextWP[id]++ }

// ReachedWaypoint is the host's acknowledgement of waypoint arrival. It
// advances the bookkept index to at least wpSeq+1's position in the plan,
// so a late or duplicate ack never regresses progress already made by
// guidance.
func (b *Book) ReachedWaypoint(planID string, wpSeq int) {
	p, ok := b.Get(planID)
	if !ok {
		return
	}
	for i, wp := range p.Waypoints {
		if wp.Seq == wpSeq {
			if i+1 > b.nextWP[planID] {
				b.nextWP[planID] = i + 1
			}
			return
		}
	}
}

// NextDetourID allocates the next "Plan<N>" id, N a monotonic counter held
// in the book so concurrently requested detours never collide.
func (b *Book) NextDetourID() string {
	b.detourSeq++
	return "Plan" + strconv.Itoa(b.detourSeq)
}

// BuildCombined rebuilds "Plan+" as a concatenation of the nominal plan with
// the most recently allocated detour plan. It is only rebuilt when a caller
// explicitly asks for it, never implicitly on every tick.
func (b *Book) BuildCombined(nominalID string) (*plan.Plan, bool) {
	nominal, ok := b.Get(nominalID)
	if !ok {
		return nil, false
	}
	detourID := "Plan" + strconv.Itoa(b.detourSeq)
	detour, ok := b.Get(detourID)
	if !ok {
		combined := nominal.Clone(plan.PlanCombined)
		b.Put(combined)
		return combined, true
	}
	combined := nominal.Clone(plan.PlanCombined)
	combined.Waypoints = append(combined.Waypoints, detour.Waypoints...)
	b.Put(combined)
	return combined, true
}
