// Package binding tracks which shader objects and pipelines a command buffer
// has bound, and validates bind calls before they are applied.
//
// A State is owned by a single command buffer and is not safe for
// concurrent use. Bound shaders are snapshotted into the slot so draw-time
// validation never has to resolve a handle that may since have been
// destroyed.
package binding

import (
	"fmt"
	"slices"

	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/stage"
)

// SlotState is the binding state of one stage slot.
type SlotState uint8

const (
	// SlotUnbound: nothing was ever bound at this stage since the last reset.
	SlotUnbound SlotState = iota
	// SlotNull: the stage was explicitly bound to the null handle.
	SlotNull
	// SlotBound: a shader object is bound.
	SlotBound
)

func (s SlotState) String() string {
	switch s {
	case SlotNull:
		return "null"
	case SlotBound:
		return "bound"
	}
	return "unbound"
}

// BoundShader is the part of a shader object that draw-time validation
// reads, copied at bind time.
type BoundShader struct {
	Handle             object.Handle
	Stage              stage.Stage
	Flags              object.CreateFlags
	NextStage          stage.Set
	Linked             []object.Peer
	PushConstantRanges []object.PushConstantRange
	SetLayouts         []object.LayoutRef
}

// Snapshot copies the fields of s that a binding slot keeps.
func Snapshot(s *object.Shader) BoundShader {
	return BoundShader{
		Handle:             s.Handle,
		Stage:              s.Stage,
		Flags:              s.Flags,
		NextStage:          s.NextStage,
		Linked:             slices.Clone(s.Linked),
		PushConstantRanges: slices.Clone(s.PushConstantRanges),
		SetLayouts:         slices.Clone(s.SetLayouts),
	}
}

// IsLinked reports whether the shader was created in a linked batch.
func (b *BoundShader) IsLinked() bool {
	return b.Flags.Has(object.FlagLinkStage)
}

// Slot is one stage slot. Shader is meaningful only when State is SlotBound.
type Slot struct {
	State  SlotState
	Shader BoundShader
}

// Bound reports whether a shader object is bound.
func (s Slot) Bound() bool {
	return s.State == SlotBound
}

// Pipeline records a pipeline bound at one bind point.
type Pipeline struct {
	Bound  bool
	Handle uint64
	// Stages are the stages the pipeline was created with.
	Stages stage.Set
}

// Tracker keeps bound shaders alive. object.Table implements it.
type Tracker interface {
	Acquire(h object.Handle) error
	Release(h object.Handle)
}

type nopTracker struct{}

func (nopTracker) Acquire(object.Handle) error { return nil }
func (nopTracker) Release(object.Handle)       {}

// State is the shader binding state of one command buffer.
type State struct {
	tracker   Tracker
	slots     [stage.Count]Slot
	pipelines [3]Pipeline
}

// NewState returns a state with every slot unbound. tracker may be nil.
func NewState(tracker Tracker) *State {
	if tracker == nil {
		tracker = nopTracker{}
	}
	return &State{tracker: tracker}
}

// Reset unbinds everything, as on command buffer begin or reset.
func (s *State) Reset() {
	for i := range s.slots {
		s.replace(stage.Stage(i), Slot{})
	}
	s.pipelines = [3]Pipeline{}
}

// Slot returns the slot for st.
func (s *State) Slot(st stage.Stage) Slot {
	if !st.Valid() {
		return Slot{}
	}
	return s.slots[st]
}

// Pipeline returns the pipeline record of bp.
func (s *State) Pipeline(bp stage.BindPoint) Pipeline {
	if int(bp) >= len(s.pipelines) {
		return Pipeline{}
	}
	return s.pipelines[bp]
}

// BoundStages returns the stages holding a shader object.
func (s *State) BoundStages() stage.Set {
	var set stage.Set
	for i := range s.slots {
		if s.slots[i].Bound() {
			set = set.With(stage.Stage(i))
		}
	}
	return set
}

// AnyBound reports whether any slot of bp holds a shader object.
func (s *State) AnyBound(bp stage.BindPoint) bool {
	for i := range s.slots {
		if s.slots[i].Bound() && stage.Stage(i).BindPoint() == bp {
			return true
		}
	}
	return false
}

// Apply binds shaders to stages. shaders is index-aligned with stages and
// nil entries bind the null handle; a nil slice binds null everywhere.
// All named slots change together. Any stage of a bind point clears the
// pipeline bound there.
//
// Every new shader is marked in use before any slot changes. When the
// tracker refuses one, for example because the shader was destroyed after
// validation resolved it, the references already taken are dropped and the
// state is left untouched.
func (s *State) Apply(stages []stage.Stage, shaders []*object.Shader) error {
	next := make([]Slot, len(stages))
	for i, st := range stages {
		next[i] = Slot{State: SlotNull}
		if st.Valid() && i < len(shaders) && shaders[i] != nil {
			next[i] = Slot{State: SlotBound, Shader: Snapshot(shaders[i])}
		}
	}
	for i, slot := range next {
		if !slot.Bound() {
			continue
		}
		if err := s.tracker.Acquire(slot.Shader.Handle); err != nil {
			s.releaseAll(next[:i])
			return fmt.Errorf("bind %s shader 0x%x: %w", stages[i], uint64(slot.Shader.Handle), err)
		}
	}
	for i, st := range stages {
		if !st.Valid() {
			continue
		}
		s.replace(st, next[i])
		if bp := st.BindPoint(); bp != stage.BindPointNone {
			s.pipelines[bp] = Pipeline{}
		}
	}
	return nil
}

// BindPipeline records a pipeline at bp and unbinds every shader slot of
// that bind point.
func (s *State) BindPipeline(bp stage.BindPoint, handle uint64, stages stage.Set) {
	if bp == stage.BindPointNone || int(bp) >= len(s.pipelines) {
		return
	}
	for i := range s.slots {
		if stage.Stage(i).BindPoint() == bp {
			s.replace(stage.Stage(i), Slot{})
		}
	}
	s.pipelines[bp] = Pipeline{Bound: true, Handle: handle, Stages: stages}
}

// replace stores next in the slot of st and drops the reference held by the
// previous occupant. The caller owns a reference for next already.
func (s *State) replace(st stage.Stage, next Slot) {
	prev := s.slots[st]
	if prev.Bound() {
		s.tracker.Release(prev.Shader.Handle)
	}
	s.slots[st] = next
}

func (s *State) releaseAll(slots []Slot) {
	for _, slot := range slots {
		if slot.Bound() {
			s.tracker.Release(slot.Shader.Handle)
		}
	}
}
