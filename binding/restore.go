package binding

import (
	"fmt"

	"github.com/gogpu/shaderobj/stage"
)

// Restorable holds the pipeline and shader slots of one bind point so they
// can be put back after a command buffer's state was temporarily replaced.
// It holds its own in-use references until Restore or Discard.
type Restorable struct {
	bindPoint stage.BindPoint
	pipeline  Pipeline
	slots     []savedSlot
	tracker   Tracker
	done      bool
}

type savedSlot struct {
	stage stage.Stage
	slot  Slot
}

// Save captures the bind point's pipeline and shader slots. The returned
// Restorable holds its own reference to every saved shader; when one cannot
// be taken, none are kept and the error is returned.
func (s *State) Save(bp stage.BindPoint) (*Restorable, error) {
	r := &Restorable{bindPoint: bp, pipeline: s.Pipeline(bp), tracker: s.tracker}
	for i := range s.slots {
		st := stage.Stage(i)
		if st.BindPoint() != bp {
			continue
		}
		slot := s.slots[i]
		if slot.Bound() {
			if err := r.tracker.Acquire(slot.Shader.Handle); err != nil {
				r.Discard()
				return nil, fmt.Errorf("save %s shader 0x%x: %w", st, uint64(slot.Shader.Handle), err)
			}
		}
		r.slots = append(r.slots, savedSlot{stage: st, slot: slot})
	}
	return r, nil
}

// BindPoint returns the bind point the state was saved from.
func (r *Restorable) BindPoint() stage.BindPoint {
	return r.bindPoint
}

// Restore writes the saved slots and pipeline back into s verbatim, handing
// the references r holds over to the slots. A Restorable can be restored
// once; later calls do nothing.
func (r *Restorable) Restore(s *State) {
	if r.done {
		return
	}
	r.done = true
	for _, saved := range r.slots {
		s.replace(saved.stage, saved.slot)
	}
	if int(r.bindPoint) < len(s.pipelines) {
		s.pipelines[r.bindPoint] = r.pipeline
	}
}

// Discard drops the references held by r without restoring.
func (r *Restorable) Discard() {
	if r.done {
		return
	}
	r.done = true
	for _, saved := range r.slots {
		if saved.slot.Bound() {
			r.tracker.Release(saved.slot.Shader.Handle)
		}
	}
}
