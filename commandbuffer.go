package shaderobj

import (
	"errors"
	"fmt"

	"github.com/gogpu/shaderobj/binding"
	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/draw"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/stage"
)

// ErrNotRecording is returned for commands recorded outside Begin.
var ErrNotRecording = errors.New("shaderobj: command buffer is not recording")

type renderMode uint8

const (
	renderNone renderMode = iota
	renderDynamic
	renderPass
)

// CommandBuffer records bind and draw commands against a Device. It is
// owned by one goroutine.
type CommandBuffer struct {
	dev       *Device
	handle    uint64
	queue     caps.QueueFlags
	state     *binding.State
	recording bool
	mode      renderMode
}

// NewCommandBuffer returns a command buffer allocated from a pool whose
// queue family supports queue.
func (d *Device) NewCommandBuffer(queue caps.QueueFlags) *CommandBuffer {
	return &CommandBuffer{
		dev:    d,
		handle: d.nextCB.Add(1),
		queue:  queue,
		state:  binding.NewState(d.table),
	}
}

// Handle returns the command buffer's identifier used in violations.
func (cb *CommandBuffer) Handle() uint64 {
	return cb.handle
}

// State returns the binding state. Callers must not mutate it.
func (cb *CommandBuffer) State() *binding.State {
	return cb.state
}

// Begin starts recording and unbinds everything.
func (cb *CommandBuffer) Begin() {
	cb.state.Reset()
	cb.recording = true
	cb.mode = renderNone
}

// Reset returns the command buffer to the initial state and releases every
// bound shader.
func (cb *CommandBuffer) Reset() {
	cb.state.Reset()
	cb.recording = false
	cb.mode = renderNone
}

// BeginRendering starts a dynamic rendering instance.
func (cb *CommandBuffer) BeginRendering() { cb.mode = renderDynamic }

// EndRendering ends the dynamic rendering instance.
func (cb *CommandBuffer) EndRendering() { cb.mode = renderNone }

// BeginRenderPass starts a render pass object instance.
func (cb *CommandBuffer) BeginRenderPass() { cb.mode = renderPass }

// EndRenderPass ends the render pass.
func (cb *CommandBuffer) EndRenderPass() { cb.mode = renderNone }

// DynamicRendering reports whether dynamic rendering is active.
func (cb *CommandBuffer) DynamicRendering() bool {
	return cb.mode == renderDynamic
}

// BindShaders binds shaders to stages. A nil shaders slice binds the null
// handle to every stage. The binding state changes only when the call
// reports no violations.
func (cb *CommandBuffer) BindShaders(stages []stage.Stage, shaders []object.Handle) ([]diag.Violation, error) {
	if !cb.recording {
		return nil, ErrNotRecording
	}
	vs, resolved, err := binding.ValidateBind(binding.BindRequest{
		Stages:        stages,
		Shaders:       shaders,
		Queue:         cb.queue,
		CommandBuffer: cb.handle,
	}, cb.dev.enabled, cb.dev.table)
	if err != nil {
		return nil, fmt.Errorf("bind shaders: %w", err)
	}
	Logger().Debug("bind shaders", "command_buffer", cb.handle, "stages", len(stages), "violations", len(vs))
	if !cb.dev.report(vs) {
		return vs, nil
	}
	if err := cb.state.Apply(stages, resolved); err != nil {
		return nil, fmt.Errorf("bind shaders: %w", err)
	}
	return nil, nil
}

// BindPipeline records a pipeline created with stages at bp. It unbinds
// the shader objects of that bind point.
func (cb *CommandBuffer) BindPipeline(bp stage.BindPoint, handle uint64, stages stage.Set) error {
	if !cb.recording {
		return ErrNotRecording
	}
	cb.state.BindPipeline(bp, handle, stages)
	return nil
}

// Draw validates and records a draw or dispatch command.
func (cb *CommandBuffer) Draw(cmd draw.Command) ([]diag.Violation, error) {
	if !cb.recording {
		return nil, ErrNotRecording
	}
	vs := draw.Validate(cb.state, draw.Context{
		Command:          cmd,
		DynamicRendering: cb.DynamicRendering(),
		Caps:             cb.dev.enabled,
		CommandBuffer:    cb.handle,
	})
	Logger().Debug("draw", "command_buffer", cb.handle, "command", cmd.String(), "violations", len(vs))
	cb.dev.report(vs)
	return vs, nil
}

// SaveState captures the bindings of bp so they can be put back with
// RestoreState.
func (cb *CommandBuffer) SaveState(bp stage.BindPoint) (*binding.Restorable, error) {
	r, err := cb.state.Save(bp)
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return r, nil
}

// RestoreState puts back bindings captured by SaveState.
func (cb *CommandBuffer) RestoreState(r *binding.Restorable) {
	r.Restore(cb.state)
}
