package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/shaderobj"
	"github.com/gogpu/shaderobj/binding"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
)

// invalidHandle is what the shader name "invalid" binds: a handle the
// device never issued.
const invalidHandle = object.Handle(0xdead_beef)

// Step is the outcome of one batch or command.
type Step struct {
	Name string
	Want []string
	Got  []diag.Violation
}

// GotIDs returns the VUIDs the step reported.
func (s Step) GotIDs() []string {
	return diag.IDs(s.Got)
}

// Passed reports whether the step reported exactly the expected VUIDs,
// ignoring order.
func (s Step) Passed() bool {
	want := slices.Clone(s.Want)
	got := s.GotIDs()
	slices.Sort(want)
	slices.Sort(got)
	return slices.Equal(want, got)
}

// Report is the outcome of one scenario run.
type Report struct {
	Path  string
	Steps []Step
}

// Passed reports whether every step passed.
func (r *Report) Passed() bool {
	return len(r.Failed()) == 0
}

// Failed returns the steps whose violations differ from the expectation.
func (r *Report) Failed() []Step {
	var out []Step
	for _, s := range r.Steps {
		if !s.Passed() {
			out = append(out, s)
		}
	}
	return out
}

// Violations returns every violation reported during the run.
func (r *Report) Violations() []diag.Violation {
	var out []diag.Violation
	for _, s := range r.Steps {
		out = append(out, s.Got...)
	}
	return out
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	deviceOpts []shaderobj.Option
}

// WithSink forwards every violation of the run to sink in addition to the
// report.
func WithSink(sink diag.Sink) Option {
	return func(c *runConfig) {
		c.deviceOpts = append(c.deviceOpts, shaderobj.WithSink(sink))
	}
}

// runner holds the state of one run.
type runner struct {
	s       *Scenario
	dev     *shaderobj.Device
	handles map[string]object.Handle
	// rejected names shaders whose batch failed validation.
	rejected map[string]bool
	report   *Report
}

// Run executes the scenario against a fresh device. Violations are results,
// not errors; the error reports a malformed scenario or cancellation.
func (s *Scenario) Run(ctx context.Context, opts ...Option) (*Report, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	enabled, err := s.enabled()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	r := &runner{
		s:        s,
		dev:      shaderobj.NewDevice(enabled, cfg.deviceOpts...),
		handles:  make(map[string]object.Handle),
		rejected: make(map[string]bool),
		report:   &Report{Path: s.Path},
	}
	logger := shaderobj.Logger().With("scenario", s.Path)
	logger.Info("scenario started", "batches", len(s.root.Batches), "command_buffers", len(s.root.CommandBuffers))

	for _, b := range s.root.Batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.runBatch(b); err != nil {
			return nil, fmt.Errorf("%s: shader_batch %q: %w", s.Path, b.Name, err)
		}
	}
	for _, cb := range s.root.CommandBuffers {
		if err := r.runCommandBuffer(ctx, cb); err != nil {
			return nil, fmt.Errorf("%s: command_buffer %q: %w", s.Path, cb.Name, err)
		}
	}

	logger.Info("scenario finished", "steps", len(r.report.Steps), "failed", len(r.report.Failed()))
	return r.report, nil
}

func (r *runner) runBatch(b *batchBlock) error {
	infos := make([]object.CreateInfo, len(b.Shaders))
	for i, sh := range b.Shaders {
		if _, dup := r.handles[sh.Name]; dup || r.rejected[sh.Name] {
			return fmt.Errorf("shader %q is defined twice", sh.Name)
		}
		info, err := r.s.createInfo(sh)
		if err != nil {
			return fmt.Errorf("shader %q: %w", sh.Name, err)
		}
		infos[i] = info
	}
	created, vs, err := r.dev.CreateShaders(infos)
	if err != nil {
		return err
	}
	for i, sh := range b.Shaders {
		if created == nil {
			r.rejected[sh.Name] = true
			continue
		}
		r.handles[sh.Name] = created[i]
	}
	r.report.Steps = append(r.report.Steps, Step{Name: "shader_batch." + b.Name, Want: b.Expect, Got: vs})
	return nil
}

func (r *runner) runCommandBuffer(ctx context.Context, b *commandBufferBlock) error {
	queue, err := parseQueue(b.Queue)
	if err != nil {
		return err
	}
	cb := r.dev.NewCommandBuffer(queue)
	var saved []*binding.Restorable
	for i, c := range b.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		vs, err := r.exec(cb, c, &saved)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, c.Type, err)
		}
		r.report.Steps = append(r.report.Steps, Step{
			Name: fmt.Sprintf("command_buffer.%s[%d].%s", b.Name, i, c.Type),
			Want: c.Expect,
			Got:  vs,
		})
	}
	for _, s := range saved {
		s.Discard()
	}
	return nil
}

//nolint:cyclop // one case per command type
func (r *runner) exec(cb *shaderobj.CommandBuffer, c *commandBlock, saved *[]*binding.Restorable) ([]diag.Violation, error) {
	switch c.Type {
	case "begin":
		cb.Begin()
	case "reset":
		cb.Reset()
	case "begin_rendering":
		cb.BeginRendering()
	case "end_rendering":
		cb.EndRendering()
	case "begin_render_pass":
		cb.BeginRenderPass()
	case "end_render_pass":
		cb.EndRenderPass()
	case "bind_shaders":
		stages, err := parseStages(c.Stages)
		if err != nil {
			return nil, err
		}
		var handles []object.Handle
		if c.Shaders != nil {
			if handles, err = r.lookup(c.Shaders); err != nil {
				return nil, err
			}
		}
		return cb.BindShaders(stages, handles)
	case "bind_pipeline":
		bp, err := parseBindPoint(c.BindPoint)
		if err != nil {
			return nil, err
		}
		stages, err := parseStageSet(c.PipelineStages)
		if err != nil {
			return nil, err
		}
		pipeline := uint64(1)
		if c.Pipeline != nil {
			n, err := unsigned("pipeline", *c.Pipeline)
			if err != nil {
				return nil, err
			}
			pipeline = uint64(n)
		}
		return nil, cb.BindPipeline(bp, pipeline, stages)
	case "draw":
		cmd, err := parseDraw(c.Draw)
		if err != nil {
			return nil, err
		}
		return cb.Draw(cmd)
	case "destroy":
		if c.Shader == nil {
			return nil, errors.New("destroy needs a shader")
		}
		hs, err := r.lookup([]string{*c.Shader})
		if err != nil {
			return nil, err
		}
		return r.dev.DestroyShader(hs[0])
	case "save_state":
		bp, err := parseBindPoint(c.BindPoint)
		if err != nil {
			return nil, err
		}
		r, err := cb.SaveState(bp)
		if err != nil {
			return nil, err
		}
		*saved = append(*saved, r)
	case "restore_state":
		if len(*saved) == 0 {
			return nil, errors.New("restore_state without save_state")
		}
		last := (*saved)[len(*saved)-1]
		*saved = (*saved)[:len(*saved)-1]
		cb.RestoreState(last)
	default:
		return nil, fmt.Errorf("unknown command %q", c.Type)
	}
	return nil, nil
}

// lookup maps shader names to handles. "null" is the null handle and
// "invalid" a handle that was never issued.
func (r *runner) lookup(names []string) ([]object.Handle, error) {
	out := make([]object.Handle, len(names))
	for i, name := range names {
		switch name {
		case "null":
			out[i] = object.Null
			continue
		case "invalid":
			out[i] = invalidHandle
			continue
		}
		h, ok := r.handles[name]
		if !ok {
			if r.rejected[name] {
				return nil, fmt.Errorf("shader %q was not created because its batch failed validation", name)
			}
			return nil, fmt.Errorf("unknown shader %q", name)
		}
		out[i] = h
	}
	return out, nil
}
