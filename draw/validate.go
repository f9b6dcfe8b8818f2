package draw

import (
	"cmp"
	"slices"

	"github.com/gogpu/shaderobj/binding"
	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/stage"
)

// Context is what a draw needs besides the binding state.
type Context struct {
	Command Command
	// DynamicRendering reports whether a dynamic rendering instance, rather
	// than a render pass, is active.
	DynamicRendering bool
	Caps             caps.Enabled
	CommandBuffer    uint64
}

// mandatory lists the graphics stages that may not be left unbound, with
// the feature that makes them mandatory.
var mandatory = []struct {
	stage   stage.Stage
	feature caps.Feature
	vuid    string
}{
	{stage.Vertex, caps.FeatureNone, "None-08684"},
	{stage.TessellationControl, caps.FeatureTessellationShader, "None-08685"},
	{stage.TessellationEvaluation, caps.FeatureTessellationShader, "None-08686"},
	{stage.Geometry, caps.FeatureGeometryShader, "None-08687"},
	{stage.Fragment, caps.FeatureNone, "None-08688"},
	{stage.Task, caps.FeatureTaskShader, "None-08689"},
	{stage.Mesh, caps.FeatureMeshShader, "None-08690"},
}

type validator struct {
	state *binding.State
	ctx   Context
	cb    diag.Object
	loc   diag.Location
	out   []diag.Violation
}

func (v *validator) add(suffix string, cat diag.Category, format string, args ...any) {
	v.out = append(v.out, diag.New(v.ctx.Command.vuid(suffix), cat, v.loc, format, args...).WithObjects(v.cb))
}

// Validate checks the binding state s before ctx.Command is recorded. It
// never mutates s.
func Validate(s *binding.State, ctx Context) []diag.Violation {
	v := &validator{
		state: s,
		ctx:   ctx,
		cb:    diag.Object{Kind: diag.ObjectCommandBuffer, Handle: ctx.CommandBuffer},
		loc:   diag.At(ctx.Command.String()),
	}
	if ctx.Command.IsDispatch() {
		v.validateDispatch()
		return v.out
	}
	if p := s.Pipeline(stage.BindPointGraphics); p.Bound {
		v.validatePipeline(p)
		return v.out
	}
	if !s.AnyBound(stage.BindPointGraphics) {
		v.add("None-08607", diag.CategoryState,
			"neither a graphics pipeline nor any graphics shader object is bound.")
		return v.out
	}
	v.validateMandatory()
	if !ctx.DynamicRendering {
		v.add("None-08876", diag.CategoryState,
			"shader objects are bound, but the command is not recorded inside dynamic rendering.")
	}
	v.validateVertexOrMesh()
	v.validateLinks()
	v.validateLayouts()
	v.validateDrawKind(s.BoundStages())
	return v.out
}

func (v *validator) validateDispatch() {
	if v.state.Pipeline(stage.BindPointCompute).Bound {
		return
	}
	if !v.state.Slot(stage.Compute).Bound() {
		v.add("None-08607", diag.CategoryState,
			"neither a compute pipeline nor a compute shader object is bound.")
	}
}

// validatePipeline checks that a bound graphics pipeline suits the draw
// kind. Shader-object rules do not apply to pipelines.
func (v *validator) validatePipeline(p binding.Pipeline) {
	v.validateDrawKind(p.Stages)
}

func (v *validator) validateDrawKind(stages stage.Set) {
	if v.ctx.Command.IsMesh() {
		if !stages.Has(stage.Mesh) {
			v.add("stage-06480", diag.CategoryState,
				"no mesh shader is bound for a mesh draw.")
		}
		return
	}
	if stages.Has(stage.Task) || stages.Has(stage.Mesh) {
		v.add("stage-06481", diag.CategoryState,
			"a task or mesh shader is bound, but the command is not a mesh draw.")
	}
}

func (v *validator) validateMandatory() {
	for _, m := range mandatory {
		if m.feature != caps.FeatureNone && !v.ctx.Caps.Has(m.feature) {
			continue
		}
		if v.state.Slot(m.stage).State == binding.SlotUnbound {
			v.add(m.vuid, diag.CategoryState,
				"nothing, not even the null handle, was bound to the %s stage.", m.stage)
		}
	}
}

func (v *validator) validateVertexOrMesh() {
	vertex := v.state.Slot(stage.Vertex)
	mesh := v.state.Slot(stage.Mesh)
	task := v.state.Slot(stage.Task)

	switch {
	case v.ctx.Caps.MeshPipelines() && vertex.Bound() && mesh.Bound():
		v.add("None-08885", diag.CategoryState,
			"both a vertex shader and a mesh shader are bound.")
	case v.ctx.Caps.MeshPipelines() && !vertex.Bound() && !mesh.Bound():
		v.add("None-08693", diag.CategoryState,
			"neither a vertex shader nor a mesh shader is bound.")
	}

	if !mesh.Bound() {
		return
	}
	noTask := mesh.Shader.Flags.Has(object.FlagNoTaskShader)
	switch {
	case !noTask && !task.Bound():
		v.add("None-08694", diag.CategoryState,
			"mesh shader 0x%x was created without no_task_shader, but no task shader is bound.",
			uint64(mesh.Shader.Handle))
	case noTask && task.Bound():
		v.add("None-08695", diag.CategoryCrossShader,
			"mesh shader 0x%x was created with no_task_shader, but task shader 0x%x is bound.",
			uint64(mesh.Shader.Handle), uint64(task.Shader.Handle))
	}
}

// validateLinks checks that every bound linked shader has its peers bound
// and that no unlinked stage sits between two linked stages.
func (v *validator) validateLinks() {
	bound := v.state.BoundStages()
	for _, st := range bound.Stages() {
		if st.BindPoint() != stage.BindPointGraphics {
			continue
		}
		sh := v.state.Slot(st).Shader
		if !sh.IsLinked() {
			continue
		}
		for _, p := range sh.Linked {
			if slot := v.state.Slot(p.Stage); !slot.Bound() || slot.Shader.Handle != p.Handle {
				v.add("None-08698", diag.CategoryCrossShader,
					"%s shader 0x%x was linked with %s shader 0x%x, which is not bound.",
					st, uint64(sh.Handle), p.Stage, uint64(p.Handle))
			}
		}

		next, ok := stage.NextPresent(st, bound)
		if !ok || isPeer(sh, v.state.Slot(next).Shader.Handle) {
			continue
		}
		if p, ok := peerAfter(sh, next); ok {
			v.add("None-08699", diag.CategoryCrossShader,
				"%s shader 0x%x is bound between linked %s shader 0x%x and its linked %s shader 0x%x.",
				next, uint64(v.state.Slot(next).Shader.Handle), st, uint64(sh.Handle), p.Stage, uint64(p.Handle))
		}
	}
}

func isPeer(sh binding.BoundShader, h object.Handle) bool {
	for _, p := range sh.Linked {
		if p.Handle == h {
			return true
		}
	}
	return false
}

// peerAfter returns a linked peer of sh that comes after st in st's chain.
func peerAfter(sh binding.BoundShader, st stage.Stage) (object.Peer, bool) {
	for _, p := range sh.Linked {
		if p.Stage.Chain() == st.Chain() && stage.Position(p.Stage) > stage.Position(st) {
			return p, true
		}
		// Fragment terminates both chains.
		if p.Stage == stage.Fragment && st != stage.Fragment {
			return p, true
		}
	}
	return object.Peer{}, false
}

// validateLayouts compares every bound graphics shader against the first
// one, reporting the first mismatch of each kind.
func (v *validator) validateLayouts() {
	var shaders []binding.BoundShader
	for _, st := range v.state.BoundStages().Stages() {
		if st.BindPoint() == stage.BindPointGraphics {
			shaders = append(shaders, v.state.Slot(st).Shader)
		}
	}
	if len(shaders) < 2 {
		return
	}
	first := shaders[0]
	firstRanges := sortedRanges(first.PushConstantRanges)
	firstLayouts := sortedLayouts(first.SetLayouts)

	pushReported, layoutReported := false, false
	for _, sh := range shaders[1:] {
		if !pushReported && !slices.Equal(firstRanges, sortedRanges(sh.PushConstantRanges)) {
			pushReported = true
			v.add("None-08878", diag.CategoryCrossShader,
				"%s shader 0x%x and %s shader 0x%x were created with different push constant ranges.",
				first.Stage, uint64(first.Handle), sh.Stage, uint64(sh.Handle))
		}
		if !layoutReported && !slices.Equal(firstLayouts, sortedLayouts(sh.SetLayouts)) {
			layoutReported = true
			v.add("None-08879", diag.CategoryCrossShader,
				"%s shader 0x%x and %s shader 0x%x were created with different descriptor set layouts.",
				first.Stage, uint64(first.Handle), sh.Stage, uint64(sh.Handle))
		}
	}
}

func sortedRanges(r []object.PushConstantRange) []object.PushConstantRange {
	out := slices.Clone(r)
	slices.SortFunc(out, func(a, b object.PushConstantRange) int {
		return cmp.Or(cmp.Compare(a.Offset, b.Offset), cmp.Compare(a.Size, b.Size), cmp.Compare(a.Stages, b.Stages))
	})
	return out
}

func sortedLayouts(l []object.LayoutRef) []object.LayoutRef {
	out := slices.Clone(l)
	slices.Sort(out)
	return out
}
