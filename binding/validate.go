package binding

import (
	"fmt"

	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/stage"
)

// Function is the API entry point bind violations are reported against.
const Function = "vkCmdBindShadersEXT"

// Resolver looks up created shaders. object.Table implements it.
type Resolver interface {
	Resolve(h object.Handle) (*object.Shader, bool)
}

// BindRequest is one bind call.
type BindRequest struct {
	Stages []stage.Stage
	// Shaders is index-aligned with Stages. A nil slice binds the null
	// handle to every named stage.
	Shaders []object.Handle
	// Queue is the capability of the queue family the command buffer's
	// pool was created for.
	Queue         caps.QueueFlags
	CommandBuffer uint64
}

// ValidateBind checks a bind call against enabled capabilities and the
// shaders it names. It returns the violations and the resolved shaders,
// index-aligned with req.Stages (nil for null or unknown handles), ready to
// pass to State.Apply. The error is reserved for malformed requests.
//
//nolint:gocognit,gocyclo,cyclop,funlen // one branch per bind rule
func ValidateBind(req BindRequest, enabled caps.Enabled, resolver Resolver) ([]diag.Violation, []*object.Shader, error) {
	if req.Shaders != nil && len(req.Shaders) != len(req.Stages) {
		return nil, nil, fmt.Errorf("binding: %d stages but %d shaders", len(req.Stages), len(req.Shaders))
	}

	var out []diag.Violation
	add := func(v diag.Violation) { out = append(out, v) }
	cb := diag.Object{Kind: diag.ObjectCommandBuffer, Handle: req.CommandBuffer}
	fn := diag.At(Function)

	if !enabled.ShaderObject {
		add(diag.New("VUID-vkCmdBindShadersEXT-None-08462", diag.CategoryCapability, fn,
			"the shaderObject feature is not enabled.").WithObjects(cb))
	}

	shaders := make([]*object.Shader, len(req.Stages))
	vertex, task, mesh := -1, -1, -1

	for i, st := range req.Stages {
		h := object.Null
		if req.Shaders != nil {
			h = req.Shaders[i]
		}
		loc := fn.Index("pStages", i)

		for j := i + 1; j < len(req.Stages); j++ {
			if req.Stages[j] == st {
				add(diag.New("VUID-vkCmdBindShadersEXT-pStages-08463", diag.CategoryStructural, fn,
					"pStages[%d] and pStages[%d] are both %s.", i, j, st).WithIndices(i, j))
			}
		}

		nonNull := h != object.Null
		switch {
		case st == stage.Vertex && nonNull:
			vertex = i
		case st == stage.Task && nonNull:
			task = i
		case st == stage.Mesh && nonNull:
			mesh = i
		case (st == stage.TessellationControl || st == stage.TessellationEvaluation) && nonNull && !enabled.TessellationShader:
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08474", diag.CategoryCapability, loc,
				"is %s and pShaders[%d] is not null, but the tessellationShader feature is not enabled.", st, i).WithIndices(i))
		case st == stage.Geometry && nonNull && !enabled.GeometryShader:
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08475", diag.CategoryCapability, loc,
				"is %s and pShaders[%d] is not null, but the geometryShader feature is not enabled.", st, i).WithIndices(i))
		}

		if st.IsShader() && !req.Queue.Has(st.Queue()) {
			id := "VUID-vkCmdBindShadersEXT-pShaders-08477"
			switch {
			case st == stage.Compute:
				id = "VUID-vkCmdBindShadersEXT-pShaders-08476"
			case st.Chain() == stage.ChainMesh:
				id = "VUID-vkCmdBindShadersEXT-pShaders-08478"
			}
			add(diag.New(id, diag.CategoryQueueCapability, loc,
				"is %s, but the command pool the command buffer was allocated from supports %s operations only.",
				st, req.Queue).WithIndices(i).WithObjects(cb))
		}

		if st == stage.Task && nonNull && !enabled.TaskShader {
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08490", diag.CategoryCapability, loc,
				"is %s and pShaders[%d] is not null, but the taskShader feature is not enabled.", st, i).WithIndices(i))
		} else if st == stage.Mesh && nonNull && !enabled.MeshShader {
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08491", diag.CategoryCapability, loc,
				"is %s and pShaders[%d] is not null, but the meshShader feature is not enabled.", st, i).WithIndices(i))
		}

		switch st.Kind() {
		case stage.KindAggregate:
			add(diag.New("VUID-vkCmdBindShadersEXT-pStages-08464", diag.CategoryStructural, loc, "is %s.", st).WithIndices(i))
		case stage.KindRayTracing:
			add(diag.New("VUID-vkCmdBindShadersEXT-pStages-08465", diag.CategoryStructural, loc, "is %s.", st).WithIndices(i))
		case stage.KindVendor:
			id := "VUID-vkCmdBindShadersEXT-pStages-08468"
			if st == stage.SubpassShading {
				id = "VUID-vkCmdBindShadersEXT-pStages-08467"
			}
			add(diag.New(id, diag.CategoryStructural, loc, "is %s.", st).WithIndices(i))
		}

		if !nonNull {
			continue
		}
		sh, ok := resolver.Resolve(h)
		if !ok {
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-parameter", diag.CategoryStructural, fn.Index("pShaders", i),
				"0x%x is not a valid shader handle.", uint64(h)).WithIndices(i).
				WithObjects(diag.Object{Kind: diag.ObjectShader, Handle: uint64(h)}))
			continue
		}
		shaders[i] = sh
		if sh.Stage != st {
			add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08469", diag.CategoryStructural, loc,
				"is %s, but pShaders[%d] was created with shader stage %s.", st, i, sh.Stage).WithIndices(i).
				WithObjects(diag.Object{Kind: diag.ObjectShader, Handle: uint64(h)}))
		}
	}

	if vertex >= 0 && task >= 0 {
		add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08470", diag.CategoryStructural, fn,
			"pStages[%d] is %s and pStages[%d] is %s, but neither of pShaders[%d] and pShaders[%d] is null.",
			vertex, stage.Vertex, task, stage.Task, vertex, task).WithIndices(vertex, task))
	}
	if vertex >= 0 && mesh >= 0 {
		add(diag.New("VUID-vkCmdBindShadersEXT-pShaders-08471", diag.CategoryStructural, fn,
			"pStages[%d] is %s and pStages[%d] is %s, but neither of pShaders[%d] and pShaders[%d] is null.",
			vertex, stage.Vertex, mesh, stage.Mesh, vertex, mesh).WithIndices(vertex, mesh))
	}

	return out, shaders, nil
}
