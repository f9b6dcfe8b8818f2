// Package spvgen builds small SPIR-V modules for tests and scenarios.
// Every entry point is an empty void function; only the entry point
// declarations and their execution modes carry information.
package spvgen

import (
	nagaspirv "github.com/gogpu/naga/spirv"

	"github.com/gogpu/shaderobj/spirv"
)

// Mode is one execution mode with its literal operands.
type Mode struct {
	Mode   spirv.ExecutionMode
	Params []uint32
}

// M returns a Mode.
func M(mode spirv.ExecutionMode, params ...uint32) Mode {
	return Mode{Mode: mode, Params: params}
}

// Entry describes one entry point.
type Entry struct {
	Name  string
	Model spirv.ExecutionModel
	Modes []Mode
}

// Build returns a little-endian SPIR-V 1.3 binary with the given entry points.
func Build(entries ...Entry) []byte {
	b := nagaspirv.NewModuleBuilder(nagaspirv.Version1_3)
	b.AddCapability(nagaspirv.CapabilityShader)
	for _, c := range capabilitiesFor(entries) {
		b.AddCapability(nagaspirv.Capability(c))
	}
	if needsMeshExtension(entries) {
		b.AddExtension("SPV_EXT_mesh_shader")
	}
	b.SetMemoryModel(nagaspirv.AddressingModelLogical, nagaspirv.MemoryModelGLSL450)

	voidType := b.AddTypeVoid()
	funcType := b.AddTypeFunction(voidType)
	for _, e := range entries {
		fn := b.AddFunction(funcType, voidType, nagaspirv.FunctionControlNone)
		b.AddLabel()
		b.AddReturn()
		b.AddFunctionEnd()

		b.AddEntryPoint(nagaspirv.ExecutionModel(e.Model), fn, e.Name, nil)
		for _, m := range e.Modes {
			b.AddExecutionMode(fn, nagaspirv.ExecutionMode(m.Mode), m.Params...)
		}
	}
	return b.Build()
}

// Single returns a module with one entry point called "main".
func Single(model spirv.ExecutionModel, modes ...Mode) []byte {
	return Build(Entry{Name: "main", Model: model, Modes: modes})
}

// TessControl returns a tessellation control module declaring triangles,
// counter-clockwise order, equal spacing and the given patch size.
func TessControl(outputVertices uint32) []byte {
	return Single(spirv.ModelTessellationControl,
		M(spirv.ModeTriangles),
		M(spirv.ModeVertexOrderCcw),
		M(spirv.ModeSpacingEqual),
		M(spirv.ModeOutputVertices, outputVertices),
	)
}

// TessEval returns a tessellation evaluation module declaring the given
// modes only.
func TessEval(modes ...Mode) []byte {
	return Single(spirv.ModelTessellationEvaluation, modes...)
}

// TessEvalMatching returns a tessellation evaluation module that agrees with
// TessControl.
func TessEvalMatching() []byte {
	return TessEval(
		M(spirv.ModeTriangles),
		M(spirv.ModeVertexOrderCcw),
		M(spirv.ModeSpacingEqual),
	)
}

func capabilitiesFor(entries []Entry) []spirv.Capability {
	var tess, geom, mesh bool
	for _, e := range entries {
		switch e.Model {
		case spirv.ModelTessellationControl, spirv.ModelTessellationEvaluation:
			tess = true
		case spirv.ModelGeometry:
			geom = true
		case spirv.ModelTaskEXT, spirv.ModelMeshEXT:
			mesh = true
		}
	}
	var out []spirv.Capability
	if geom {
		out = append(out, spirv.CapabilityGeometry)
	}
	if tess {
		out = append(out, spirv.CapabilityTessellation)
	}
	if mesh {
		out = append(out, spirv.CapabilityMeshShadingEXT)
	}
	return out
}

func needsMeshExtension(entries []Entry) bool {
	for _, e := range entries {
		if e.Model == spirv.ModelTaskEXT || e.Model == spirv.ModelMeshEXT {
			return true
		}
	}
	return false
}
