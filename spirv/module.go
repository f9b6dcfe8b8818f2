package spirv

import (
	"github.com/gogpu/shaderobj/stage"
)

// Subdivision is the tessellation primitive an entry point declares.
type Subdivision uint8

const (
	SubdivisionUnset Subdivision = iota
	SubdivisionTriangles
	SubdivisionQuads
	SubdivisionIsolines
)

func (s Subdivision) String() string {
	switch s {
	case SubdivisionTriangles:
		return "triangles"
	case SubdivisionQuads:
		return "quads"
	case SubdivisionIsolines:
		return "isolines"
	}
	return "unset"
}

// Orientation is the declared tessellation vertex order.
type Orientation uint8

const (
	OrientationUnset Orientation = iota
	OrientationCw
	OrientationCcw
)

func (o Orientation) String() string {
	switch o {
	case OrientationCw:
		return "cw"
	case OrientationCcw:
		return "ccw"
	}
	return "unset"
}

// Spacing is the declared tessellation segment spacing.
type Spacing uint8

const (
	SpacingUnset Spacing = iota
	SpacingEqual
	SpacingFractionalEven
	SpacingFractionalOdd
)

func (s Spacing) String() string {
	switch s {
	case SpacingEqual:
		return "equal"
	case SpacingFractionalEven:
		return "fractional_even"
	case SpacingFractionalOdd:
		return "fractional_odd"
	}
	return "unset"
}

// Modes is the execution-mode summary of one entry point. Zero values mean
// the mode was not declared.
type Modes struct {
	Subdivision    Subdivision
	Orientation    Orientation
	Spacing        Spacing
	PointMode      bool
	OutputVertices uint32
	LocalSize      [3]uint32
	// Raw lists every mode in declaration order, including ones the
	// summary fields do not interpret.
	Raw []ExecutionMode
}

// HasOutputVertices reports whether OutputVertices was declared.
func (m Modes) HasOutputVertices() bool {
	return m.has(ModeOutputVertices)
}

func (m Modes) has(mode ExecutionMode) bool {
	for _, r := range m.Raw {
		if r == mode {
			return true
		}
	}
	return false
}

func (m *Modes) apply(mode ExecutionMode, operands []uint32) {
	m.Raw = append(m.Raw, mode)
	switch mode {
	case ModeTriangles:
		m.Subdivision = SubdivisionTriangles
	case ModeQuads:
		m.Subdivision = SubdivisionQuads
	case ModeIsolines:
		m.Subdivision = SubdivisionIsolines
	case ModeVertexOrderCw:
		m.Orientation = OrientationCw
	case ModeVertexOrderCcw:
		m.Orientation = OrientationCcw
	case ModeSpacingEqual:
		m.Spacing = SpacingEqual
	case ModeSpacingFractionalEven:
		m.Spacing = SpacingFractionalEven
	case ModeSpacingFractionalOdd:
		m.Spacing = SpacingFractionalOdd
	case ModePointMode:
		m.PointMode = true
	case ModeOutputVertices:
		if len(operands) > 0 {
			m.OutputVertices = operands[0]
		}
	case ModeLocalSize:
		copy(m.LocalSize[:], operands)
	}
}

// EntryPoint is one OpEntryPoint with the execution modes that target it.
type EntryPoint struct {
	Model     ExecutionModel
	Function  uint32
	Name      string
	Interface []uint32
	Modes     Modes
}

// Stage returns the shader stage the entry point's execution model maps to.
func (e *EntryPoint) Stage() (stage.Stage, bool) {
	return ModelStage(e.Model)
}

// ModelStage maps an execution model to a shader stage.
func ModelStage(m ExecutionModel) (stage.Stage, bool) {
	switch m {
	case ModelVertex:
		return stage.Vertex, true
	case ModelTessellationControl:
		return stage.TessellationControl, true
	case ModelTessellationEvaluation:
		return stage.TessellationEvaluation, true
	case ModelGeometry:
		return stage.Geometry, true
	case ModelFragment:
		return stage.Fragment, true
	case ModelGLCompute:
		return stage.Compute, true
	case ModelTaskNV, ModelTaskEXT:
		return stage.Task, true
	case ModelMeshNV, ModelMeshEXT:
		return stage.Mesh, true
	case ModelRayGeneration:
		return stage.RayGen, true
	case ModelIntersection:
		return stage.Intersection, true
	case ModelAnyHit:
		return stage.AnyHit, true
	case ModelClosestHit:
		return stage.ClosestHit, true
	case ModelMiss:
		return stage.Miss, true
	case ModelCallable:
		return stage.Callable, true
	}
	return 0, false
}

// StageModel returns the execution model an entry point for st declares.
// Task and mesh map to the EXT models.
func StageModel(st stage.Stage) (ExecutionModel, bool) {
	switch st {
	case stage.Task:
		return ModelTaskEXT, true
	case stage.Mesh:
		return ModelMeshEXT, true
	}
	for m := range modelNames {
		if s, ok := ModelStage(m); ok && s == st && m != ModelTaskNV && m != ModelMeshNV {
			return m, true
		}
	}
	return 0, false
}

// Module is the decoded summary of a SPIR-V binary.
type Module struct {
	Header       Header
	Capabilities []Capability
	EntryPoints  []EntryPoint
}

// EntryPoint returns the entry point with the given name whose execution
// model maps to st.
func (m *Module) EntryPoint(name string, st stage.Stage) (*EntryPoint, bool) {
	for i := range m.EntryPoints {
		ep := &m.EntryPoints[i]
		if ep.Name != name {
			continue
		}
		if s, ok := ep.Stage(); ok && s == st {
			return ep, true
		}
	}
	return nil, false
}

// HasCapability reports whether the module declares c.
func (m *Module) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
