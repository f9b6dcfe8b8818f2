// Package spirv reads the parts of a SPIR-V binary that shader-object
// validation needs: the header, declared capabilities, entry points and the
// execution modes attached to them.
//
// It is not a validator. Instructions other than OpCapability, OpEntryPoint,
// OpExecutionMode and OpExecutionModeId are skipped by word count.
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv

import (
	"strconv"
	"strings"
)

// MagicNumber is the first word of every SPIR-V module.
const MagicNumber = 0x07230203

// headerWords is the number of words before the first instruction.
const headerWords = 5

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes the reader interprets.
const (
	OpNop             OpCode = 0
	OpName            OpCode = 5
	OpMemoryModel     OpCode = 14
	OpEntryPoint      OpCode = 15
	OpExecutionMode   OpCode = 16
	OpCapability      OpCode = 17
	OpFunction        OpCode = 54
	OpExecutionModeID OpCode = 331
)

// ExecutionModel is the stage an entry point is written for.
type ExecutionModel uint32

const (
	ModelVertex                 ExecutionModel = 0
	ModelTessellationControl    ExecutionModel = 1
	ModelTessellationEvaluation ExecutionModel = 2
	ModelGeometry               ExecutionModel = 3
	ModelFragment               ExecutionModel = 4
	ModelGLCompute              ExecutionModel = 5
	ModelKernel                 ExecutionModel = 6
	ModelTaskNV                 ExecutionModel = 5267
	ModelMeshNV                 ExecutionModel = 5268
	ModelRayGeneration          ExecutionModel = 5313
	ModelIntersection           ExecutionModel = 5314
	ModelAnyHit                 ExecutionModel = 5315
	ModelClosestHit             ExecutionModel = 5316
	ModelMiss                   ExecutionModel = 5317
	ModelCallable               ExecutionModel = 5318
	ModelTaskEXT                ExecutionModel = 5364
	ModelMeshEXT                ExecutionModel = 5365
)

var modelNames = map[ExecutionModel]string{
	ModelVertex:                 "Vertex",
	ModelTessellationControl:    "TessellationControl",
	ModelTessellationEvaluation: "TessellationEvaluation",
	ModelGeometry:               "Geometry",
	ModelFragment:               "Fragment",
	ModelGLCompute:              "GLCompute",
	ModelKernel:                 "Kernel",
	ModelTaskNV:                 "TaskNV",
	ModelMeshNV:                 "MeshNV",
	ModelRayGeneration:          "RayGenerationKHR",
	ModelIntersection:           "IntersectionKHR",
	ModelAnyHit:                 "AnyHitKHR",
	ModelClosestHit:             "ClosestHitKHR",
	ModelMiss:                   "MissKHR",
	ModelCallable:               "CallableKHR",
	ModelTaskEXT:                "TaskEXT",
	ModelMeshEXT:                "MeshEXT",
}

func (m ExecutionModel) String() string {
	if s, ok := modelNames[m]; ok {
		return s
	}
	return strconv.FormatUint(uint64(m), 10)
}

// ExecutionMode is an OpExecutionMode operand.
type ExecutionMode uint32

const (
	ModeInvocations           ExecutionMode = 0
	ModeSpacingEqual          ExecutionMode = 1
	ModeSpacingFractionalEven ExecutionMode = 2
	ModeSpacingFractionalOdd  ExecutionMode = 3
	ModeVertexOrderCw         ExecutionMode = 4
	ModeVertexOrderCcw        ExecutionMode = 5
	ModeOriginUpperLeft       ExecutionMode = 7
	ModePointMode             ExecutionMode = 10
	ModeLocalSize             ExecutionMode = 17
	ModeTriangles             ExecutionMode = 22
	ModeQuads                 ExecutionMode = 24
	ModeIsolines              ExecutionMode = 25
	ModeOutputVertices        ExecutionMode = 26
	ModeLocalSizeID           ExecutionMode = 38
)

var modeNames = map[ExecutionMode]string{
	ModeInvocations:           "Invocations",
	ModeSpacingEqual:          "SpacingEqual",
	ModeSpacingFractionalEven: "SpacingFractionalEven",
	ModeSpacingFractionalOdd:  "SpacingFractionalOdd",
	ModeVertexOrderCw:         "VertexOrderCw",
	ModeVertexOrderCcw:        "VertexOrderCcw",
	ModeOriginUpperLeft:       "OriginUpperLeft",
	ModePointMode:             "PointMode",
	ModeLocalSize:             "LocalSize",
	ModeTriangles:             "Triangles",
	ModeQuads:                 "Quads",
	ModeIsolines:              "Isolines",
	ModeOutputVertices:        "OutputVertices",
	ModeLocalSizeID:           "LocalSizeId",
}

func (m ExecutionMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return strconv.FormatUint(uint64(m), 10)
}

// ParseExecutionMode returns the mode with the given name. Matching ignores
// case and underscores, so "vertex_order_ccw" finds VertexOrderCcw.
func ParseExecutionMode(name string) (ExecutionMode, bool) {
	key := strings.ToLower(strings.ReplaceAll(name, "_", ""))
	for m, s := range modeNames {
		if strings.ToLower(s) == key {
			return m, true
		}
	}
	return 0, false
}

// Capability represents a SPIR-V capability.
type Capability uint32

// Capabilities that identify the stage family of a module.
const (
	CapabilityMatrix         Capability = 0
	CapabilityShader         Capability = 1
	CapabilityGeometry       Capability = 2
	CapabilityTessellation   Capability = 3
	CapabilityMeshShadingNV  Capability = 5266
	CapabilityMeshShadingEXT Capability = 5283
)

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
}

// Header is the five-word module header.
type Header struct {
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32
}
