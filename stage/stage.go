// Package stage defines the shader stage universe and the stage adjacency
// graph shared by creation-time and draw-time validation.
//
// Per-stage behavior (chain membership, legal successors, required
// capability, bind point, queue requirement) lives in a single table keyed
// by [Stage]. Adding a stage without a table row fails TestTableComplete.
package stage

import (
	"strings"

	"github.com/gogpu/shaderobj/caps"
)

// Stage is one phase of the graphics, mesh, compute or ray-tracing pipeline.
type Stage uint8

const (
	Vertex Stage = iota
	TessellationControl
	TessellationEvaluation
	Geometry
	Fragment
	Compute
	Task
	Mesh
	RayGen
	AnyHit
	ClosestHit
	Miss
	Intersection
	Callable
	SubpassShading
	ClusterCulling
	// AllGraphics and All are aggregate pseudo-stages. They are never a
	// valid argument where a single stage is expected.
	AllGraphics
	All
)

// Count is the number of stage values, pseudo-stages included.
const Count = int(All) + 1

// Chain identifies which ordered stage chain a stage belongs to.
type Chain uint8

const (
	ChainNone Chain = iota
	ChainGraphics
	ChainMesh
)

// BindPoint is the execution context a stage is bound for.
type BindPoint uint8

const (
	BindPointNone BindPoint = iota
	BindPointGraphics
	BindPointCompute
)

// String returns the bind point name.
func (b BindPoint) String() string {
	switch b {
	case BindPointGraphics:
		return "graphics"
	case BindPointCompute:
		return "compute"
	}
	return "none"
}

// Kind classifies a stage for bind-time legality.
type Kind uint8

const (
	// KindShader is a single stage that may back a shader object.
	KindShader Kind = iota
	KindAggregate
	KindRayTracing
	KindVendor
)

type info struct {
	name      string
	vkBit     uint32
	kind      Kind
	chain     Chain
	next      Set
	requires  caps.Feature
	bindPoint BindPoint
	queue     caps.QueueFlags
}

var table = [Count]info{
	Vertex: {
		name: "vertex", vkBit: 0x1, kind: KindShader, chain: ChainGraphics,
		next:      SetOf(TessellationControl, Geometry, Fragment),
		bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	TessellationControl: {
		name: "tessellation_control", vkBit: 0x2, kind: KindShader, chain: ChainGraphics,
		next:     SetOf(TessellationEvaluation),
		requires: caps.FeatureTessellationShader, bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	TessellationEvaluation: {
		name: "tessellation_evaluation", vkBit: 0x4, kind: KindShader, chain: ChainGraphics,
		next:     SetOf(Geometry, Fragment),
		requires: caps.FeatureTessellationShader, bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	Geometry: {
		name: "geometry", vkBit: 0x8, kind: KindShader, chain: ChainGraphics,
		next:     SetOf(Fragment),
		requires: caps.FeatureGeometryShader, bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	Fragment: {
		name: "fragment", vkBit: 0x10, kind: KindShader, chain: ChainGraphics,
		bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	Compute: {
		name: "compute", vkBit: 0x20, kind: KindShader,
		bindPoint: BindPointCompute, queue: caps.QueueCompute,
	},
	Task: {
		name: "task", vkBit: 0x40, kind: KindShader, chain: ChainMesh,
		next:     SetOf(Mesh),
		requires: caps.FeatureTaskShader, bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	Mesh: {
		name: "mesh", vkBit: 0x80, kind: KindShader, chain: ChainMesh,
		next:     SetOf(Fragment),
		requires: caps.FeatureMeshShader, bindPoint: BindPointGraphics, queue: caps.QueueGraphics,
	},
	RayGen:         {name: "raygen", vkBit: 0x100, kind: KindRayTracing},
	AnyHit:         {name: "any_hit", vkBit: 0x200, kind: KindRayTracing},
	ClosestHit:     {name: "closest_hit", vkBit: 0x400, kind: KindRayTracing},
	Miss:           {name: "miss", vkBit: 0x800, kind: KindRayTracing},
	Intersection:   {name: "intersection", vkBit: 0x1000, kind: KindRayTracing},
	Callable:       {name: "callable", vkBit: 0x2000, kind: KindRayTracing},
	SubpassShading: {name: "subpass_shading", vkBit: 0x4000, kind: KindVendor},
	ClusterCulling: {name: "cluster_culling", vkBit: 0x80000, kind: KindVendor},
	AllGraphics:    {name: "all_graphics", vkBit: 0x1F, kind: KindAggregate},
	All:            {name: "all", vkBit: 0x7FFFFFFF, kind: KindAggregate},
}

// Valid reports whether s is a member of the stage universe.
func (s Stage) Valid() bool {
	return int(s) < Count
}

// String returns the lower-case stage name used in messages and config files.
func (s Stage) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return table[s].name
}

// VkBit returns the API bit value of the stage.
func (s Stage) VkBit() uint32 {
	if !s.Valid() {
		return 0
	}
	return table[s].vkBit
}

// Kind returns the classification of s.
func (s Stage) Kind() Kind {
	if !s.Valid() {
		return KindVendor
	}
	return table[s].kind
}

// IsShader reports whether s is a single stage that may back a shader object.
func (s Stage) IsShader() bool {
	return s.Valid() && table[s].kind == KindShader
}

// Chain returns the ordered chain s belongs to. Fragment reports
// ChainGraphics although it also terminates the mesh chain.
func (s Stage) Chain() Chain {
	if !s.Valid() {
		return ChainNone
	}
	return table[s].chain
}

// Requires returns the capability that must be enabled to use s.
func (s Stage) Requires() caps.Feature {
	if !s.Valid() {
		return caps.FeatureNone
	}
	return table[s].requires
}

// BindPoint returns the bind point s is bound for.
func (s Stage) BindPoint() BindPoint {
	if !s.Valid() {
		return BindPointNone
	}
	return table[s].bindPoint
}

// Queue returns the queue operations a command pool must support for s to
// be bound.
func (s Stage) Queue() caps.QueueFlags {
	if !s.Valid() {
		return 0
	}
	return table[s].queue
}

// AllowedNext returns the stages s may declare as its next stage.
func (s Stage) AllowedNext() Set {
	if !s.Valid() {
		return 0
	}
	return table[s].next
}

// Parse returns the stage with the given name.
func Parse(name string) (Stage, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range table {
		if table[i].name == name {
			return Stage(i), true
		}
	}
	return 0, false
}

// Set is a bitset over stages.
type Set uint32

// SetOf returns the set containing the given stages.
func SetOf(stages ...Stage) Set {
	var s Set
	for _, st := range stages {
		s = s.With(st)
	}
	return s
}

// With returns s with st added.
func (s Set) With(st Stage) Set {
	return s | 1<<st
}

// Has reports whether st is in s.
func (s Set) Has(st Stage) bool {
	return s&(1<<st) != 0
}

// IsSubsetOf reports whether every stage in s is also in o.
func (s Set) IsSubsetOf(o Set) bool {
	return s&^o == 0
}

// Empty reports whether s contains no stage.
func (s Set) Empty() bool {
	return s == 0
}

// Stages returns the members of s in enumeration order.
func (s Set) Stages() []Stage {
	var out []Stage
	for i := 0; i < Count; i++ {
		if s.Has(Stage(i)) {
			out = append(out, Stage(i))
		}
	}
	return out
}

// String returns the members of s joined by "|", or "none".
func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	stages := s.Stages()
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.String()
	}
	return strings.Join(names, "|")
}
