// Package object defines shader creation descriptors, created shader
// records, and the handle table that owns them.
package object

import (
	"strings"

	"github.com/gogpu/shaderobj/stage"
)

// Handle identifies a created object. The zero handle is the null handle.
type Handle uint64

// Null is the null handle.
const Null Handle = 0

// CodeType is the format of a shader's code.
type CodeType uint8

const (
	CodeSPIRV CodeType = iota
	CodeBinary
)

func (c CodeType) String() string {
	if c == CodeBinary {
		return "binary"
	}
	return "spirv"
}

// CreateFlags are per-descriptor creation flags.
type CreateFlags uint32

const (
	FlagLinkStage CreateFlags = 1 << iota
	FlagAllowVaryingSubgroupSize
	FlagRequireFullSubgroups
	FlagNoTaskShader
	FlagDispatchBase
	FlagFragmentShadingRateAttachment
	FlagFragmentDensityMapAttachment
)

var flagNames = []struct {
	flag CreateFlags
	name string
}{
	{FlagLinkStage, "link_stage"},
	{FlagAllowVaryingSubgroupSize, "allow_varying_subgroup_size"},
	{FlagRequireFullSubgroups, "require_full_subgroups"},
	{FlagNoTaskShader, "no_task_shader"},
	{FlagDispatchBase, "dispatch_base"},
	{FlagFragmentShadingRateAttachment, "fragment_shading_rate_attachment"},
	{FlagFragmentDensityMapAttachment, "fragment_density_map_attachment"},
}

// Has reports whether every bit of f is set.
func (c CreateFlags) Has(f CreateFlags) bool {
	return c&f == f
}

func (c CreateFlags) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if c.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlag returns the flag with the given name.
func ParseFlag(name string) (CreateFlags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// PushConstantRange is one push-constant range of a shader interface.
type PushConstantRange struct {
	Stages stage.Set
	Offset uint32
	Size   uint32
}

// LayoutRef identifies a descriptor set layout. Layouts compare by handle.
type LayoutRef uint64

// CreateInfo describes one shader to create.
type CreateInfo struct {
	Stage              stage.Stage
	NextStage          stage.Set
	Flags              CreateFlags
	CodeType           CodeType
	Code               []byte
	EntryPoint         string
	PushConstantRanges []PushConstantRange
	SetLayouts         []LayoutRef
}

// Linked reports whether the descriptor requests link-stage creation.
func (ci *CreateInfo) Linked() bool {
	return ci.Flags.Has(FlagLinkStage)
}

// Peer is a non-owning reference to another shader of the same linked batch.
type Peer struct {
	Handle Handle
	Stage  stage.Stage
}

// Shader is a created shader object.
type Shader struct {
	Handle             Handle
	Stage              stage.Stage
	NextStage          stage.Set
	Flags              CreateFlags
	CodeType           CodeType
	Code               []byte
	EntryPoint         string
	Linked             []Peer
	PushConstantRanges []PushConstantRange
	SetLayouts         []LayoutRef
}

// IsLinked reports whether the shader was created as part of a linked batch.
func (s *Shader) IsLinked() bool {
	return s.Flags.Has(FlagLinkStage)
}

// PeerAt returns the linked peer created for st.
func (s *Shader) PeerAt(st stage.Stage) (Peer, bool) {
	for _, p := range s.Linked {
		if p.Stage == st {
			return p, true
		}
	}
	return Peer{}, false
}
