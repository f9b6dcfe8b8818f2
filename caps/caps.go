// Package caps describes the optional device capabilities and queue
// capabilities that shader-object validation depends on.
//
// An [Enabled] value is an immutable snapshot taken when the device is
// created. Validators receive it as a parameter; nothing in this module
// reads capabilities from global state.
package caps

import "strings"

// Feature names one optional capability an application must enable before
// using dependent functionality.
type Feature uint8

const (
	// FeatureNone marks functionality that needs no optional capability.
	FeatureNone Feature = iota
	FeatureShaderObject
	FeatureTessellationShader
	FeatureGeometryShader
	FeatureTaskShader
	FeatureMeshShader
	FeatureAttachmentFragmentShadingRate
	FeatureFragmentDensityMap
	FeatureSubgroupSizeControl
	FeatureComputeFullSubgroups
)

var featureNames = [...]string{
	FeatureNone:                          "none",
	FeatureShaderObject:                  "shaderObject",
	FeatureTessellationShader:            "tessellationShader",
	FeatureGeometryShader:                "geometryShader",
	FeatureTaskShader:                    "taskShader",
	FeatureMeshShader:                    "meshShader",
	FeatureAttachmentFragmentShadingRate: "attachmentFragmentShadingRate",
	FeatureFragmentDensityMap:            "fragmentDensityMap",
	FeatureSubgroupSizeControl:           "subgroupSizeControl",
	FeatureComputeFullSubgroups:          "computeFullSubgroups",
}

// String returns the API spelling of the feature.
func (f Feature) String() string {
	if int(f) < len(featureNames) {
		return featureNames[f]
	}
	return "unknown"
}

// Features is the set of optional features enabled on a device.
type Features struct {
	ShaderObject                  bool
	TessellationShader            bool
	GeometryShader                bool
	TaskShader                    bool
	MeshShader                    bool
	AttachmentFragmentShadingRate bool
	FragmentDensityMap            bool
	SubgroupSizeControl           bool
	ComputeFullSubgroups          bool
}

// Limits holds the device limits consulted during validation.
type Limits struct {
	// MaxTessellationPatchSize bounds the output vertex count of a
	// tessellation stage.
	MaxTessellationPatchSize uint32
}

// DefaultLimits returns the minimum limits every conformant device reports.
func DefaultLimits() Limits {
	return Limits{MaxTessellationPatchSize: 32}
}

// WithDefaults returns l with every unset (zero) limit replaced by its
// DefaultLimits value.
func (l Limits) WithDefaults() Limits {
	if l.MaxTessellationPatchSize == 0 {
		l.MaxTessellationPatchSize = DefaultLimits().MaxTessellationPatchSize
	}
	return l
}

// Enabled is the immutable capability snapshot passed to every validator.
type Enabled struct {
	Features
	Limits
}

// Has reports whether f is enabled. FeatureNone is always enabled.
func (e Enabled) Has(f Feature) bool {
	switch f {
	case FeatureNone:
		return true
	case FeatureShaderObject:
		return e.ShaderObject
	case FeatureTessellationShader:
		return e.TessellationShader
	case FeatureGeometryShader:
		return e.GeometryShader
	case FeatureTaskShader:
		return e.TaskShader
	case FeatureMeshShader:
		return e.MeshShader
	case FeatureAttachmentFragmentShadingRate:
		return e.AttachmentFragmentShadingRate
	case FeatureFragmentDensityMap:
		return e.FragmentDensityMap
	case FeatureSubgroupSizeControl:
		return e.SubgroupSizeControl
	case FeatureComputeFullSubgroups:
		return e.ComputeFullSubgroups
	}
	return false
}

// MeshPipelines reports whether either task or mesh shading is enabled.
func (e Enabled) MeshPipelines() bool {
	return e.TaskShader || e.MeshShader
}

// QueueFlags describes the operations supported by the queue family a
// command pool was created for.
type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
)

// Has reports whether all bits of q are set.
func (f QueueFlags) Has(q QueueFlags) bool {
	return f&q == q
}

// String returns a "|" separated list of queue capabilities.
func (f QueueFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(QueueGraphics) {
		parts = append(parts, "graphics")
	}
	if f.Has(QueueCompute) {
		parts = append(parts, "compute")
	}
	if f.Has(QueueTransfer) {
		parts = append(parts, "transfer")
	}
	return strings.Join(parts, "|")
}
