// Package creation validates a batch of shader descriptors submitted in one
// create call and builds the shader records once the batch is clean.
//
// Validation never stops early. Every check runs against every descriptor
// and each failure becomes a [diag.Violation]; the caller creates nothing
// when the result is non-empty.
package creation

import (
	"errors"

	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/spirv"
	"github.com/gogpu/shaderobj/stage"
)

// Function is the API entry point creation violations are reported against.
const Function = "vkCreateShadersEXT"

// ErrEmptyBatch is returned by ValidateBatch for a batch with no descriptors.
var ErrEmptyBatch = errors.New("creation: empty batch")

// MetadataProvider extracts entry-point metadata from SPIR-V code. A
// provider reports a missing entry point by wrapping
// spirv.ErrEntryPointNotFound; any other error means the code is unusable.
type MetadataProvider interface {
	EntryPoint(code []byte, name string, st stage.Stage) (*spirv.EntryPoint, error)
}

// Result is the outcome of validating one batch.
type Result struct {
	Violations []diag.Violation
	// EntryPoints is index-aligned with the batch. Entries are nil for
	// binary code and for SPIR-V whose entry point could not be resolved.
	EntryPoints []*spirv.EntryPoint
}

// OK reports whether the batch produced no violations.
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

var stageFeatureIDs = map[caps.Feature]string{
	caps.FeatureTessellationShader: "VUID-VkShaderCreateInfoEXT-stage-08419",
	caps.FeatureGeometryShader:     "VUID-VkShaderCreateInfoEXT-stage-08420",
	caps.FeatureTaskShader:         "VUID-VkShaderCreateInfoEXT-stage-08421",
	caps.FeatureMeshShader:         "VUID-VkShaderCreateInfoEXT-stage-08422",
}

var flagFeatures = []struct {
	flag    object.CreateFlags
	feature caps.Feature
	id      string
}{
	{object.FlagFragmentShadingRateAttachment, caps.FeatureAttachmentFragmentShadingRate, "VUID-VkShaderCreateInfoEXT-flags-08487"},
	{object.FlagFragmentDensityMapAttachment, caps.FeatureFragmentDensityMap, "VUID-VkShaderCreateInfoEXT-flags-08489"},
	{object.FlagAllowVaryingSubgroupSize, caps.FeatureSubgroupSizeControl, "VUID-VkShaderCreateInfoEXT-flags-09404"},
	{object.FlagRequireFullSubgroups, caps.FeatureComputeFullSubgroups, "VUID-VkShaderCreateInfoEXT-flags-09405"},
}

var nextStageIDs = map[stage.Stage]string{
	stage.Vertex:                 "VUID-VkShaderCreateInfoEXT-nextStage-08427",
	stage.TessellationControl:    "VUID-VkShaderCreateInfoEXT-nextStage-08430",
	stage.TessellationEvaluation: "VUID-VkShaderCreateInfoEXT-nextStage-08431",
	stage.Geometry:               "VUID-VkShaderCreateInfoEXT-nextStage-08433",
	stage.Fragment:               "VUID-VkShaderCreateInfoEXT-nextStage-08434",
	stage.Compute:                "VUID-VkShaderCreateInfoEXT-nextStage-08434",
	stage.Task:                   "VUID-VkShaderCreateInfoEXT-nextStage-08435",
	stage.Mesh:                   "VUID-VkShaderCreateInfoEXT-nextStage-08436",
}

// batchValidator accumulates violations for one batch.
type batchValidator struct {
	infos      []object.CreateInfo
	enabled    caps.Enabled
	provider   MetadataProvider
	present    stage.Set
	violations []diag.Violation
}

// ValidateBatch checks a creation batch. provider may be nil, in which case
// SPIR-V entry points are not inspected. The returned error is reserved for
// input that cannot be validated at all.
func ValidateBatch(infos []object.CreateInfo, enabled caps.Enabled, provider MetadataProvider) (*Result, error) {
	if len(infos) == 0 {
		return nil, ErrEmptyBatch
	}

	v := &batchValidator{
		infos:    infos,
		enabled:  enabled,
		provider: provider,
	}
	for i := range infos {
		v.present = v.present.With(infos[i].Stage)
	}

	if !enabled.ShaderObject {
		v.addError(diag.New("VUID-vkCreateShadersEXT-None-08400", diag.CategoryCapability, diag.At(Function),
			"the shaderObject feature was not enabled."))
	}

	for i := range infos {
		v.validateDescriptor(i)
	}
	v.validateGroups()

	entryPoints := v.resolveEntryPoints()
	v.violations = append(v.violations, ValidateTessellationInterface(infos, entryPoints, enabled.Limits)...)

	return &Result{Violations: v.violations, EntryPoints: entryPoints}, nil
}

func (v *batchValidator) addError(vi diag.Violation) {
	v.violations = append(v.violations, vi)
}

func (v *batchValidator) loc(i int) diag.Location {
	return diag.At(Function).Index("pCreateInfos", i)
}

//nolint:gocognit,gocyclo,cyclop // one branch per descriptor rule
func (v *batchValidator) validateDescriptor(i int) {
	info := &v.infos[i]
	loc := v.loc(i)

	if !info.Stage.IsShader() {
		v.addError(diag.New("VUID-VkShaderCreateInfoEXT-stage-08425", diag.CategoryStructural, loc.Field("stage"),
			"is %s, which is not a stage a shader object can be created for.", info.Stage).WithIndices(i))
	}

	if feature := info.Stage.Requires(); !v.enabled.Has(feature) {
		if id, ok := stageFeatureIDs[feature]; ok {
			v.addError(diag.New(id, diag.CategoryCapability, loc.Field("stage"),
				"is %s, but the %s feature was not enabled.", info.Stage, feature).WithIndices(i))
		}
	}

	for _, ff := range flagFeatures {
		if info.Flags.Has(ff.flag) && !v.enabled.Has(ff.feature) {
			v.addError(diag.New(ff.id, diag.CategoryCapability, loc.Field("flags"),
				"is %s, but the %s feature was not enabled.", info.Flags, ff.feature).WithIndices(i))
		}
	}

	if info.Linked() && len(v.infos) == 1 {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08401", diag.CategoryStructural, loc.Field("flags"),
			"is %s, but createInfoCount is 1.", info.Flags).WithIndices(i))
	}

	if !v.enabled.TessellationShader && (info.NextStage.Has(stage.TessellationControl) || info.NextStage.Has(stage.TessellationEvaluation)) {
		v.addError(diag.New("VUID-VkShaderCreateInfoEXT-nextStage-08428", diag.CategoryCapability, loc.Field("nextStage"),
			"is %s, but the tessellationShader feature was not enabled.", info.NextStage).WithIndices(i))
	}
	if !v.enabled.GeometryShader && info.NextStage.Has(stage.Geometry) {
		v.addError(diag.New("VUID-VkShaderCreateInfoEXT-nextStage-08429", diag.CategoryCapability, loc.Field("nextStage"),
			"is %s, but the geometryShader feature was not enabled.", info.NextStage).WithIndices(i))
	}

	if id, ok := nextStageIDs[info.Stage]; ok && !info.NextStage.IsSubsetOf(info.Stage.AllowedNext()) {
		v.addError(diag.New(id, diag.CategoryStructural, loc.Field("stage"),
			"is %s, but nextStage is %s (allowed: %s).", info.Stage, info.NextStage, info.Stage.AllowedNext()).WithIndices(i))
	}

	if !info.Linked() {
		return
	}

	if expected, ok := stage.NextPresent(info.Stage, v.present); ok && info.NextStage != stage.SetOf(expected) {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08409", diag.CategoryStructural, loc.Field("flags"),
			"is %s, but nextStage (%s) does not equal the logically next stage (%s) which is also in the batch.",
			info.Flags, info.NextStage, expected).WithIndices(i))
	}

	for j := i + 1; j < len(v.infos); j++ {
		other := &v.infos[j]
		if other.Linked() && other.Stage == info.Stage {
			v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08410", diag.CategoryStructural, loc,
				"and pCreateInfos[%d] are both linked and have the stage %s.", j, info.Stage).WithIndices(i, j))
		}
	}
}

// validateGroups runs the checks that look at the batch as a whole.
func (v *batchValidator) validateGroups() {
	const none = -1
	linked, nonLinkedGraphics, nonLinkedMesh := none, none, none
	linkedVertex, linkedTaskMesh, linkedTask, linkedMeshNoTask := none, none, none, none
	linkedSPIRV, linkedBinary := none, none
	linkedCount := 0

	first := func(slot *int, i int) {
		if *slot == none {
			*slot = i
		}
	}

	for i := range v.infos {
		info := &v.infos[i]
		if !info.Linked() {
			switch info.Stage.Chain() {
			case stage.ChainGraphics:
				first(&nonLinkedGraphics, i)
			case stage.ChainMesh:
				first(&nonLinkedMesh, i)
			}
			continue
		}

		first(&linked, i)
		linkedCount++
		switch info.Stage {
		case stage.Vertex:
			first(&linkedVertex, i)
		case stage.Task:
			first(&linkedTaskMesh, i)
			first(&linkedTask, i)
		case stage.Mesh:
			first(&linkedTaskMesh, i)
			if info.Flags.Has(object.FlagNoTaskShader) {
				first(&linkedMeshNoTask, i)
			}
		}
		switch info.CodeType {
		case object.CodeSPIRV:
			first(&linkedSPIRV, i)
		case object.CodeBinary:
			first(&linkedBinary, i)
		}
	}

	loc := diag.At(Function)
	// A batch of one is reported per descriptor.
	if linkedCount == 1 && len(v.infos) > 1 {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08401", diag.CategoryStructural, v.loc(linked).Field("flags"),
			"is %s, but no other descriptor of the batch is linked.", v.infos[linked].Flags).WithIndices(linked))
	}
	if linked != none && nonLinkedGraphics != none {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08402", diag.CategoryStructural, loc,
			"pCreateInfos[%d] is linked, but pCreateInfos[%d] stage is %s and is not linked.",
			linked, nonLinkedGraphics, v.infos[nonLinkedGraphics].Stage).WithIndices(linked, nonLinkedGraphics))
	}
	if linked != none && nonLinkedMesh != none {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08403", diag.CategoryStructural, loc,
			"pCreateInfos[%d] is linked, but pCreateInfos[%d] stage is %s and is not linked.",
			linked, nonLinkedMesh, v.infos[nonLinkedMesh].Stage).WithIndices(linked, nonLinkedMesh))
	}
	if linkedVertex != none && linkedTaskMesh != none {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08404", diag.CategoryStructural, loc,
			"pCreateInfos[%d].stage is %s and pCreateInfos[%d].stage is %s, but both are linked.",
			linkedVertex, stage.Vertex, linkedTaskMesh, v.infos[linkedTaskMesh].Stage).WithIndices(linkedVertex, linkedTaskMesh))
	}
	if linkedTask != none && linkedMeshNoTask != none {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08405", diag.CategoryStructural, loc,
			"pCreateInfos[%d] is a linked task shader, but pCreateInfos[%d] is a linked mesh shader with the %s flag.",
			linkedTask, linkedMeshNoTask, object.FlagNoTaskShader).WithIndices(linkedTask, linkedMeshNoTask))
	}
	if linkedSPIRV != none && linkedBinary != none {
		v.addError(diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08411", diag.CategoryStructural, loc,
			"pCreateInfos[%d] is a linked shader with %s code, but pCreateInfos[%d] is a linked shader with %s code.",
			linkedSPIRV, object.CodeSPIRV, linkedBinary, object.CodeBinary).WithIndices(linkedSPIRV, linkedBinary))
	}
}

// resolveEntryPoints asks the provider for the entry point of every SPIR-V
// descriptor, reporting unusable code and missing entry points.
func (v *batchValidator) resolveEntryPoints() []*spirv.EntryPoint {
	out := make([]*spirv.EntryPoint, len(v.infos))
	if v.provider == nil {
		return out
	}
	for i := range v.infos {
		info := &v.infos[i]
		if info.CodeType != object.CodeSPIRV || !info.Stage.IsShader() {
			continue
		}
		ep, err := v.provider.EntryPoint(info.Code, info.EntryPoint, info.Stage)
		switch {
		case err == nil:
			out[i] = ep
		case errors.Is(err, spirv.ErrEntryPointNotFound):
			v.addError(diag.New("VUID-VkShaderCreateInfoEXT-pName-08440", diag.CategoryStructural, v.loc(i).Field("pName"),
				"%q is not the name of a %s entry point in pCode.", info.EntryPoint, info.Stage).WithIndices(i))
		default:
			v.addError(diag.New("VUID-VkShaderCreateInfoEXT-pCode-08718", diag.CategoryStructural, v.loc(i).Field("pCode"),
				"is not valid SPIR-V: %v.", err).WithIndices(i))
		}
	}
	return out
}
