package creation

import (
	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/spirv"
	"github.com/gogpu/shaderobj/stage"
)

// ValidateTessellationInterface checks the execution modes of tessellation
// entry points. entryPoints is index-aligned with infos; nil entries are
// skipped.
//
// Every tessellation evaluation entry point must declare its subdivision,
// orientation and spacing. A declared patch size must lie within the device
// limit. When the batch holds a linked tessellation control and evaluation
// pair, the two must agree wherever both declare a value. A zero limit is
// treated as unset.
func ValidateTessellationInterface(infos []object.CreateInfo, entryPoints []*spirv.EntryPoint, limits caps.Limits) []diag.Violation {
	limits = limits.WithDefaults()
	var out []diag.Violation
	tc, te := -1, -1

	for i := range infos {
		ep := entryPointAt(entryPoints, i)
		if ep == nil {
			continue
		}
		st := infos[i].Stage
		if st != stage.TessellationControl && st != stage.TessellationEvaluation {
			continue
		}
		loc := diag.At(Function).Index("pCreateInfos", i).Field("pCode")

		if st == stage.TessellationEvaluation {
			if ep.Modes.Subdivision == spirv.SubdivisionUnset {
				out = append(out, diag.New("VUID-VkShaderCreateInfoEXT-codeType-08872", diag.CategoryStructural, loc,
					"entry point %q does not declare a subdivision execution mode (Triangles, Quads or Isolines).", ep.Name).WithIndices(i))
			}
			if ep.Modes.Orientation == spirv.OrientationUnset {
				out = append(out, diag.New("VUID-VkShaderCreateInfoEXT-codeType-08873", diag.CategoryStructural, loc,
					"entry point %q does not declare an orientation execution mode (VertexOrderCw or VertexOrderCcw).", ep.Name).WithIndices(i))
			}
			if ep.Modes.Spacing == spirv.SpacingUnset {
				out = append(out, diag.New("VUID-VkShaderCreateInfoEXT-codeType-08874", diag.CategoryStructural, loc,
					"entry point %q does not declare a spacing execution mode.", ep.Name).WithIndices(i))
			}
		}

		if ep.Modes.HasOutputVertices() {
			n := ep.Modes.OutputVertices
			if n == 0 || n > limits.MaxTessellationPatchSize {
				out = append(out, diag.New("VUID-VkShaderCreateInfoEXT-pCode-08875", diag.CategoryStructural, loc,
					"entry point %q declares OutputVertices %d, which is not in [1, maxTessellationPatchSize (%d)].",
					ep.Name, n, limits.MaxTessellationPatchSize).WithIndices(i))
			}
		}

		if !infos[i].Linked() {
			continue
		}
		if st == stage.TessellationControl && tc < 0 {
			tc = i
		} else if st == stage.TessellationEvaluation && te < 0 {
			te = i
		}
	}

	if tc >= 0 && te >= 0 {
		out = append(out, validateLinkedTessellation(tc, te, entryPoints[tc], entryPoints[te])...)
	}
	return out
}

func validateLinkedTessellation(tc, te int, control, eval *spirv.EntryPoint) []diag.Violation {
	var out []diag.Violation
	loc := diag.At(Function)
	c, e := control.Modes, eval.Modes

	if c.Subdivision != spirv.SubdivisionUnset && e.Subdivision != spirv.SubdivisionUnset && c.Subdivision != e.Subdivision {
		out = append(out, diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08867", diag.CategoryCrossShader, loc,
			"pCreateInfos[%d] declares subdivision %s, but the linked tessellation evaluation shader pCreateInfos[%d] declares %s.",
			tc, c.Subdivision, te, e.Subdivision).WithIndices(tc, te))
	}
	if c.Orientation != spirv.OrientationUnset && e.Orientation != spirv.OrientationUnset && c.Orientation != e.Orientation {
		out = append(out, diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08868", diag.CategoryCrossShader, loc,
			"pCreateInfos[%d] declares orientation %s, but the linked tessellation evaluation shader pCreateInfos[%d] declares %s.",
			tc, c.Orientation, te, e.Orientation).WithIndices(tc, te))
	}
	if c.PointMode && !e.PointMode {
		out = append(out, diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08869", diag.CategoryCrossShader, loc,
			"pCreateInfos[%d] declares PointMode, but the linked tessellation evaluation shader pCreateInfos[%d] does not.",
			tc, te).WithIndices(tc, te))
	}
	if c.Spacing != spirv.SpacingUnset && e.Spacing != spirv.SpacingUnset && c.Spacing != e.Spacing {
		out = append(out, diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08870", diag.CategoryCrossShader, loc,
			"pCreateInfos[%d] declares spacing %s, but the linked tessellation evaluation shader pCreateInfos[%d] declares %s.",
			tc, c.Spacing, te, e.Spacing).WithIndices(tc, te))
	}
	if c.HasOutputVertices() && e.HasOutputVertices() && c.OutputVertices != e.OutputVertices {
		out = append(out, diag.New("VUID-vkCreateShadersEXT-pCreateInfos-08871", diag.CategoryCrossShader, loc,
			"pCreateInfos[%d] declares OutputVertices %d, but the linked tessellation evaluation shader pCreateInfos[%d] declares %d.",
			tc, c.OutputVertices, te, e.OutputVertices).WithIndices(tc, te))
	}
	return out
}

func entryPointAt(eps []*spirv.EntryPoint, i int) *spirv.EntryPoint {
	if i < len(eps) {
		return eps[i]
	}
	return nil
}
