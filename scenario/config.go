// Package scenario runs declarative validation scenarios written in HCL.
//
// A scenario file enables capabilities, creates shader batches and records
// commands into command buffers. Every batch and command may carry an
// expect list of VUIDs; running the scenario compares what the validator
// reported at each step against that list.
//
//	capabilities {
//	  tessellation_shader = true
//	}
//
//	shader_batch "tess" {
//	  shader "tc" {
//	    stage      = "tessellation_control"
//	    next_stage = ["tessellation_evaluation"]
//	    flags      = ["link_stage"]
//	    module {
//	      execution_modes = ["triangles", "vertex_order_ccw", "spacing_equal"]
//	      output_vertices = 3
//	    }
//	  }
//	  ...
//	}
//
//	command_buffer "main" {
//	  command "begin" {}
//	  command "bind_shaders" {
//	    stages  = ["vertex", "vertex"]
//	    shaders = ["vs", "vs"]
//	    expect  = ["VUID-vkCmdBindShadersEXT-pStages-08463"]
//	  }
//	}
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// fileRoot is the top-level structure of a scenario file.
type fileRoot struct {
	Capabilities   *capabilitiesBlock    `hcl:"capabilities,block"`
	Limits         *limitsBlock          `hcl:"limits,block"`
	Batches        []*batchBlock         `hcl:"shader_batch,block"`
	CommandBuffers []*commandBufferBlock `hcl:"command_buffer,block"`
}

type capabilitiesBlock struct {
	ShaderObject                  *bool `hcl:"shader_object,optional"`
	TessellationShader            bool  `hcl:"tessellation_shader,optional"`
	GeometryShader                bool  `hcl:"geometry_shader,optional"`
	TaskShader                    bool  `hcl:"task_shader,optional"`
	MeshShader                    bool  `hcl:"mesh_shader,optional"`
	AttachmentFragmentShadingRate bool  `hcl:"attachment_fragment_shading_rate,optional"`
	FragmentDensityMap            bool  `hcl:"fragment_density_map,optional"`
	SubgroupSizeControl           bool  `hcl:"subgroup_size_control,optional"`
	ComputeFullSubgroups          bool  `hcl:"compute_full_subgroups,optional"`
}

type limitsBlock struct {
	MaxTessellationPatchSize *int `hcl:"max_tessellation_patch_size,optional"`
}

type batchBlock struct {
	Name    string        `hcl:"name,label"`
	Expect  []string      `hcl:"expect,optional"`
	Shaders []*shaderBlock `hcl:"shader,block"`
}

type shaderBlock struct {
	Name       string   `hcl:"name,label"`
	Stage      string   `hcl:"stage"`
	NextStage  []string `hcl:"next_stage,optional"`
	Flags      []string `hcl:"flags,optional"`
	EntryPoint *string  `hcl:"entry_point,optional"`
	// Exactly one code source: wgsl text, a SPIR-V file, hex binary or a
	// synthesized module.
	WGSL          *string              `hcl:"wgsl,optional"`
	SPIRVFile     *string              `hcl:"spirv_file,optional"`
	Binary        *string              `hcl:"binary,optional"`
	Module        *moduleBlock         `hcl:"module,block"`
	SetLayouts    []int                `hcl:"set_layouts,optional"`
	PushConstants []*pushConstantBlock `hcl:"push_constant,block"`
}

type moduleBlock struct {
	// Model overrides the execution model derived from the shader stage.
	Model          *string  `hcl:"model,optional"`
	ExecutionModes []string `hcl:"execution_modes,optional"`
	OutputVertices *int     `hcl:"output_vertices,optional"`
}

type pushConstantBlock struct {
	Stages []string `hcl:"stages"`
	Offset int      `hcl:"offset,optional"`
	Size   int      `hcl:"size"`
}

type commandBufferBlock struct {
	Name     string          `hcl:"name,label"`
	Queue    []string        `hcl:"queue,optional"`
	Commands []*commandBlock `hcl:"command,block"`
}

type commandBlock struct {
	Type string `hcl:"type,label"`

	Stages  []string `hcl:"stages,optional"`
	Shaders []string `hcl:"shaders,optional"`

	BindPoint      *string  `hcl:"bind_point,optional"`
	Pipeline       *int     `hcl:"pipeline,optional"`
	PipelineStages []string `hcl:"pipeline_stages,optional"`

	Draw   *string `hcl:"draw,optional"`
	Shader *string `hcl:"shader,optional"`

	Expect []string `hcl:"expect,optional"`
}

// Scenario is a decoded scenario file.
type Scenario struct {
	// Path is the file the scenario was read from.
	Path string
	root fileRoot
}

// Load reads and decodes the scenario file at path.
func Load(path string) (*Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes a scenario from src. filename names the source in
// diagnostics and anchors relative paths given to file() and spirv_file.
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", filename, diags)
	}

	s := &Scenario{Path: filename}
	diags = gohcl.DecodeBody(f.Body, evalContext(filepath.Dir(filename)), &s.root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", filename, diags)
	}
	return s, nil
}

// evalContext provides file(path), which returns the contents of a file
// relative to dir.
func evalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"file": fileFunc(dir),
		},
	}
}

func fileFunc(dir string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "path", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			data, err := os.ReadFile(resolve(dir, args[0].AsString()))
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal(string(data)), nil
		},
	})
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
