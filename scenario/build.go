package scenario

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/shaderobj"
	"github.com/gogpu/shaderobj/caps"
	"github.com/gogpu/shaderobj/draw"
	"github.com/gogpu/shaderobj/internal/spvgen"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/spirv"
	"github.com/gogpu/shaderobj/stage"
)

// wgslStages are the stages WGSL can express, with their WebGPU
// visibility bits.
var wgslStages = map[stage.Stage]gputypes.ShaderStage{
	stage.Vertex:   gputypes.ShaderStageVertex,
	stage.Fragment: gputypes.ShaderStageFragment,
	stage.Compute:  gputypes.ShaderStageCompute,
}

// exposedStages returns the visibility mask of the entry points in a
// compiled WGSL module.
func exposedStages(code []byte) (gputypes.ShaderStage, error) {
	m, err := spirv.Parse(code)
	if err != nil {
		return 0, err
	}
	var mask gputypes.ShaderStage
	for i := range m.EntryPoints {
		if st, ok := m.EntryPoints[i].Stage(); ok {
			mask |= wgslStages[st]
		}
	}
	return mask, nil
}

// unsigned converts a decoded HCL number, rejecting negative values.
func unsigned(attr string, v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", attr, v)
	}
	return uint32(v), nil
}

func (s *Scenario) enabled() (caps.Enabled, error) {
	e := caps.Enabled{Features: caps.Features{ShaderObject: true}, Limits: caps.DefaultLimits()}
	if c := s.root.Capabilities; c != nil {
		if c.ShaderObject != nil {
			e.ShaderObject = *c.ShaderObject
		}
		e.TessellationShader = c.TessellationShader
		e.GeometryShader = c.GeometryShader
		e.TaskShader = c.TaskShader
		e.MeshShader = c.MeshShader
		e.AttachmentFragmentShadingRate = c.AttachmentFragmentShadingRate
		e.FragmentDensityMap = c.FragmentDensityMap
		e.SubgroupSizeControl = c.SubgroupSizeControl
		e.ComputeFullSubgroups = c.ComputeFullSubgroups
	}
	if l := s.root.Limits; l != nil && l.MaxTessellationPatchSize != nil {
		n, err := unsigned("max_tessellation_patch_size", *l.MaxTessellationPatchSize)
		if err != nil {
			return caps.Enabled{}, err
		}
		e.MaxTessellationPatchSize = n
	}
	return e, nil
}

func parseStage(name string) (stage.Stage, error) {
	st, ok := stage.Parse(name)
	if !ok {
		return 0, fmt.Errorf("unknown stage %q", name)
	}
	return st, nil
}

func parseStages(names []string) ([]stage.Stage, error) {
	out := make([]stage.Stage, 0, len(names))
	for _, n := range names {
		st, err := parseStage(n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func parseStageSet(names []string) (stage.Set, error) {
	stages, err := parseStages(names)
	if err != nil {
		return 0, err
	}
	return stage.SetOf(stages...), nil
}

func parseQueue(names []string) (caps.QueueFlags, error) {
	if len(names) == 0 {
		return caps.QueueGraphics | caps.QueueCompute, nil
	}
	var q caps.QueueFlags
	for _, n := range names {
		switch strings.ToLower(n) {
		case "graphics":
			q |= caps.QueueGraphics
		case "compute":
			q |= caps.QueueCompute
		case "transfer":
			q |= caps.QueueTransfer
		default:
			return 0, fmt.Errorf("unknown queue capability %q", n)
		}
	}
	return q, nil
}

func parseBindPoint(name *string) (stage.BindPoint, error) {
	if name == nil {
		return stage.BindPointGraphics, nil
	}
	switch strings.ToLower(*name) {
	case "graphics":
		return stage.BindPointGraphics, nil
	case "compute":
		return stage.BindPointCompute, nil
	}
	return 0, fmt.Errorf("unknown bind point %q", *name)
}

func parseDraw(name *string) (draw.Command, error) {
	if name == nil {
		return draw.CmdDraw, nil
	}
	cmd, ok := draw.ParseCommand(*name)
	if !ok {
		return 0, fmt.Errorf("unknown draw command %q", *name)
	}
	return cmd, nil
}

// createInfo lowers a shader block to a create descriptor.
func (s *Scenario) createInfo(b *shaderBlock) (object.CreateInfo, error) {
	st, err := parseStage(b.Stage)
	if err != nil {
		return object.CreateInfo{}, err
	}
	next, err := parseStageSet(b.NextStage)
	if err != nil {
		return object.CreateInfo{}, err
	}
	var flags object.CreateFlags
	for _, name := range b.Flags {
		f, ok := object.ParseFlag(name)
		if !ok {
			return object.CreateInfo{}, fmt.Errorf("unknown flag %q", name)
		}
		flags |= f
	}
	info := object.CreateInfo{
		Stage:      st,
		NextStage:  next,
		Flags:      flags,
		EntryPoint: "main",
	}
	if b.EntryPoint != nil {
		info.EntryPoint = *b.EntryPoint
	}
	for _, l := range b.SetLayouts {
		ref, err := unsigned("set_layouts", l)
		if err != nil {
			return object.CreateInfo{}, err
		}
		info.SetLayouts = append(info.SetLayouts, object.LayoutRef(ref))
	}
	for _, pc := range b.PushConstants {
		stages, err := parseStageSet(pc.Stages)
		if err != nil {
			return object.CreateInfo{}, err
		}
		offset, err := unsigned("push_constant offset", pc.Offset)
		if err != nil {
			return object.CreateInfo{}, err
		}
		size, err := unsigned("push_constant size", pc.Size)
		if err != nil {
			return object.CreateInfo{}, err
		}
		info.PushConstantRanges = append(info.PushConstantRanges, object.PushConstantRange{
			Stages: stages,
			Offset: offset,
			Size:   size,
		})
	}

	info.CodeType, info.Code, err = s.code(b, st, info.EntryPoint)
	if err != nil {
		return object.CreateInfo{}, err
	}
	return info, nil
}

var errCodeSource = errors.New("exactly one of wgsl, spirv_file, binary or module is required")

func (s *Scenario) code(b *shaderBlock, st stage.Stage, entryPoint string) (object.CodeType, []byte, error) {
	sources := 0
	for _, set := range []bool{b.WGSL != nil, b.SPIRVFile != nil, b.Binary != nil, b.Module != nil} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return 0, nil, errCodeSource
	}

	switch {
	case b.WGSL != nil:
		want, ok := wgslStages[st]
		if !ok {
			return 0, nil, fmt.Errorf("wgsl cannot express the %s stage", st)
		}
		code, err := naga.Compile(*b.WGSL)
		if err != nil {
			return 0, nil, fmt.Errorf("compile wgsl: %w", err)
		}
		exposed, err := exposedStages(code)
		if err != nil {
			return 0, nil, fmt.Errorf("read compiled wgsl: %w", err)
		}
		if exposed&want == 0 {
			return 0, nil, fmt.Errorf("wgsl module has no %s entry point", st)
		}
		shaderobj.Logger().Debug("compiled wgsl", "shader", b.Name, "stage", st, "bytes", len(code))
		return object.CodeSPIRV, code, nil
	case b.SPIRVFile != nil:
		code, err := os.ReadFile(resolve(filepath.Dir(s.Path), *b.SPIRVFile))
		if err != nil {
			return 0, nil, fmt.Errorf("read spirv: %w", err)
		}
		return object.CodeSPIRV, code, nil
	case b.Binary != nil:
		code, err := hex.DecodeString(strings.Join(strings.Fields(*b.Binary), ""))
		if err != nil {
			return 0, nil, fmt.Errorf("decode binary: %w", err)
		}
		return object.CodeBinary, code, nil
	}
	code, err := synthesize(b.Module, st, entryPoint)
	return object.CodeSPIRV, code, err
}

// synthesize builds a SPIR-V module with one empty entry point carrying the
// requested execution modes.
func synthesize(m *moduleBlock, st stage.Stage, entryPoint string) ([]byte, error) {
	model, ok := spirv.StageModel(st)
	if !ok {
		return nil, fmt.Errorf("no execution model for the %s stage", st)
	}
	if m.Model != nil {
		other, err := parseStage(*m.Model)
		if err != nil {
			return nil, err
		}
		if model, ok = spirv.StageModel(other); !ok {
			return nil, fmt.Errorf("no execution model for the %s stage", other)
		}
	}
	entry := spvgen.Entry{Name: entryPoint, Model: model}
	for _, name := range m.ExecutionModes {
		mode, ok := spirv.ParseExecutionMode(name)
		if !ok {
			return nil, fmt.Errorf("unknown execution mode %q", name)
		}
		entry.Modes = append(entry.Modes, spvgen.M(mode))
	}
	if m.OutputVertices != nil {
		n, err := unsigned("output_vertices", *m.OutputVertices)
		if err != nil {
			return nil, err
		}
		entry.Modes = append(entry.Modes, spvgen.M(spirv.ModeOutputVertices, n))
	}
	return spvgen.Build(entry), nil
}
