package spirv_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shaderobj/internal/spvgen"
	"github.com/gogpu/shaderobj/spirv"
	"github.com/gogpu/shaderobj/stage"
)

func TestParseHeader(t *testing.T) {
	m, err := spirv.Parse(spvgen.Single(spirv.ModelVertex))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Header.Version != (spirv.Version{Major: 1, Minor: 3}) {
		t.Errorf("version = %v, want 1.3", m.Header.Version)
	}
	if m.Header.Bound == 0 {
		t.Error("bound should be non-zero")
	}
	if !m.HasCapability(spirv.CapabilityShader) {
		t.Error("Shader capability not reported")
	}
}

func TestParseEntryPoints(t *testing.T) {
	code := spvgen.Build(
		spvgen.Entry{Name: "tcs", Model: spirv.ModelTessellationControl, Modes: []spvgen.Mode{
			spvgen.M(spirv.ModeOutputVertices, 4),
			spvgen.M(spirv.ModeQuads),
		}},
		spvgen.Entry{Name: "tes", Model: spirv.ModelTessellationEvaluation, Modes: []spvgen.Mode{
			spvgen.M(spirv.ModeIsolines),
			spvgen.M(spirv.ModeVertexOrderCw),
			spvgen.M(spirv.ModeSpacingFractionalOdd),
			spvgen.M(spirv.ModePointMode),
		}},
	)
	m, err := spirv.Parse(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.EntryPoints) != 2 {
		t.Fatalf("got %d entry points, want 2", len(m.EntryPoints))
	}
	if !m.HasCapability(spirv.CapabilityTessellation) {
		t.Error("Tessellation capability not reported")
	}

	tcs, ok := m.EntryPoint("tcs", stage.TessellationControl)
	if !ok {
		t.Fatal("tcs entry point not found")
	}
	if tcs.Modes.Subdivision != spirv.SubdivisionQuads || tcs.Modes.OutputVertices != 4 || !tcs.Modes.HasOutputVertices() {
		t.Errorf("tcs modes = %+v", tcs.Modes)
	}

	tes, ok := m.EntryPoint("tes", stage.TessellationEvaluation)
	if !ok {
		t.Fatal("tes entry point not found")
	}
	want := spirv.Modes{
		Subdivision: spirv.SubdivisionIsolines,
		Orientation: spirv.OrientationCw,
		Spacing:     spirv.SpacingFractionalOdd,
		PointMode:   true,
		Raw: []spirv.ExecutionMode{
			spirv.ModeIsolines, spirv.ModeVertexOrderCw, spirv.ModeSpacingFractionalOdd, spirv.ModePointMode,
		},
	}
	if diff := cmp.Diff(want, tes.Modes); diff != "" {
		t.Errorf("tes modes mismatch (-want +got):\n%s", diff)
	}
	if tes.Modes.HasOutputVertices() {
		t.Error("tes should not declare OutputVertices")
	}

	if _, ok := m.EntryPoint("tes", stage.TessellationControl); ok {
		t.Error("lookup must match the stage as well as the name")
	}
}

func TestParseMeshModels(t *testing.T) {
	code := spvgen.Build(
		spvgen.Entry{Name: "main", Model: spirv.ModelTaskEXT},
		spvgen.Entry{Name: "main", Model: spirv.ModelMeshEXT},
	)
	m, err := spirv.Parse(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for _, st := range []stage.Stage{stage.Task, stage.Mesh} {
		if _, ok := m.EntryPoint("main", st); !ok {
			t.Errorf("no main entry point for %s", st)
		}
	}
}

func TestParseBigEndian(t *testing.T) {
	le := spvgen.Single(spirv.ModelFragment)
	be := make([]byte, len(le))
	for i := 0; i < len(le); i += 4 {
		binary.BigEndian.PutUint32(be[i:], binary.LittleEndian.Uint32(le[i:]))
	}
	m, err := spirv.Parse(be)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := m.EntryPoint("main", stage.Fragment); !ok {
		t.Error("fragment entry point not found in big-endian module")
	}
}

func TestParseErrors(t *testing.T) {
	valid := spvgen.Single(spirv.ModelVertex)

	tests := []struct {
		name      string
		code      []byte
		wantMagic bool
	}{
		{"empty", nil, false},
		{"unaligned", valid[:len(valid)-1], false},
		{"bad magic", append([]byte{1, 2, 3, 4}, valid[4:]...), true},
		{"truncated header", valid[:12], false},
		{"overrun", append(append([]byte(nil), valid...), 0x00, 0x00, 0x05, 0x00), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := spirv.Parse(tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, spirv.ErrInvalidMagic); got != tt.wantMagic {
				t.Errorf("errors.Is(ErrInvalidMagic) = %v, want %v (err: %v)", got, tt.wantMagic, err)
			}
			var pe *spirv.ParseError
			if !tt.wantMagic && !errors.As(err, &pe) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestParseZeroWordCount(t *testing.T) {
	words := []uint32{spirv.MagicNumber, 0x00010300, 0, 1, 0, 0}
	_, err := spirv.ParseWords(words)
	var pe *spirv.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Word != 5 {
		t.Errorf("error word = %d, want 5", pe.Word)
	}
}

func TestModelStage(t *testing.T) {
	tests := []struct {
		model spirv.ExecutionModel
		want  stage.Stage
		ok    bool
	}{
		{spirv.ModelVertex, stage.Vertex, true},
		{spirv.ModelGLCompute, stage.Compute, true},
		{spirv.ModelTaskNV, stage.Task, true},
		{spirv.ModelMeshEXT, stage.Mesh, true},
		{spirv.ModelCallable, stage.Callable, true},
		{spirv.ModelKernel, 0, false},
	}
	for _, tt := range tests {
		got, ok := spirv.ModelStage(tt.model)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ModelStage(%v) = %v, %v; want %v, %v", tt.model, got, ok, tt.want, tt.ok)
		}
	}
}

func TestProvider(t *testing.T) {
	var p spirv.Provider
	code := spvgen.Single(spirv.ModelTessellationEvaluation, spvgen.M(spirv.ModeTriangles))

	ep, err := p.EntryPoint(code, "main", stage.TessellationEvaluation)
	if err != nil {
		t.Fatalf("EntryPoint failed: %v", err)
	}
	if ep.Modes.Subdivision != spirv.SubdivisionTriangles {
		t.Errorf("subdivision = %v, want triangles", ep.Modes.Subdivision)
	}

	if _, err := p.EntryPoint(code, "other", stage.TessellationEvaluation); !errors.Is(err, spirv.ErrEntryPointNotFound) {
		t.Errorf("missing name: got %v, want ErrEntryPointNotFound", err)
	}
	if _, err := p.EntryPoint([]byte{0, 0, 0, 0, 0, 0, 0, 0}, "main", stage.Vertex); !errors.Is(err, spirv.ErrInvalidMagic) {
		t.Errorf("garbage: got %v, want ErrInvalidMagic", err)
	}
}

func TestStrings(t *testing.T) {
	if got := spirv.ModelTessellationControl.String(); got != "TessellationControl" {
		t.Errorf("model String() = %q", got)
	}
	if got := spirv.ExecutionMode(9999).String(); got != "9999" {
		t.Errorf("unknown mode String() = %q", got)
	}
	if got := spirv.SpacingFractionalEven.String(); got != "fractional_even" {
		t.Errorf("spacing String() = %q", got)
	}
}

func TestParseExecutionMode(t *testing.T) {
	tests := []struct {
		in   string
		want spirv.ExecutionMode
		ok   bool
	}{
		{"vertex_order_ccw", spirv.ModeVertexOrderCcw, true},
		{"Triangles", spirv.ModeTriangles, true},
		{"spacing_fractional_odd", spirv.ModeSpacingFractionalOdd, true},
		{"output_vertices", spirv.ModeOutputVertices, true},
		{"spiral", 0, false},
	}
	for _, tt := range tests {
		got, ok := spirv.ParseExecutionMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseExecutionMode(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStageModel(t *testing.T) {
	for _, st := range []stage.Stage{stage.Vertex, stage.TessellationEvaluation, stage.Compute, stage.Task, stage.Mesh, stage.Miss} {
		m, ok := spirv.StageModel(st)
		if !ok {
			t.Errorf("StageModel(%v) not found", st)
			continue
		}
		if back, _ := spirv.ModelStage(m); back != st {
			t.Errorf("StageModel(%v) = %v, which maps back to %v", st, m, back)
		}
	}
	if _, ok := spirv.StageModel(stage.AllGraphics); ok {
		t.Error("aggregate stage has an execution model")
	}
}
