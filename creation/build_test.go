package creation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shaderobj/internal/spvgen"
	"github.com/gogpu/shaderobj/object"
	"github.com/gogpu/shaderobj/spirv"
	"github.com/gogpu/shaderobj/stage"
)

func TestBuildLinkedTessellation(t *testing.T) {
	infos := tessPair(spvgen.TessControl(3), spvgen.TessEvalMatching())
	res, err := ValidateBatch(infos, allEnabled(), spirv.Provider{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("unexpected violations: %v", res.Violations)
	}

	shaders, err := Build(infos, []object.Handle{10, 11})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(shaders) != 2 {
		t.Fatalf("got %d shaders, want 2", len(shaders))
	}
	want := [][]object.Peer{
		{{Handle: 11, Stage: stage.TessellationEvaluation}},
		{{Handle: 10, Stage: stage.TessellationControl}},
	}
	for i, s := range shaders {
		if diff := cmp.Diff(want[i], s.Linked); diff != "" {
			t.Errorf("shader %d peers mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestBuildUnlinked(t *testing.T) {
	infos := []object.CreateInfo{
		binary(stage.Vertex, stage.SetOf(stage.Fragment), 0),
		binary(stage.Fragment, 0, 0),
	}
	infos[0].PushConstantRanges = []object.PushConstantRange{{Stages: stage.SetOf(stage.Vertex), Size: 16}}
	infos[0].SetLayouts = []object.LayoutRef{7}

	shaders, err := Build(infos, []object.Handle{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range shaders {
		if len(s.Linked) != 0 {
			t.Errorf("unlinked shader %v has peers %v", s.Handle, s.Linked)
		}
	}

	infos[0].Code[0] = 0
	infos[0].SetLayouts[0] = 8
	if shaders[0].Code[0] != 0xde || shaders[0].SetLayouts[0] != 7 {
		t.Error("Build must copy descriptor slices")
	}
}

func TestBuildHandleCount(t *testing.T) {
	if _, err := Build([]object.CreateInfo{binary(stage.Vertex, 0, 0)}, nil); err == nil {
		t.Error("expected error for missing handles")
	}
}
