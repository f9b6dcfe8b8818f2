package stage

import (
	"testing"

	"github.com/gogpu/shaderobj/caps"
)

func TestTableComplete(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < Count; i++ {
		s := Stage(i)
		if table[i].name == "" {
			t.Errorf("stage %d has no table row", i)
			continue
		}
		if seen[s.String()] {
			t.Errorf("duplicate stage name %q", s.String())
		}
		seen[s.String()] = true
		if table[i].vkBit == 0 {
			t.Errorf("stage %s has no API bit", s)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for i := 0; i < Count; i++ {
		s := Stage(i)
		got, ok := Parse(s.String())
		if !ok || got != s {
			t.Errorf("Parse(%q) = %v, %v; want %v, true", s.String(), got, ok, s)
		}
	}
	if _, ok := Parse("pixel"); ok {
		t.Error("Parse(\"pixel\") succeeded, want failure")
	}
}

func TestNextInOrder(t *testing.T) {
	tests := []struct {
		in     Stage
		want   Stage
		wantOK bool
	}{
		{Vertex, TessellationControl, true},
		{TessellationControl, TessellationEvaluation, true},
		{TessellationEvaluation, Geometry, true},
		{Geometry, Fragment, true},
		{Fragment, 0, false},
		{Task, Mesh, true},
		{Mesh, Fragment, true},
		{Compute, 0, false},
		{RayGen, 0, false},
		{AllGraphics, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got, ok := NextInOrder(tt.in)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("NextInOrder(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNextPresent(t *testing.T) {
	tests := []struct {
		name    string
		in      Stage
		present Set
		want    Stage
		wantOK  bool
	}{
		{"skips absent tessellation", Vertex, SetOf(Vertex, Geometry, Fragment), Geometry, true},
		{"adjacent", TessellationControl, SetOf(TessellationControl, TessellationEvaluation), TessellationEvaluation, true},
		{"nothing after", TessellationEvaluation, SetOf(TessellationControl, TessellationEvaluation), 0, false},
		{"mesh chain skips task", Task, SetOf(Task, Fragment), Fragment, true},
		{"vertex does not see mesh", Vertex, SetOf(Vertex, Mesh), 0, false},
		{"compute outside chains", Compute, SetOf(Compute, Fragment), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextPresent(tt.in, tt.present)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("NextPresent(%v, %v) = %v, %v; want %v, %v", tt.in, tt.present, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAllowedNext(t *testing.T) {
	if !SetOf(TessellationEvaluation).IsSubsetOf(TessellationControl.AllowedNext()) {
		t.Error("tessellation control must allow tessellation evaluation")
	}
	if !Fragment.AllowedNext().Empty() || !Compute.AllowedNext().Empty() {
		t.Error("fragment and compute must not allow a next stage")
	}
	if SetOf(Fragment).IsSubsetOf(Task.AllowedNext()) {
		t.Error("task must only allow mesh")
	}
}

func TestStageProperties(t *testing.T) {
	if Compute.BindPoint() != BindPointCompute || Mesh.BindPoint() != BindPointGraphics {
		t.Error("unexpected bind point")
	}
	if Compute.Queue() != caps.QueueCompute || Task.Queue() != caps.QueueGraphics {
		t.Error("unexpected queue requirement")
	}
	if Geometry.Requires() != caps.FeatureGeometryShader || Vertex.Requires() != caps.FeatureNone {
		t.Error("unexpected capability requirement")
	}
	if AllGraphics.IsShader() || RayGen.IsShader() || !Mesh.IsShader() {
		t.Error("unexpected shader classification")
	}
	if Fragment.Chain() != ChainGraphics || Task.Chain() != ChainMesh || Compute.Chain() != ChainNone {
		t.Error("unexpected chain")
	}
}

func TestSetString(t *testing.T) {
	if got := SetOf(Fragment, Vertex).String(); got != "vertex|fragment" {
		t.Errorf("String() = %q, want %q", got, "vertex|fragment")
	}
	if got := Set(0).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
}
