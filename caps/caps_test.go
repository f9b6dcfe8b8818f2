package caps

import "testing"

func TestEnabledHas(t *testing.T) {
	e := Enabled{Features: Features{ShaderObject: true, MeshShader: true}}
	tests := []struct {
		f    Feature
		want bool
	}{
		{FeatureNone, true},
		{FeatureShaderObject, true},
		{FeatureMeshShader, true},
		{FeatureTaskShader, false},
		{FeatureTessellationShader, false},
		{Feature(200), false},
	}
	for _, tt := range tests {
		if got := e.Has(tt.f); got != tt.want {
			t.Errorf("Has(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}
	if !e.MeshPipelines() {
		t.Error("MeshPipelines() = false with mesh shading enabled")
	}
}

func TestQueueFlags(t *testing.T) {
	q := QueueGraphics | QueueTransfer
	if !q.Has(QueueGraphics) || q.Has(QueueCompute) {
		t.Errorf("unexpected Has results for %v", q)
	}
	if got := q.String(); got != "graphics|transfer" {
		t.Errorf("String() = %q, want graphics|transfer", got)
	}
	if got := QueueFlags(0).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
}

func TestDefaultLimits(t *testing.T) {
	if DefaultLimits().MaxTessellationPatchSize != 32 {
		t.Error("default patch size limit must be 32")
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Limits
		want uint32
	}{
		{"unset", Limits{}, 32},
		{"explicit", Limits{MaxTessellationPatchSize: 64}, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.WithDefaults().MaxTessellationPatchSize; got != tt.want {
				t.Errorf("MaxTessellationPatchSize = %d, want %d", got, tt.want)
			}
		})
	}
}
