package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{At("vkCmdDraw"), "vkCmdDraw()"},
		{At("vkCreateShadersEXT").Index("pCreateInfos", 2).Field("stage"), "vkCreateShadersEXT(): pCreateInfos[2].stage"},
		{At("vkCmdBindShadersEXT").Index("pStages", 0), "vkCmdBindShadersEXT(): pStages[0]"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLocationIsValue(t *testing.T) {
	base := At("vkCreateShadersEXT").Index("pCreateInfos", 0)
	_ = base.Field("stage")
	if got := base.String(); got != "vkCreateShadersEXT(): pCreateInfos[0]" {
		t.Errorf("Field mutated the receiver: %q", got)
	}
}

func TestViolationError(t *testing.T) {
	v := New("VUID-x-01", CategoryStructural, At("vkCmdDraw"), "has %d problems", 2).WithIndices(1, 3)
	want := "VUID-x-01: vkCmdDraw() has 2 problems"
	if got := v.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]int{1, 3}, v.Indices); diff != "" {
		t.Errorf("Indices mismatch (-want +got):\n%s", diff)
	}
}

func TestIDsAndFilter(t *testing.T) {
	vs := []Violation{
		{ID: "a", Category: CategoryState},
		{ID: "b", Category: CategoryCrossShader},
		{ID: "c", Category: CategoryState},
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, IDs(vs)); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, IDs(Filter(vs, CategoryState))); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
	if IDs(nil) != nil {
		t.Error("IDs(nil) should be nil")
	}
}

func TestCollectorConcurrent(t *testing.T) {
	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Report(Violation{ID: "x"})
			}
		}()
	}
	wg.Wait()
	if got := len(c.Violations()); got != 800 {
		t.Errorf("collected %d violations, want 800", got)
	}
	c.Reset()
	if got := len(c.Violations()); got != 0 {
		t.Errorf("collected %d violations after Reset, want 0", got)
	}
}

func TestLimiter(t *testing.T) {
	var c Collector
	l := NewLimiter(&c, LimiterOptions{DuplicateLimit: 2, Filter: []string{"muted"}})
	for _, id := range []string{"a", "a", "a", "muted", "b"} {
		l.Report(Violation{ID: id})
	}
	if diff := cmp.Diff([]string{"a", "a", "b"}, IDs(c.Violations())); diff != "" {
		t.Errorf("forwarded mismatch (-want +got):\n%s", diff)
	}
	if got := l.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestTee(t *testing.T) {
	var a, b Collector
	Tee(&a, &b, Discard).Report(Violation{ID: "x"})
	if len(a.Violations()) != 1 || len(b.Violations()) != 1 {
		t.Error("Tee did not forward to every sink")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	s := NewLogSink(l)
	s.Report(New("VUID-vkCmdDraw-None-08684", CategoryState, At("vkCmdDraw"), "vertex stage unbound").
		WithObjects(Object{Kind: ObjectCommandBuffer, Handle: 7}))
	out := buf.String()
	for _, want := range []string{"vuid=VUID-vkCmdDraw-None-08684", "category=state", "vertex stage unbound", "0x7"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}

	buf.Reset()
	s.WithLevel(slog.LevelDebug).Report(Violation{ID: "quiet"})
	if buf.Len() != 0 {
		t.Errorf("debug record written by info handler: %s", buf.String())
	}
}
