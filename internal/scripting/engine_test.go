package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func writeScript(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuiltinSoulYield(t *testing.T) {
	e := newTestEngine(t, "")
	tests := []struct {
		faith, age float64
		want       int64
	}{
		{50, 70, 13},
		{0, 0, 5},
		{100, 19, 15},
	}
	for _, tt := range tests {
		if got := e.SoulYield(tt.faith, tt.age); got != tt.want {
			t.Errorf("SoulYield(%v, %v) = %d, want %d", tt.faith, tt.age, got, tt.want)
		}
		if got := fallbackSoulYield(tt.faith, tt.age); got != tt.want {
			t.Errorf("fallbackSoulYield(%v, %v) = %d, want %d", tt.faith, tt.age, got, tt.want)
		}
	}
}

func TestBuiltinDisasterDamage(t *testing.T) {
	e := newTestEngine(t, "")
	tests := []struct {
		distance, radius, intensity float64
		want                        float64
	}{
		{0, 4, 1, 20},
		{2, 4, 1, 10},
		{2, 4, 2, 20},
		{4, 4, 1, 0},
		{1, 0, 1, 0},
	}
	for _, tt := range tests {
		if got := e.DisasterDamage(tt.distance, tt.radius, tt.intensity); got != tt.want {
			t.Errorf("DisasterDamage(%v, %v, %v) = %v, want %v", tt.distance, tt.radius, tt.intensity, got, tt.want)
		}
	}
}

func TestScriptsDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "yield.lua", `function calc_soul_yield(ctx) return ctx.faith * 2 end`)
	writeScript(t, dir, "notes.txt", `this is not lua`)

	e := newTestEngine(t, dir)
	if got := e.SoulYield(21, 0); got != 42 {
		t.Fatalf("SoulYield = %d, want 42", got)
	}
	if got := e.DisasterDamage(0, 4, 1); got != 20 {
		t.Fatalf("untouched builtin DisasterDamage = %v, want 20", got)
	}
}

func TestMissingScriptsDirIsIgnored(t *testing.T) {
	newTestEngine(t, filepath.Join(t.TempDir(), "absent"))
}

func TestSyntaxErrorFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", `function calc_soul_yield(ctx) return end end`)
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatal("expected load error")
	}
}

func TestRuntimeErrorFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.lua", `
function calc_soul_yield(ctx) error("boom") end
function calc_disaster_damage(ctx) return "lots" end
`)
	e := newTestEngine(t, dir)
	if got := e.SoulYield(50, 70); got != 13 {
		t.Fatalf("SoulYield after error = %d, want fallback 13", got)
	}
	if got := e.DisasterDamage(2, 4, 1); got != 10 {
		t.Fatalf("DisasterDamage with bad return = %v, want fallback 10", got)
	}
}
