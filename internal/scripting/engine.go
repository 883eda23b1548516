package scripting

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed lua/*.lua
var builtin embed.FS

// Engine wraps a single gopher-lua VM holding the town's tunable formulas.
// Calls are serialized; a failing script logs and falls back to the
// compiled-in formula.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads the built-in formulas, then every .lua file in
// scriptsDir (if set) so local scripts can redefine them.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadBuiltin(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadBuiltin() error {
	names, err := fs.Glob(builtin, "lua/*.lua")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		src, err := builtin.ReadFile(name)
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", path.Base(name), err)
		}
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", p))
	}
	return nil
}

// SoulYield calls calc_soul_yield for a harvested resident.
func (e *Engine) SoulYield(faith, age float64) int64 {
	v, ok := e.callNumber("calc_soul_yield", map[string]float64{
		"faith": faith,
		"age":   age,
	})
	if !ok {
		return fallbackSoulYield(faith, age)
	}
	return int64(v)
}

// DisasterDamage calls calc_disaster_damage: durability lost per second by a
// building distance cells from a hazard's centre.
func (e *Engine) DisasterDamage(distance, radius, intensity float64) float64 {
	v, ok := e.callNumber("calc_disaster_damage", map[string]float64{
		"distance":  distance,
		"radius":    radius,
		"intensity": intensity,
	})
	if !ok {
		return fallbackDisasterDamage(distance, radius, intensity)
	}
	return v
}

// callNumber calls a global Lua function with a context table built from
// fields and reads back a single number.
func (e *Engine) callNumber(name string, fields map[string]float64) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0, false
	}

	arg := e.vm.NewTable()
	for k, v := range fields {
		arg.RawSetString(k, lua.LNumber(v))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number",
			zap.String("func", name), zap.String("type", result.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}

func fallbackSoulYield(faith, age float64) int64 {
	return 5 + int64(faith/10) + int64(age/20)
}

func fallbackDisasterDamage(distance, radius, intensity float64) float64 {
	if radius <= 0 || distance >= radius {
		return 0
	}
	return 20 * intensity * (1 - distance/radius)
}
