package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shapeflow/shapesim/internal/mathx"
	"github.com/shapeflow/shapesim/internal/spawn"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const adjustSpawnFn = "adjust_spawn"

// Engine wraps a single gopher-lua VM for spawn tuning hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

func newVM() *lua.LState {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return vm
}

// NewEngine creates a Lua engine and loads every .lua file in scriptsDir, in
// name order. A missing directory yields an engine with no hooks.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{vm: newVM(), log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// NewEngineFromSource runs src as the only script.
func NewEngineFromSource(src string, log *zap.Logger) (*Engine, error) {
	e := &Engine{vm: newVM(), log: log}
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	return e, nil
}

func (e *Engine) Close() { e.vm.Close() }

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
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasAdjustSpawn reports whether a script defined adjust_spawn.
func (e *Engine) HasAdjustSpawn() bool {
	return e.vm.GetGlobal(adjustSpawnFn).Type() == lua.LTFunction
}

// AdjustSpawn calls the Lua adjust_spawn(ctx) hook. The script may edit ctx
// in place or return a table of overrides. Without the hook p is unchanged.
func (e *Engine) AdjustSpawn(p *spawn.Params) error {
	fn := e.vm.GetGlobal(adjustSpawnFn)
	if fn.Type() != lua.LTFunction {
		return nil
	}

	t := e.vm.NewTable()
	t.RawSetString("zone", lua.LString(p.Zone))
	t.RawSetString("factory", lua.LNumber(p.Factory))
	t.RawSetString("shape_id", lua.LNumber(p.ShapeID))
	t.RawSetString("material", lua.LNumber(p.Material))
	t.RawSetString("position", e.vec(p.Position))
	t.RawSetString("scale", lua.LNumber(p.Scale))
	t.RawSetString("speed", lua.LNumber(p.Speed))
	t.RawSetString("angular_speed", lua.LNumber(p.AngularSpeed))
	t.RawSetString("oscillation_amplitude", lua.LNumber(p.OscillationAmplitude))
	t.RawSetString("oscillation_frequency", lua.LNumber(p.OscillationFrequency))
	t.RawSetString("satellites", lua.LNumber(p.Satellites))
	t.RawSetString("growing", lua.LNumber(p.Growing))
	t.RawSetString("adult", lua.LNumber(p.Adult))
	t.RawSetString("dying", lua.LNumber(p.Dying))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua adjust_spawn error", zap.Error(err))
		return fmt.Errorf("%s: %w", adjustSpawnFn, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if rt, ok := ret.(*lua.LTable); ok {
		t = rt
	}

	p.Material = int32(getNumber(t, "material", float64(p.Material)))
	p.Position = e.readVec(t.RawGetString("position"), p.Position)
	p.Scale = float32(getNumber(t, "scale", float64(p.Scale)))
	p.Speed = float32(getNumber(t, "speed", float64(p.Speed)))
	p.AngularSpeed = float32(getNumber(t, "angular_speed", float64(p.AngularSpeed)))
	p.OscillationAmplitude = float32(getNumber(t, "oscillation_amplitude", float64(p.OscillationAmplitude)))
	p.OscillationFrequency = float32(getNumber(t, "oscillation_frequency", float64(p.OscillationFrequency)))
	p.Satellites = max(int(getNumber(t, "satellites", float64(p.Satellites))), 0)
	p.Growing = float32(getNumber(t, "growing", float64(p.Growing)))
	p.Adult = float32(getNumber(t, "adult", float64(p.Adult)))
	p.Dying = float32(getNumber(t, "dying", float64(p.Dying)))
	return nil
}

func (e *Engine) vec(v mathx.Vec3) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

func (e *Engine) readVec(lv lua.LValue, def mathx.Vec3) mathx.Vec3 {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return def
	}
	return mathx.Vec3{
		X: float32(getNumber(t, "x", float64(def.X))),
		Y: float32(getNumber(t, "y", float64(def.Y))),
		Z: float32(getNumber(t, "z", float64(def.Z))),
	}
}

// getNumber reads a numeric field, falling back to def when absent or not a
// number.
func getNumber(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}
