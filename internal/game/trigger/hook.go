package trigger

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emberfall/skirmish/internal/scripting"
)

// Hook lets a campaign script adjust trigger decisions. The script defines
//
//	function on_combat_trigger(event)
//	  -- event = { kind, reason, start, surprised }
//	  return { start = ..., reason = ..., surprised = ... }
//	end
//
// Returning nil, or any runtime failure, leaves the evaluator's decision in
// force; a script can only ever adjust, never break, the engine.
type Hook struct {
	source string
	logger *zap.Logger
}

// LoadHook reads a hook script from path. The script is validated by running
// it once in a fresh sandbox.
func LoadHook(path string, logger *zap.Logger) (*Hook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trigger hook %s: %w", path, err)
	}
	h := &Hook{source: string(data), logger: logger}
	L := scripting.NewSandboxedState(0)
	defer L.Close()
	if err := L.DoString(h.source); err != nil {
		return nil, fmt.Errorf("load trigger hook %s: %w", path, err)
	}
	return h, nil
}

// NewHookFromSource builds a hook from inline Lua source.
func NewHookFromSource(source string, logger *zap.Logger) *Hook {
	return &Hook{source: source, logger: logger}
}

// Apply runs the hook over a decision. kind names the evaluator that produced
// it ("exploration", "interaction", "player-action").
func (h *Hook) Apply(kind string, d Decision) Decision {
	L := scripting.NewSandboxedState(0)
	defer L.Close()

	if err := L.DoString(h.source); err != nil {
		h.logger.Warn("trigger hook failed to load, keeping decision", zap.Error(err))
		return d
	}
	fn := L.GetGlobal("on_combat_trigger")
	if fn == lua.LNil {
		return d
	}

	event := L.NewTable()
	L.SetField(event, "kind", lua.LString(kind))
	L.SetField(event, "reason", lua.LString(d.Reason))
	L.SetField(event, "start", lua.LBool(d.Start))
	L.SetField(event, "surprised", lua.LString(string(d.SurprisedSide)))

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, event); err != nil {
		h.logger.Warn("trigger hook errored, keeping decision",
			zap.String("kind", kind), zap.Error(err))
		return d
	}
	ret := L.Get(-1)
	L.Pop(1)

	table, ok := ret.(*lua.LTable)
	if !ok {
		return d
	}
	out := d
	if v := L.GetField(table, "start"); v != lua.LNil {
		out.Start = lua.LVAsBool(v)
	}
	if v := L.GetField(table, "reason"); v != lua.LNil {
		out.Reason = lua.LVAsString(v)
	}
	if v := L.GetField(table, "surprised"); v != lua.LNil {
		switch Side(lua.LVAsString(v)) {
		case SideNone, SideParty, SideEnemies:
			out.SurprisedSide = Side(lua.LVAsString(v))
		default:
			h.logger.Warn("trigger hook returned unknown surprised side, keeping decision",
				zap.String("value", lua.LVAsString(v)))
		}
	}
	return out
}
