package ai

import (
	"fmt"

	"github.com/freeeve/squad-tactics/pkg/battle"
)

// Engine names accepted by EngineFor.
const (
	EngineStandard = "standard"
	EngineBrutal   = "brutal"
)

// Engine orchestrates the shared scorers into one action per call.
type Engine interface {
	Name() string
	Think(m *Module, a *battle.Action)
}

// EngineFor returns the orchestration engine for a name. An empty name
// selects the standard engine.
func EngineFor(name string) (Engine, error) {
	switch name {
	case "", EngineStandard:
		return standardEngine{}, nil
	case EngineBrutal:
		return brutalEngine{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// dispatch copies the current mode's proposal into a and applies the
// mode's flags.
func (m *Module) dispatch(d *decision, a *battle.Action) {
	u := m.unit
	switch m.mode {
	case ModeEscape:
		m.escape.apply(a)
		a.FinalAction = true
		a.Desperate = true
		a.Run = u.CanRun
		if a.Type == battle.ActionWalk {
			m.lastCover = a.Target
		}
	case ModeAmbush:
		m.ambush.apply(a)
		a.FinalAction = true
	case ModeCombat:
		m.attack.apply(a)
		if a.Type == battle.ActionAimedShot && u.CanKneel && !u.Kneeling && d.spotting == 0 {
			a.Kneel = true
		}
	case ModePatrol:
		m.patrol.apply(a)
		a.Run = false
	}

	if a.Type == battle.ActionRethink {
		m.log.Debug().Str("mode", m.mode.String()).Msg("no viable action, ending turn")
		a.Type = battle.ActionNone
		a.FinalAction = true
	}
	if a.Type == battle.ActionWalk {
		if a.Target == u.Pos {
			a.Type = battle.ActionNone
			if a.FinalFacing != -1 && a.FinalFacing != u.Direction {
				a.Type = battle.ActionTurn
				a.Target = u.Pos.Step(a.FinalFacing)
			}
		} else {
			m.escapeTUs = 0
			m.ambushTUs = 0
		}
	}
	if a.Type == battle.ActionNone {
		a.Weapon = nil
		a.TargetUnit = nil
	}
}
