package ai

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/freeeve/squad-tactics/pkg/battle"
)

// Mode is a unit's behavior state. It persists across turns.
type Mode int

const (
	ModePatrol Mode = iota
	ModeAmbush
	ModeCombat
	ModeEscape
)

func (m Mode) String() string {
	switch m {
	case ModePatrol:
		return "patrol"
	case ModeAmbush:
		return "ambush"
	case ModeCombat:
		return "combat"
	case ModeEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// ParseMode converts a persisted mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "patrol":
		return ModePatrol, nil
	case "ambush":
		return ModeAmbush, nil
	case "combat":
		return ModeCombat, nil
	case "escape":
		return ModeEscape, nil
	}
	return ModePatrol, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// oddsInput is everything the mode lottery weighs.
type oddsInput struct {
	Mode           Mode
	Health         int
	MaxHealth      int
	TU             int
	MaxTU          int
	Hostile        bool
	Charging       bool
	Melee          bool
	Aggression     int
	Visible        int
	Spotting       int
	ClosestDist    int
	AmbushTUs      int
	EscapeFeasible bool
	HasAttack      bool
	Env            ModeEnv
}

// modeOdds computes the four lottery weights. It draws no random numbers.
func modeOdds(in oddsInput, t *Tuning, l zerolog.Logger) ModeOdds {
	o := t.BaseOdds
	if in.Visible > 0 {
		o.Patrol = t.PatrolWithVisible
	}
	if in.Melee {
		o.Escape = t.EscapeMelee
	}
	if in.Hostile && (in.TU > in.MaxTU/2 || in.Charging) {
		o.Escape = t.EscapeFresh
	}
	if in.Spotting > 0 {
		o.Patrol = 0
	}

	if in.AmbushTUs == 0 {
		o.Ambush = 0
	}
	if !in.EscapeFeasible {
		o.Escape = 0
	}

	for _, h := range t.HealthTiers {
		if in.Health*h.Den < in.MaxHealth*h.Num {
			o.Escape *= h.Escape
			o.Combat *= h.Combat
			o.Ambush *= h.Ambush
		}
	}

	switch in.Mode {
	case ModePatrol:
		o.Patrol *= t.Inertia
	case ModeAmbush:
		o.Ambush *= t.Inertia
	case ModeCombat:
		o.Combat *= t.Inertia
		o.Ambush *= t.CombatAmbush
	case ModeEscape:
		o.Escape *= t.Inertia
	}

	if in.Aggression < len(t.AggressionTiers) {
		a := t.AggressionTiers[in.Aggression]
		o.Patrol *= a.Patrol
		o.Ambush *= a.Ambush
		o.Combat *= a.Combat
		o.Escape *= a.Escape
	} else {
		agg := float64(in.Aggression) / 10
		o.Combat *= clamp(1.2+agg, 0.1, 2)
		o.Escape *= clamp(0.9-agg, 0.1, 2)
	}

	if in.Spotting > 0 {
		o.Escape = 10 * o.Escape * float64(in.Spotting+10) / 100
		o.Combat = 5 * o.Combat * float64(in.Spotting+20) / 100
	} else {
		o.Escape /= 2
	}
	if in.Visible > 0 {
		o.Combat = 10 * o.Combat * float64(in.Visible+10) / 100
		if in.ClosestDist < t.AmbushMinDist {
			o.Ambush = 0
		}
	}
	o.Ambush *= t.AmbushReady

	o = applyDoctrine(t.Doctrine, in.Env, o, l)

	if !in.HasAttack {
		o.Combat = 0
		o.Ambush = 0
	}
	return o
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (m *Module) oddsInput(d *decision) oddsInput {
	u := m.unit
	return oddsInput{
		Mode:           m.mode,
		Health:         u.Health,
		MaxHealth:      u.Stats.Health,
		TU:             u.TU,
		MaxTU:          u.Stats.TU,
		Hostile:        u.Faction == battle.FactionHostile,
		Charging:       m.charging != nil,
		Melee:          d.melee,
		Aggression:     m.policy.Aggression,
		Visible:        d.visible,
		Spotting:       d.spotting,
		ClosestDist:    d.closestDist,
		AmbushTUs:      m.ambushTUs,
		EscapeFeasible: m.escape.Type == battle.ActionWalk,
		HasAttack:      d.hasAttack(),
		Env:            m.modeEnv(d),
	}
}

func (m *Module) modeEnv(d *decision) ModeEnv {
	u := m.unit
	return ModeEnv{
		Mission:    m.bc.Mission(),
		Turn:       m.bc.Turn(),
		Mode:       m.mode.String(),
		Health:     u.Health,
		MaxHealth:  u.Stats.Health,
		Morale:     u.Morale,
		Aggression: m.policy.Aggression,
		Known:      d.known,
		Visible:    d.visible,
		Spotting:   d.spotting,
		Large:      u.Large(),
	}
}

// shouldEvaluate decides whether this call re-runs the mode lottery.
func (m *Module) shouldEvaluate(d *decision) bool {
	evaluate := false
	switch m.mode {
	case ModeEscape:
		evaluate = d.spotting == 0 || d.known == 0
	case ModePatrol:
		evaluate = d.spotting > 0 || d.visible > 0 || d.known > 0 || m.rng.Percent(m.tuning.PatrolRethinkPct)
	case ModeAmbush:
		evaluate = !d.rifle || m.ambushTUs == 0 || d.visible > 0
	case ModeCombat:
		evaluate = m.attack.Type == battle.ActionRethink
	}

	u := m.unit
	if d.spotting > 2 || u.Health*3 < 2*u.Stats.Health {
		evaluate = true
	}
	if m.aggro != nil && m.aggro.TurnsSinceSpotted(u.Faction) > m.policy.Intelligence {
		evaluate = true
	}
	if m.bc.Cheating() && m.mode != ModeCombat {
		evaluate = true
	}
	if m.weaponPickedUp {
		evaluate = true
		m.weaponPickedUp = false
	}
	return evaluate
}

// evaluateMode draws a new mode and then walks the fallback chain until the
// mode has an executable proposal.
func (m *Module) evaluateMode(d *decision) {
	if m.charging != nil && m.attack.Type != battle.ActionRethink {
		m.mode = ModeCombat
		return
	}
	if m.escapeTUs == 0 {
		m.setupEscape(d)
	}

	odds := modeOdds(m.oddsInput(d), m.tuning, m.log)
	draw := float64(m.rng.Generate(1, max(1, int(math.Round(odds.Sum())))))
	switch {
	case draw <= odds.Escape:
		m.mode = ModeEscape
	case draw <= odds.Escape+odds.Ambush:
		m.mode = ModeAmbush
	case draw <= odds.Escape+odds.Ambush+odds.Combat:
		m.mode = ModeCombat
	default:
		m.mode = ModePatrol
	}
	m.trace().
		Float64("patrol", odds.Patrol).Float64("ambush", odds.Ambush).
		Float64("combat", odds.Combat).Float64("escape", odds.Escape).
		Float64("draw", draw).Str("mode", m.mode.String()).
		Msg("mode lottery")

	if (m.unit.Faction == battle.FactionHostile && m.bc.Cheating()) || m.charging != nil {
		m.mode = ModeCombat
	}
	m.enforceMode(d)
}

// enforceMode degrades Combat to Patrol to Ambush to Escape until the mode
// has something to do.
func (m *Module) enforceMode(d *decision) {
	if m.mode == ModeCombat {
		if m.attack.Type != battle.ActionRethink && m.attack.Type != battle.ActionNone {
			return
		}
		if m.aggro == nil {
			m.selectRandomTarget(d)
		}
		if m.aggro != nil && m.findFirePoint(d) {
			return
		}
		m.mode = ModePatrol
	}
	if m.mode == ModePatrol {
		if m.patrol.Type != battle.ActionRethink && m.patrol.Type != battle.ActionNone {
			return
		}
		m.mode = ModeAmbush
	}
	if m.mode == ModeAmbush {
		if m.ambushTUs != 0 {
			return
		}
		m.mode = ModeEscape
	}
}
