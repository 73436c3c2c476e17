package ai

import (
	"errors"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/squad-tactics/internal/logger"
	"github.com/freeeve/squad-tactics/pkg/battle"
)

var (
	ErrUnknownMode   = errors.New("unknown ai mode")
	ErrUnknownEngine = errors.New("unknown ai engine")
)

// proposedAction is one mode's candidate action, cached across calls.
type proposedAction struct {
	Type        battle.ActionType
	Target      battle.Position
	TargetUnit  *battle.Unit
	Weapon      *battle.Weapon
	TU          int
	FinalFacing int
	Waypoints   []battle.Position
	Run         bool
	Kneel       bool
	Score       int
}

func newProposal() proposedAction {
	return proposedAction{Type: battle.ActionNone, Target: battle.NoPosition, FinalFacing: -1}
}

func (p *proposedAction) reset() {
	*p = newProposal()
}

// apply copies the proposal into the outward action record.
func (p *proposedAction) apply(a *battle.Action) {
	a.Type = p.Type
	a.Target = p.Target
	a.TargetUnit = p.TargetUnit
	a.Weapon = p.Weapon
	a.TU = p.TU
	a.FinalFacing = p.FinalFacing
	a.Waypoints = append([]battle.Position(nil), p.Waypoints...)
	a.Run = p.Run
	a.Kneel = p.Kneel
}

// Module is the AI component owned by one unit. It keeps the cross-turn
// state (mode, patrol links, hit memory) plus one cached proposal per mode.
type Module struct {
	unit   *battle.Unit
	bc     battle.Context
	rng    *Rand
	tuning *Tuning
	policy Policy
	log    zerolog.Logger

	mode           Mode
	fromNode       *battle.Node
	toNode         *battle.Node
	wasHitBy       []int
	weaponPickedUp bool

	aggro    *battle.Unit
	charging *battle.Unit

	escape proposedAction
	ambush proposedAction
	attack proposedAction
	patrol proposedAction
	psi    proposedAction

	escapeTUs int
	ambushTUs int
	reserve   battle.ActionType

	didPsi          bool
	waited          bool
	targetsBaseNode bool
	lastCover       battle.Position
}

// NewModule builds the AI component for u. The unit's engine is chosen here
// and never changes afterwards.
func NewModule(u *battle.Unit, bc battle.Context, rng *Rand, tuning *Tuning) (*Module, error) {
	if tuning == nil {
		tuning = DefaultTuning()
	}
	policy, err := PolicyFor(u, tuning)
	if err != nil {
		return nil, err
	}
	m := &Module{
		unit:      u,
		bc:        bc,
		rng:       rng,
		tuning:    tuning,
		policy:    policy,
		log:       logger.ForUnit(log.Logger, u.ID),
		mode:      ModePatrol,
		reserve:   battle.ActionNone,
		lastCover: battle.NoPosition,
		escape:    newProposal(),
		ambush:    newProposal(),
		attack:    newProposal(),
		patrol:    newProposal(),
		psi:       newProposal(),
	}
	return m, nil
}

// SetTuning swaps the weights used from the next call on.
func (m *Module) SetTuning(t *Tuning) {
	if t != nil {
		m.tuning = t
	}
}

// SetLogger replaces the module's logger.
func (m *Module) SetLogger(l zerolog.Logger) {
	m.log = logger.ForUnit(l, m.unit.ID)
}

// Unit returns the owning unit.
func (m *Module) Unit() *battle.Unit { return m.unit }

// Mode returns the current behavior mode.
func (m *Module) Mode() Mode { return m.mode }

// Engine returns the name of the orchestration engine in use.
func (m *Module) Engine() string { return m.policy.Engine.Name() }

// Target returns the enemy currently pursued, or nil.
func (m *Module) Target() *battle.Unit { return m.aggro }

// ReserveMode returns the fire mode whose TU cost the unit keeps back for
// reaction shots.
func (m *Module) ReserveMode() battle.ActionType { return m.reserve }

// RecordHit remembers that attackerID hit this unit this turn.
func (m *Module) RecordHit(attackerID int) {
	if !slices.Contains(m.wasHitBy, attackerID) {
		m.wasHitBy = append(m.wasHitBy, attackerID)
	}
}

// WasHitBy reports whether attackerID hit this unit this turn.
func (m *Module) WasHitBy(attackerID int) bool {
	return slices.Contains(m.wasHitBy, attackerID)
}

// PickedUpWeapon forces a mode re-evaluation on the next call.
func (m *Module) PickedUpWeapon() { m.weaponPickedUp = true }

// NewTurn clears the per-turn state.
func (m *Module) NewTurn() {
	m.wasHitBy = m.wasHitBy[:0]
	m.didPsi = false
	m.waited = false
	m.escapeTUs = 0
	m.ambushTUs = 0
	m.escape.reset()
	m.ambush.reset()
	m.attack.reset()
	m.psi.reset()
}

// Think fills a with the unit's next action. It always emits exactly one
// action; ActionNone ends the unit's activity for now.
func (m *Module) Think(a *battle.Action) {
	a.Reset()
	a.Actor = m.unit
	if m.unit.IsOut() {
		return
	}
	m.policy.Engine.Think(m, a)
	m.log.Debug().
		Str("engine", m.policy.Engine.Name()).
		Str("mode", m.mode.String()).
		Str("action", a.Type.String()).
		Int("x", a.Target.X).Int("y", a.Target.Y).
		Msg("think")
}

// trace returns a debug event when candidate tracing is on, else nil.
// zerolog events are nil-safe, so callers chain on the result directly.
func (m *Module) trace() *zerolog.Event {
	if !m.policy.TraceAI {
		return nil
	}
	return m.log.Debug()
}

func (m *Module) enemyFaction() battle.Faction {
	return targetFactionFor(m.unit.Faction)
}

// knows reports whether the unit is aware of t.
func (m *Module) knows(t *battle.Unit) bool {
	if m.bc.Cheating() && m.unit.Faction == battle.FactionHostile {
		return true
	}
	if slices.Contains(m.wasHitBy, t.ID) {
		return true
	}
	f := m.unit.Faction
	return t.TurnsSinceSpotted(f) <= m.policy.Intelligence || t.TurnsLeftSpottedForSnipers(f) > 0
}

func (m *Module) costOf(a battle.ActionType, w *battle.Weapon) (int, bool) {
	return m.unit.ActionCost(a, w)
}

func (m *Module) affordable(a battle.ActionType, w *battle.Weapon) (int, bool) {
	tu, ok := m.unit.ActionCost(a, w)
	if !ok || tu > m.unit.TU {
		return tu, false
	}
	if mana := w.ManaCost(a); mana > m.unit.Mana {
		return tu, false
	}
	return tu, true
}
