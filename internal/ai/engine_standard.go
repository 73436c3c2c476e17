package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// standardEngine searches small neighbourhoods around the unit and lets the
// mode lottery pick which cached proposal to act on.
type standardEngine struct{}

func (standardEngine) Name() string { return EngineStandard }

func (standardEngine) Think(m *Module, a *battle.Action) {
	d := m.prepare()

	if m.policy.Reckless && m.recklessCharge(d, a) {
		return
	}

	if d.spotting > 0 && m.escapeTUs == 0 {
		m.setupEscape(d)
	}
	if d.known > 0 && !d.melee && m.ambushTUs == 0 {
		m.setupAmbush(d)
	}
	m.setupAttack(d)
	m.setupPatrol(d)

	if m.psi.Type != battle.ActionNone && !m.didPsi {
		m.didPsi = true
		m.psi.apply(a)
		return
	}

	if m.shouldEvaluate(d) {
		m.evaluateMode(d)
	}
	m.dispatch(d, a)
}

// recklessCharge sends a melee unit straight at the nearest enemy, skipping
// the mode lottery.
func (m *Module) recklessCharge(d *decision, a *battle.Action) bool {
	if !d.melee || d.known == 0 {
		return false
	}
	m.attack.reset()
	m.attack.Type = battle.ActionRethink
	m.meleeAction(d)
	if m.attack.Type != battle.ActionWalk && m.attack.Type != battle.ActionHit {
		return false
	}
	m.mode = ModeCombat
	m.dispatch(d, a)
	return true
}
