package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

var psiAttacks = []battle.ActionType{battle.ActionUse, battle.ActionPanic, battle.ActionMindControl}

// psiStrength estimates how far an attack beats the victim's defence.
// Negative values mean a poor chance.
func (m *Module) psiStrength(victim *battle.Unit) int {
	s := m.unit.Stats
	attack := float64(s.PsiStrength*s.PsiSkill) / 50
	attack -= 0.4 * float64(victim.Stats.PsiSkill)
	attack -= float64(battle.Distance2D(m.unit.Pos, victim.Pos))
	attack -= float64(victim.Stats.PsiStrength)
	attack += float64(m.rng.Generate(55, 105))
	return int(attack)
}

// controlOdds is the chance a victim's will breaks under mind control.
func controlOdds(victim *battle.Unit) int {
	odds := 40
	bravery := victim.Stats.Bravery / 10
	if bravery > 6 {
		odds -= 15
	}
	if bravery < 4 {
		odds += 15
	}
	if victim.Morale >= 40 {
		if victim.Morale-10*bravery < 50 {
			odds -= 15
		}
	} else {
		odds += 15
	}
	if victim.Morale == 0 {
		odds = 100
	}
	return odds
}

// psiAction picks the best psionic attack on a known enemy. It clears the
// aggro target before searching and sets it only when an attack is chosen.
func (m *Module) psiAction(d *decision) bool {
	amp := d.psiWeapon
	if amp == nil {
		return false
	}
	m.psi.reset()

	var feasible []battle.ActionType
	tus := make(map[battle.ActionType]int)
	for _, a := range psiAttacks {
		pct := amp.CostPercent(a)
		if pct <= 0 {
			continue
		}
		tu, _ := m.costOf(a, amp)
		tu += m.escapeTUs
		if tu <= m.unit.TU && amp.ManaCost(a) <= m.unit.Mana {
			feasible = append(feasible, a)
			tus[a] = tu
		}
	}
	m.aggro = nil
	if len(feasible) == 0 || m.didPsi || m.unit.Faction != m.unit.OriginalFaction {
		return false
	}

	bestWeight := 0
	best := battle.ActionNone
	var victim *battle.Unit
	for _, t := range m.bc.Units() {
		if t.Large() || !m.validTarget(t, true, false) || t.OriginalFaction != m.enemyFaction() {
			continue
		}
		if amp.LOSRequired && !m.bc.Visible(m.unit, t.Pos) {
			continue
		}
		if amp.MaxRange > 0 && battle.Distance2D(m.unit.Pos, t.Pos) > amp.MaxRange {
			continue
		}
		for _, a := range feasible {
			w := m.psiStrength(t)
			if w < 0 {
				continue
			}
			switch a {
			case battle.ActionMindControl:
				if !m.rng.Percent(controlOdds(t)) {
					continue
				}
				w += 60
			case battle.ActionUse:
				radius := max(amp.BlastRadius, 1)
				bonus := m.explosiveEfficacy(t.Pos, m.unit, radius, -1, false).Score
				if bonus <= 0 {
					continue
				}
				w += m.tuning.PsiUseBonus * bonus
			case battle.ActionPanic:
				w += m.tuning.PsiPanicBonus
			}
			m.trace().Int("victim", t.ID).Str("attack", a.String()).Int("weight", w).Msg("psi candidate")
			if w > bestWeight {
				bestWeight = w
				best = a
				victim = t
			}
		}
	}
	if victim == nil {
		return false
	}

	if d.visible > 0 && d.weapon != nil && d.weapon.HasAmmo() {
		if d.weapon.Power >= bestWeight {
			return false
		}
	} else if m.rng.Generate(m.tuning.PsiUnarmedMin, m.tuning.PsiUnarmedMax) >= bestWeight {
		return false
	}

	m.aggro = victim
	m.psi.Type = best
	m.psi.Target = victim.Pos
	m.psi.TargetUnit = victim
	m.psi.Weapon = amp
	m.psi.TU = tus[best] - m.escapeTUs
	return true
}
