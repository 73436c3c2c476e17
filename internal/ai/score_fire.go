package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// fireAccuracy estimates the hit chance in percent for an action at dist.
func (m *Module) fireAccuracy(w *battle.Weapon, a battle.ActionType, dist int) float64 {
	u := m.unit
	skill := u.Stats.Firing
	if a == battle.ActionHit {
		skill = u.Stats.Melee
	}
	acc := float64(w.BaseAccuracy(a)) * float64(skill) / 100
	if u.Kneeling {
		acc *= 1.15
	}
	if u.OneHanded(w) {
		acc *= 0.8
	}
	if u.Stats.Health > 0 {
		acc *= (1 + float64(u.Health)/float64(u.Stats.Health)) / 2
	}
	if w.MaxRange > 0 && dist > w.MaxRange {
		return 0
	}
	if eff := w.EffectiveRange(a); eff > 0 && dist > eff {
		acc -= float64((dist - eff) * w.Dropoff)
	}
	if w.MinRange > 0 && dist < w.MinRange {
		acc -= float64((w.MinRange - dist) * w.Dropoff)
	}
	return max(acc, 0)
}

// scoreFireMode rates firing a at target from a tile: expected hits per full
// TU bar. Zero when the action is unavailable or the line of fire is blocked.
func (m *Module) scoreFireMode(w *battle.Weapon, a battle.ActionType, from battle.Position, target *battle.Unit) float64 {
	if !w.HasAmmo() || !a.IsShot() {
		return 0
	}
	cost, ok := m.affordable(a, w)
	if !ok || cost <= 0 {
		return 0
	}
	if !m.bc.CanTargetUnit(from, target, m.unit) {
		return 0
	}
	acc := m.fireAccuracy(w, a, battle.Distance2D(from, target.Pos))
	return acc * float64(w.Shots(a)) * float64(m.unit.Stats.TU) / float64(cost)
}

// fireOrder returns the fire modes to try for a distance band.
func (m *Module) fireOrder(dist int) []battle.ActionType {
	switch {
	case dist < m.tuning.FireBandNear:
		return []battle.ActionType{battle.ActionAutoShot, battle.ActionSnapShot, battle.ActionAimedShot}
	case dist > m.tuning.FireBandFar:
		return []battle.ActionType{battle.ActionAimedShot, battle.ActionSnapShot, battle.ActionAutoShot}
	default:
		return []battle.ActionType{battle.ActionSnapShot, battle.ActionAimedShot, battle.ActionAutoShot}
	}
}

// chooseFireMethod picks the first affordable fire mode for the range band:
// auto up close, aimed far away, snap in between.
func (m *Module) chooseFireMethod(d *decision, target *battle.Unit) bool {
	m.attack.Type = battle.ActionRethink
	w := d.weapon
	dist := battle.Distance2D(m.unit.Pos, target.Pos)
	for _, a := range m.fireOrder(dist) {
		if m.scoreFireMode(w, a, m.unit.Pos, target) <= 0 {
			continue
		}
		tu, _ := m.affordable(a, w)
		m.attack.Type = a
		m.attack.TU = tu
		m.attack.Weapon = w
		m.attack.Target = target.Pos
		m.attack.TargetUnit = target
		return true
	}
	return false
}

// extendedFireModeChoice scores every fire mode, jittered by missing
// intelligence and with a burst bonus for aggressive units.
func (m *Module) extendedFireModeChoice(w *battle.Weapon, from battle.Position, target *battle.Unit) (battle.ActionType, float64) {
	best := battle.ActionRethink
	bestScore := 0.0
	jitter := (10 - m.policy.Intelligence) * m.tuning.JitterPerMissingIntel
	for _, a := range []battle.ActionType{battle.ActionAutoShot, battle.ActionSnapShot, battle.ActionAimedShot} {
		s := m.scoreFireMode(w, a, from, target)
		if s <= 0 {
			continue
		}
		if a == battle.ActionAutoShot {
			s *= 1 + m.tuning.BurstPerAggression*float64(m.policy.Aggression)
		}
		if jitter > 0 {
			s *= 1 + float64(m.rng.Generate(-jitter, jitter))/100
		}
		if s > bestScore {
			bestScore = s
			best = a
		}
	}
	return best, bestScore
}

// projectileAction aims the wielded firearm at the aggro target. Explosive
// rounds need a worthwhile blast first.
func (m *Module) projectileAction(d *decision) {
	t := m.aggro
	if t == nil || d.weapon == nil {
		return
	}
	if d.weapon.Explosive() {
		if e := m.explosiveEfficacy(t.Pos, m.unit, d.weapon.BlastRadius, -1, false); e.Score <= 0 {
			return
		}
	}
	m.chooseFireMethod(d, t)
}
