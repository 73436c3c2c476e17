package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// flankBias is added to the distance of tiles a dodging target can see.
const flankBias = 2

// selectPointNearTarget finds the nearest reachable tile next to target from
// which the unit can strike it within maxTU. The unit's own tile counts.
func (m *Module) selectPointNearTarget(d *decision, target *battle.Unit, maxTU int) (battle.Position, int, bool) {
	size := max(m.unit.Size, 1)
	tsize := max(target.Size, 1)
	best := battle.NoPosition
	bestCost := 0
	bestDist := -1
	for x := -size; x <= tsize; x++ {
		for y := -size; y <= tsize; y++ {
			if x == 0 && y == 0 {
				continue
			}
			p := target.Pos.Add(battle.Position{X: x, Y: y})
			tile := m.bc.Tile(p)
			if tile == nil || tile.Dangerous || !d.reachable.Contains(p) {
				continue
			}
			if occ := m.bc.UnitAt(p); occ != nil && occ != m.unit {
				continue
			}
			if !m.bc.ValidMeleeRange(m.unit, p, target) {
				continue
			}
			cost := 0
			if p != m.unit.Pos {
				path := m.bc.CalculatePath(m.unit, p, maxTU)
				if !path.Reachable() {
					continue
				}
				cost = path.Cost
			}
			dist := battle.Distance2D(p, m.unit.Pos)
			if target.DodgeChance > 0 && target.CheckViewSector(p) {
				dist += flankBias
			}
			if bestDist < 0 || dist < bestDist {
				best = p
				bestCost = cost
				bestDist = dist
			}
		}
	}
	return best, bestCost, bestDist >= 0
}

// meleeAction strikes the aggro target if adjacent, else charges the
// closest enemy within the TU-derived charge radius.
func (m *Module) meleeAction(d *decision) {
	w := d.meleeWeapon
	hitTU, ok := m.affordable(battle.ActionHit, w)
	if !ok {
		return
	}
	if m.aggro != nil && !m.aggro.IsOut() && m.bc.ValidMeleeRange(m.unit, m.unit.Pos, m.aggro) {
		m.meleeAttack(w, hitTU)
		return
	}

	reserve := m.unit.TU - hitTU
	radius := reserve/4 + 1
	m.aggro = nil
	for _, t := range m.bc.Units() {
		dist := battle.Distance2D(m.unit.Pos, t.Pos)
		if dist > m.tuning.SpotterRange || !m.validTarget(t, true, d.includeCivs) {
			continue
		}
		if dist >= radius && dist != 1 {
			continue
		}
		p, cost, ok := m.selectPointNearTarget(d, t, reserve)
		if !ok {
			continue
		}
		m.aggro = t
		m.charging = t
		m.attack.Type = battle.ActionWalk
		m.attack.Target = p
		m.attack.TargetUnit = t
		m.attack.TU = cost
		m.attack.Run = m.unit.CanRun
		m.attack.Weapon = nil
		radius = dist
	}
	if m.aggro != nil && m.bc.ValidMeleeRange(m.unit, m.unit.Pos, m.aggro) {
		m.meleeAttack(w, hitTU)
	}
}

func (m *Module) meleeAttack(w *battle.Weapon, tu int) {
	m.attack.Type = battle.ActionHit
	m.attack.Weapon = w
	m.attack.Target = m.aggro.Pos
	m.attack.TargetUnit = m.aggro
	m.attack.TU = tu
	m.attack.Run = false
	m.attack.FinalFacing = battle.DirectionTo(m.unit.Pos, m.aggro.Pos)
}

// selectMeleeOrRanged decides which weapon to use when the unit carries
// both, favouring melee for strong blades against a lone target.
func (m *Module) selectMeleeOrRanged(d *decision) {
	melee := d.meleeWeapon
	if melee == nil || melee.Ammo == 0 {
		d.melee = false
		return
	}
	if d.weapon == nil || !d.weapon.HasAmmo() {
		d.rifle = false
		return
	}
	odds := 10
	dmg := melee.Power
	switch {
	case dmg > 50:
		odds += (dmg - 50) / 2
	case dmg < 20:
		odds -= 20 * (20 - dmg)
	}
	if d.visible > 1 {
		odds -= 20 * (d.visible - 1)
	}
	u := m.unit
	if odds > 0 && u.Health >= 2*u.Stats.Health/3 {
		switch agg := m.policy.Aggression; {
		case agg == 0:
			odds -= 20
		case agg > 1:
			odds += 10 * agg
		}
		if m.rng.Percent(odds) {
			d.rifle = false
			cost, _ := m.costOf(battle.ActionHit, melee)
			d.reachableWithAttack = m.bc.FindReachable(u, u.TU-cost)
			return
		}
	}
	d.melee = false
}
