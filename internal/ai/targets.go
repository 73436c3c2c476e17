package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// validTarget reports whether t is a live enemy this unit knows about.
// assessDanger skips units standing on tiles already flagged dangerous.
func (m *Module) validTarget(t *battle.Unit, assessDanger, includeCivs bool) bool {
	if t.IsOut() || t == m.unit || t.Faction == m.unit.Faction {
		return false
	}
	if assessDanger {
		if tile := m.bc.Tile(t.Pos); tile != nil && tile.Dangerous {
			return false
		}
	}
	if !m.knows(t) {
		return false
	}
	if includeCivs && t.Faction == battle.FactionNeutral {
		return true
	}
	return t.Faction == m.enemyFaction()
}

// countKnownTargets tallies every valid target, visible or not.
func (m *Module) countKnownTargets(d *decision) int {
	n := 0
	for _, t := range m.bc.Units() {
		if m.validTarget(t, true, d.includeCivs) {
			n++
		}
	}
	return n
}

// selectNearestTarget picks the closest visible enemy the unit can actually
// engage and stores it as the aggro target. The return value counts every
// visible valid target, whether or not one was chosen.
func (m *Module) selectNearestTarget(d *decision) int {
	m.aggro = nil
	d.closestDist = 100
	tally := 0
	meleeOnly := d.melee && !d.rifle && !d.blaster
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, d.includeCivs) || !m.bc.Visible(m.unit, t.Pos) {
			continue
		}
		tally++
		dist := battle.Distance2D(m.unit.Pos, t.Pos)
		if dist >= d.closestDist {
			continue
		}
		var ok bool
		if meleeOnly {
			_, _, ok = m.selectPointNearTarget(d, t, m.unit.TU)
		} else {
			ok = m.bc.CanTargetUnit(m.unit.Pos, t, m.unit)
		}
		if ok {
			d.closestDist = dist
			m.aggro = t
		}
	}
	return tally
}

// selectNearestVisibleUnit picks the closest visible enemy without checking
// line of fire. Ambush and psi searches do not need one.
func (m *Module) selectNearestVisibleUnit(d *decision) bool {
	best := -1
	var pick *battle.Unit
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, d.includeCivs) || !m.bc.Visible(m.unit, t.Pos) {
			continue
		}
		if dist := battle.Distance2D(m.unit.Pos, t.Pos); best < 0 || dist < best {
			best = dist
			pick = t
		}
	}
	if pick == nil {
		return false
	}
	m.aggro = pick
	return true
}

// selectClosestKnownEnemy picks the nearest known enemy, seen or not.
func (m *Module) selectClosestKnownEnemy() bool {
	best := -1
	var pick *battle.Unit
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, false, false) {
			continue
		}
		if dist := battle.Distance2D(m.unit.Pos, t.Pos); best < 0 || dist < best {
			best = dist
			pick = t
		}
	}
	if pick == nil {
		return false
	}
	m.aggro = pick
	return true
}

// selectRandomTarget picks a known enemy with a bias toward nearer ones.
func (m *Module) selectRandomTarget(d *decision) bool {
	farthest := -100
	var pick *battle.Unit
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, d.includeCivs) {
			continue
		}
		score := m.rng.Generate(0, 20) - battle.Distance2D(m.unit.Pos, t.Pos)
		if score > farthest {
			farthest = score
			pick = t
		}
	}
	if pick == nil {
		return false
	}
	m.aggro = pick
	return true
}

// spottingUnits counts known enemies within spotter range with a line of
// fire to pos. The unit itself never blocks the check.
func (m *Module) spottingUnits(pos battle.Position) int {
	tally := 0
	for _, e := range m.bc.Units() {
		if !m.validTarget(e, false, false) {
			continue
		}
		if battle.Distance2D(pos, e.Pos) > m.tuning.SpotterRange {
			continue
		}
		if m.bc.CanTargetTile(e.Pos, pos, e, m.unit) {
			tally++
		}
	}
	return tally
}
