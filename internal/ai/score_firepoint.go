package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// findFirePoint searches nearby tiles the unit can reach with TU to spare
// for a shot at the aggro target. On success the attack proposal becomes a
// walk to the best tile facing the target.
func (m *Module) findFirePoint(d *decision) bool {
	target := m.aggro
	if target == nil {
		return false
	}
	t := m.tuning
	m.attack.reset()
	m.attack.Type = battle.ActionRethink

	search := battle.TileSearch()
	m.rng.Shuffle(len(search), func(i, j int) { search[i], search[j] = search[j], search[i] })

	bestScore := 0
	for _, off := range search {
		pos := m.unit.Pos.Add(off)
		if pos == m.unit.Pos || m.bc.Tile(pos) == nil || !d.reachableWithAttack.Contains(pos) {
			continue
		}
		if !m.bc.CanTargetUnit(pos, target, m.unit) {
			continue
		}
		p := m.bc.CalculatePath(m.unit, pos, 0)
		if !p.Reachable() {
			continue
		}
		score := t.FirePointBase - m.spottingUnits(pos)*t.FirePointSpotter
		score += m.unit.TU - p.Cost
		if !target.CheckViewSector(pos) {
			score += t.FirePointSector
		}
		if d.weapon != nil && inRangeBand(d.weapon, battle.Distance2D(pos, target.Pos)) {
			score += t.FirePointRange
		}
		m.trace().Int("x", pos.X).Int("y", pos.Y).Int("score", score).Msg("fire point candidate")
		if score > bestScore {
			bestScore = score
			m.attack.Target = pos
			m.attack.TU = p.Cost
			m.attack.FinalFacing = battle.DirectionTo(pos, target.Pos)
			if score > t.FirePointFastPass {
				break
			}
		}
	}
	if bestScore > t.FirePointMin {
		m.attack.Type = battle.ActionWalk
		m.attack.TargetUnit = target
		m.attack.Score = bestScore
		return true
	}
	m.attack.Target = battle.NoPosition
	return false
}

// inRangeBand reports whether dist sits inside the weapon's accurate range.
func inRangeBand(w *battle.Weapon, dist int) bool {
	hi := max(w.AimRange, w.SnapRange, w.AutoRange)
	return hi > 0 && dist >= w.MinRange && dist <= hi
}
