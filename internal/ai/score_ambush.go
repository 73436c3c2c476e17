package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// setupAmbush looks for a patrol node near the unit where the closest known
// enemy cannot see it now but will walk into its line of fire.
func (m *Module) setupAmbush(d *decision) {
	m.ambush.reset()
	m.ambush.Type = battle.ActionRethink
	m.ambushTUs = 0
	if !m.selectClosestKnownEnemy() {
		return
	}
	enemy := m.aggro
	t := m.tuning
	bestScore := 0
	var bestRoute battle.Path
	for _, n := range m.bc.Nodes() {
		if n.Type&battle.NodeDummy != 0 {
			continue
		}
		pos := n.Pos
		tile := m.bc.Tile(pos)
		if tile == nil || tile.Dangerous || pos.Z != m.unit.Pos.Z || pos == m.unit.Pos {
			continue
		}
		if battle.Distance2D(pos, m.unit.Pos) > t.AmbushRadius || !d.reachableWithAttack.Contains(pos) {
			continue
		}
		if m.bc.CanTargetTile(enemy.Pos, pos, enemy, m.unit) || m.spottingUnits(pos) > 0 {
			continue
		}
		walk := m.bc.CalculatePath(m.unit, pos, 0)
		if !walk.Reachable() {
			continue
		}
		route := m.bc.CalculatePath(enemy, pos, 0)
		if !route.Reachable() {
			continue
		}
		score := t.AmbushBase - walk.Cost
		if m.bc.FaceWindow(pos) != -1 {
			score += t.AmbushCover
		}
		m.trace().Int("x", pos.X).Int("y", pos.Y).Int("score", score).Msg("ambush candidate")
		if score > bestScore {
			bestScore = score
			bestRoute = route
			m.ambush.Target = pos
			m.ambushTUs = max(walk.Cost, 1)
			if bestScore > t.AmbushFastPass {
				break
			}
		}
	}
	if bestScore <= 0 {
		return
	}
	m.ambush.Type = battle.ActionWalk
	m.ambush.Score = bestScore
	// Walk the enemy along its likely route and face the first step we could
	// shoot it on.
	for _, step := range bestRoute.Steps {
		if m.bc.CanTargetTile(m.ambush.Target, step, m.unit, enemy) {
			m.ambush.FinalFacing = battle.DirectionTo(m.ambush.Target, step)
			break
		}
	}
}
