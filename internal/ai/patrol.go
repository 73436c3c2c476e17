package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

const patrolTries = 5

// setupPatrol picks the next patrol node, or in base defence a destructible
// module to shoot. Nodes are claimed while a unit walks to them.
func (m *Module) setupPatrol(d *decision) {
	m.patrol.reset()
	m.targetsBaseNode = false
	u := m.unit
	baseDefense := m.bc.Mission() == battle.MissionBaseDefense && !u.Large() && u.Faction == battle.FactionHostile

	if m.toNode != nil && u.Pos == m.toNode.Pos {
		m.trace().Int("node", m.toNode.ID).Msg("patrol node reached")
		m.fromNode = m.toNode
		m.freePatrolTarget()
		if baseDefense && m.fromNode.Target && m.shootBaseModule(d) {
			return
		}
	}

	if m.fromNode == nil {
		m.fromNode = m.closestNode()
	}

	for tries := patrolTries; m.toNode == nil && tries > 0; tries-- {
		scout := true
		if !baseDefense {
			tile := m.bc.Tile(u.Pos)
			onFire := tile != nil && tile.Fire > 0
			scout = m.bc.Cheating() || m.fromNode == nil || m.fromNode.Rank == 0 || onFire || m.rng.Percent(25)
		} else {
			if m.fromNode != nil && m.fromNode.Target && m.shootBaseModule(d) {
				return
			}
			m.toNode = m.closestFreeTargetNode()
		}
		if m.toNode == nil {
			m.toNode = m.patrolNode(scout)
			if m.toNode == nil {
				m.toNode = m.patrolNode(!scout)
			}
		}
		if m.toNode != nil && !m.bc.CalculatePath(u, m.toNode.Pos, 0).Reachable() {
			m.toNode = nil
		}
	}

	if m.toNode == nil {
		m.patrol.Type = battle.ActionRethink
		return
	}
	m.toNode.Allocated = true
	m.patrol.Type = battle.ActionWalk
	m.patrol.Target = m.toNode.Pos
}

// freePatrolTarget releases the claim on the current destination node.
func (m *Module) freePatrolTarget() {
	if m.toNode != nil {
		m.toNode.Allocated = false
		m.toNode = nil
	}
}

// closestNode returns the nearest usable node on the unit's level.
func (m *Module) closestNode() *battle.Node {
	var pick *battle.Node
	closest := -1
	for _, n := range m.bc.Nodes() {
		if !n.Fits(m.unit) || n.Pos.Z != m.unit.Pos.Z {
			continue
		}
		if d := battle.DistanceSq(m.unit.Pos, n.Pos, true); closest < 0 || d < closest {
			closest = d
			pick = n
		}
	}
	return pick
}

// closestFreeTargetNode returns the nearest unclaimed objective node.
func (m *Module) closestFreeTargetNode() *battle.Node {
	var pick *battle.Node
	closest := -1
	for _, n := range m.bc.Nodes() {
		if !n.Target || n.Allocated || n == m.fromNode || !n.Fits(m.unit) {
			continue
		}
		if d := battle.DistanceSq(m.unit.Pos, n.Pos, true); closest < 0 || d < closest {
			closest = d
			pick = n
		}
	}
	return pick
}

// patrolNode picks a destination. Scouts roam to any free node; others shuffle
// to the linked node best matching their rank, or the highest priority one.
func (m *Module) patrolNode(scout bool) *battle.Node {
	nodes := m.bc.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	from := m.fromNode
	if from == nil {
		from = nodes[m.rng.Intn(len(nodes))]
	}
	var candidates []*battle.Node
	if scout {
		candidates = nodes
	} else {
		for _, id := range from.Links {
			if id >= 0 && id < len(nodes) {
				candidates = append(candidates, nodes[id])
			}
		}
	}

	var compliant []*battle.Node
	var preferred *battle.Node
	for _, n := range candidates {
		if n == from || n.Allocated || !n.Fits(m.unit) {
			continue
		}
		if !scout && n.Priority <= 0 && n.Rank <= 0 {
			continue
		}
		if t := m.bc.Tile(n.Pos); t == nil || t.Dangerous {
			continue
		}
		if occ := m.bc.UnitAt(n.Pos); occ != nil && occ != m.unit {
			continue
		}
		compliant = append(compliant, n)
		if scout || n.Priority <= 0 {
			continue
		}
		switch {
		case preferred == nil:
			preferred = n
		case n.Rank == m.unit.Rank && preferred.Rank != m.unit.Rank:
			preferred = n
		case (n.Rank == m.unit.Rank) == (preferred.Rank == m.unit.Rank) && n.Priority > preferred.Priority:
			preferred = n
		}
	}
	if len(compliant) == 0 {
		return nil
	}
	if scout {
		return compliant[m.rng.Intn(len(compliant))]
	}
	return preferred
}

// shootBaseModule aims a snap shot at an objective tile in the room around
// the unit.
func (m *Module) shootBaseModule(d *decision) bool {
	if !d.rifle || d.weapon == nil || d.weapon.Explosive() {
		return false
	}
	tu, ok := m.affordable(battle.ActionSnapShot, d.weapon)
	if !ok {
		return false
	}
	u := m.unit
	x0 := (u.Pos.X / 10) * 10
	y0 := (u.Pos.Y / 10) * 10
	for x := x0; x < x0+9; x++ {
		for y := y0; y < y0+9; y++ {
			p := battle.Position{X: x, Y: y, Z: u.Pos.Z}
			t := m.bc.Tile(p)
			if t == nil || !t.Objective {
				continue
			}
			m.patrol.Type = battle.ActionSnapShot
			m.patrol.Target = p
			m.patrol.Weapon = d.weapon
			m.patrol.TU = tu
			m.targetsBaseNode = true
			return true
		}
	}
	return false
}
