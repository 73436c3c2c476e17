package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// efficacy is the outcome of weighing a blast at one tile.
type efficacy struct {
	Enemies     int
	Friendlies  int
	Desperation int
	// Net is enemies caught minus friendlies caught.
	Net int
	// Score is positive only when the blast is worth it.
	Score int
}

// explosiveEfficacy weighs a blast of radius at target thrown or fired by
// attacker. A diff of -1 uses the tuned difficulty.
func (m *Module) explosiveEfficacy(target battle.Position, attacker *battle.Unit, radius, diff int, grenade bool) efficacy {
	return m.blastEfficacy(target, attacker, radius, diff, grenade, false)
}

// blastEfficacy is explosiveEfficacy that, when knownOnly is set, ignores
// enemies the module's faction has not spotted.
func (m *Module) blastEfficacy(target battle.Position, attacker *battle.Unit, radius, diff int, grenade, knownOnly bool) efficacy {
	var e efficacy
	turn := m.bc.Turn()
	if (grenade && turn < m.tuning.TurnUseGrenade) || (!grenade && turn < m.tuning.TurnUseLauncher) {
		return e
	}
	if diff == -1 {
		diff = m.tuning.Difficulty
	}

	maxHealth := attacker.Stats.Health
	injury := maxHealth - attacker.Health
	e.Desperation = (100 - attacker.Morale) / 10
	if injury > (maxHealth/3)*2 {
		e.Desperation += 3
	}
	score := e.Desperation

	if attacker.Pos.Z == target.Z && battle.Distance2D(attacker.Pos, target) <= radius {
		score -= 4
	}
	switch m.bc.Mission() {
	case battle.MissionBaseAssault:
		score -= 3
	case battle.MissionBaseDefense, battle.MissionTerror:
		score += 3
	}

	enemy := targetFactionFor(attacker.Faction)
	onTarget := m.bc.UnitAt(target)
	for _, u := range m.bc.Units() {
		if u.IsOut() || u == attacker || u.Pos.Z != target.Z || battle.Distance2D(u.Pos, target) > radius {
			continue
		}
		if t := m.bc.Tile(u.Pos); t != nil && t.Dangerous {
			continue
		}
		if !m.bc.CanTargetTile(target, u.Pos, onTarget, u) {
			continue
		}
		switch u.Faction {
		case enemy:
			if knownOnly && !m.knows(u) {
				continue
			}
			e.Enemies++
			e.Net++
		case attacker.Faction:
			e.Friendlies++
			e.Net--
		}
	}
	score += e.Net

	desperate := e.Desperation >= m.tuning.DesperationThreshold
	switch {
	case grenade && e.Enemies < 2 && !desperate:
	case e.Enemies <= e.Friendlies && !desperate:
	case score <= diff:
	default:
		e.Score = score
	}
	m.trace().Int("x", target.X).Int("y", target.Y).
		Int("enemies", e.Enemies).Int("friendlies", e.Friendlies).
		Int("desperation", e.Desperation).Int("score", e.Score).
		Msg("explosive efficacy")
	return e
}

// grenadeAction throws a belt grenade at the aggro target when the blast
// is worth it and the throw is possible.
func (m *Module) grenadeAction(d *decision) {
	t := m.aggro
	g := d.grenadeItem
	if t == nil || g == nil {
		return
	}
	tu, ok := m.throwCost(g)
	if !ok {
		return
	}
	if m.explosiveEfficacy(t.Pos, m.unit, g.BlastRadius, -1, true).Score <= 0 {
		return
	}
	if !m.bc.ValidateThrow(m.unit, m.unit.Pos, t.Pos) {
		return
	}
	m.attack.Type = battle.ActionThrow
	m.attack.Weapon = g
	m.attack.Target = t.Pos
	m.attack.TargetUnit = t
	m.attack.TU = tu
	d.rifle = false
	d.melee = false
}

// throwCost is the TU to prime and throw g. ok is false when the unit
// cannot afford both.
func (m *Module) throwCost(g *battle.Weapon) (int, bool) {
	tu, ok := m.affordable(battle.ActionThrow, g)
	if !ok {
		return 0, false
	}
	if prime, ok := m.unit.ActionCost(battle.ActionPrime, g); ok {
		tu += prime
	}
	return tu, tu <= m.unit.TU
}
