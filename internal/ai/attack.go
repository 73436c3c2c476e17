package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// setupAttack runs the attack cascade: psi, guided launcher, sniper fire,
// then grenade, melee and firearm against a visible target. When nothing
// fires it may look for a better firing position.
func (m *Module) setupAttack(d *decision) {
	m.attack.reset()
	m.attack.Type = battle.ActionRethink
	m.psi.reset()

	ranged := false
	if d.known > 0 {
		if m.psiAction(d) {
			return
		}
		if d.blaster {
			m.wayPointAction(d)
			ranged = m.attack.Type != battle.ActionRethink
		} else if m.sniperAction(d) {
			ranged = true
		}
	}

	if !ranged {
		d.visible = m.selectNearestTarget(d)
		if d.visible > 0 {
			if d.melee && d.rifle {
				m.selectMeleeOrRanged(d)
			}
			if d.grenade {
				m.grenadeAction(d)
			}
			if d.melee {
				m.meleeAction(d)
			}
			if d.rifle {
				m.projectileAction(d)
			}
		}
	}

	if m.attack.Type != battle.ActionRethink {
		m.trace().Str("attack", m.attack.Type.String()).
			Int("x", m.attack.Target.X).Int("y", m.attack.Target.Y).
			Msg("attack chosen")
		return
	}
	if d.spotting > 0 || m.policy.Aggression < m.rng.Generate(0, 3) {
		m.findFirePoint(d)
	}
}

// sniperAction fires at the best target the squad's spotters still mark.
func (m *Module) sniperAction(d *decision) bool {
	if !d.rifle || d.weapon == nil {
		return false
	}
	var pick *battle.Unit
	best := battle.ActionRethink
	bestScore := 0.0
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, d.includeCivs) || t.TurnsLeftSpottedForSnipers(m.unit.Faction) <= 0 {
			continue
		}
		a, s := m.extendedFireModeChoice(d.weapon, m.unit.Pos, t)
		if s > bestScore {
			bestScore = s
			best = a
			pick = t
		}
	}
	if pick == nil {
		return false
	}
	tu, _ := m.affordable(best, d.weapon)
	m.aggro = pick
	m.attack.Type = best
	m.attack.Weapon = d.weapon
	m.attack.Target = pick.Pos
	m.attack.TargetUnit = pick
	m.attack.TU = tu
	m.attack.Score = int(bestScore)
	return true
}

// wayPointAction plans a guided missile around cover to the best target a
// blast would be worth spending on.
func (m *Module) wayPointAction(d *decision) {
	w := d.weapon
	m.aggro = nil
	var route battle.Path
	bestScore := 0
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, true) {
			continue
		}
		p := m.bc.CalculateMissilePath(m.unit.Pos, t.Pos)
		if !p.Reachable() {
			continue
		}
		if e := m.explosiveEfficacy(t.Pos, m.unit, max(w.BlastRadius, 1), -1, false); e.Score > bestScore {
			bestScore = e.Score
			route = p
			m.aggro = t
		}
	}
	if m.aggro == nil {
		return
	}
	tu, ok := m.affordable(battle.ActionLaunch, w)
	if !ok {
		return
	}
	wps := m.compressWaypoints(route, m.aggro)
	if len(wps) == 0 || len(wps) > w.Waypoints {
		m.trace().Int("waypoints", len(wps)).Msg("missile route too crooked")
		return
	}
	m.attack.Type = battle.ActionLaunch
	m.attack.Weapon = w
	m.attack.Waypoints = wps
	m.attack.Target = wps[len(wps)-1]
	m.attack.TargetUnit = m.aggro
	m.attack.TU = tu
}

// compressWaypoints reduces a missile route to the corners where the
// straight line from the previous waypoint stops being clear.
func (m *Module) compressWaypoints(route battle.Path, target *battle.Unit) []battle.Position {
	var out []battle.Position
	last := m.unit.Pos
	prev := m.unit.Pos
	for _, step := range route.Steps {
		if !m.bc.CanTargetTile(last, step, m.unit, target) {
			out = append(out, prev)
			last = prev
		}
		prev = step
	}
	return append(out, target.Pos)
}
