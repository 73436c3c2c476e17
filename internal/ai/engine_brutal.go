package ai

import (
	"math"

	"github.com/freeeve/squad-tactics/pkg/battle"
)

// brutalEngine scores every reachable tile instead of sampling a local
// neighbourhood, and lets better placed teammates act first.
type brutalEngine struct{}

func (brutalEngine) Name() string { return EngineBrutal }

func (brutalEngine) Think(m *Module, a *battle.Action) {
	d := m.prepare()

	if !m.waited && d.known > 0 && m.shouldWait(d) {
		m.waited = true
		a.Type = battle.ActionWait
		return
	}

	m.attack.reset()
	m.attack.Type = battle.ActionRethink
	m.psi.reset()

	if d.known == 0 {
		m.setupPatrol(d)
		m.mode = ModePatrol
		m.dispatch(d, a)
		return
	}

	if !m.didPsi && m.psiAction(d) {
		m.didPsi = true
		m.mode = ModeCombat
		m.psi.apply(a)
		return
	}

	if m.brutalDirectAttack(d) || m.blindSweep(d) {
		m.mode = ModeCombat
		m.dispatch(d, a)
		return
	}

	m.brutalMove(d)
	m.dispatch(d, a)
}

// vantage is what a unit can see of the enemy from where it stands.
type vantage struct {
	visible int
	dist    int
}

func (v vantage) better(o vantage) bool {
	return v.visible > o.visible || (v.visible == o.visible && v.dist < o.dist)
}

func (m *Module) vantageOf(viewer *battle.Unit, d *decision) vantage {
	var v vantage
	for _, e := range m.bc.Units() {
		if !m.validTarget(e, false, d.includeCivs) {
			continue
		}
		if m.bc.Visible(viewer, e.Pos) {
			v.visible++
		}
		v.dist += battle.Distance2D(viewer.Pos, e.Pos)
	}
	return v
}

// shouldWait reports whether a teammate with TU left has a strictly better
// view of the enemy.
func (m *Module) shouldWait(d *decision) bool {
	mine := m.vantageOf(m.unit, d)
	for _, tm := range m.bc.Units() {
		if tm == m.unit || tm.IsOut() || tm.Faction != m.unit.Faction || tm.TU <= 0 {
			continue
		}
		if m.vantageOf(tm, d).better(mine) {
			m.trace().Int("teammate", tm.ID).Msg("deferring to better placed teammate")
			return true
		}
	}
	return false
}

// brutalDirectAttack tries every attack the unit can make from where it
// stands, preferring the highest expected value.
func (m *Module) brutalDirectAttack(d *decision) bool {
	if d.blaster {
		m.wayPointAction(d)
		if m.attack.Type != battle.ActionRethink {
			return true
		}
	}

	var pick *battle.Unit
	bestShot := battle.ActionRethink
	bestScore := 0.0
	var meleeTarget *battle.Unit
	for _, t := range m.bc.Units() {
		if !m.validTarget(t, true, d.includeCivs) || !m.bc.Visible(m.unit, t.Pos) {
			continue
		}
		if d.melee && meleeTarget == nil && m.bc.ValidMeleeRange(m.unit, m.unit.Pos, t) {
			meleeTarget = t
		}
		if !d.rifle {
			continue
		}
		if a, s := m.extendedFireModeChoice(d.weapon, m.unit.Pos, t); s > bestScore {
			bestScore = s
			bestShot = a
			pick = t
		}
	}

	if d.grenade && pick != nil {
		m.aggro = pick
		m.grenadeAction(d)
		if m.attack.Type == battle.ActionThrow {
			return true
		}
	}
	if meleeTarget != nil {
		if hitTU, ok := m.affordable(battle.ActionHit, d.meleeWeapon); ok {
			odds := m.fireAccuracy(d.meleeWeapon, battle.ActionHit, 1) * float64(m.unit.Stats.TU) / float64(max(hitTU, 1))
			if pick == nil || odds >= bestScore {
				m.aggro = meleeTarget
				m.meleeAttack(d.meleeWeapon, hitTU)
				return true
			}
		}
	}
	if pick != nil {
		tu, _ := m.affordable(bestShot, d.weapon)
		m.aggro = pick
		m.attack.Type = bestShot
		m.attack.Weapon = d.weapon
		m.attack.Target = pick.Pos
		m.attack.TargetUnit = pick
		m.attack.TU = tu
		m.attack.Score = int(bestScore)
		return true
	}
	return m.sniperAction(d)
}

// blindSweep fires or throws at tiles where enemies were last seen but are
// not visible now.
func (m *Module) blindSweep(d *decision) bool {
	for _, p := range m.bc.RememberedEnemyTiles(m.unit.Faction) {
		if m.bc.Visible(m.unit, p) {
			continue
		}
		if d.grenade && m.bc.ValidateThrow(m.unit, m.unit.Pos, p) {
			g := d.grenadeItem
			if tu, ok := m.throwCost(g); ok {
				if e := m.blastEfficacy(p, m.unit, g.BlastRadius, -1, true, true); e.Score > 0 {
					m.attack.Type = battle.ActionThrow
					m.attack.Weapon = g
					m.attack.Target = p
					m.attack.TU = tu
					return true
				}
			}
		}
		if d.rifle && m.bc.CanTargetTile(m.unit.Pos, p, m.unit) {
			for _, a := range m.fireOrder(battle.Distance2D(m.unit.Pos, p)) {
				if tu, ok := m.affordable(a, d.weapon); ok {
					m.attack.Type = a
					m.attack.Weapon = d.weapon
					m.attack.Target = p
					m.attack.TU = tu
					m.trace().Int("x", p.X).Int("y", p.Y).Msg("blind fire")
					return true
				}
			}
		}
	}
	return false
}

// Score tiers for brutal positioning.
const (
	tierNone = iota
	tierCloser
	tierShelter
	tierAttack
)

// brutalMove scores every reachable tile and walks to the best one. Tiles
// that allow an attack beat tiles hidden from every enemy, which beat tiles
// that merely close the distance.
func (m *Module) brutalMove(d *decision) {
	t := m.tuning
	u := m.unit

	var enemies []*battle.Unit
	for _, e := range m.bc.Units() {
		if m.validTarget(e, false, d.includeCivs) {
			enemies = append(enemies, e)
		}
	}
	danger := make(map[battle.Position]bool)
	for _, e := range enemies {
		for _, p := range m.bc.FindReachable(e, e.TU).Tiles() {
			danger[p] = true
		}
	}

	nearest := func(p battle.Position) (*battle.Unit, int) {
		var pick *battle.Unit
		best := math.MaxInt
		for _, e := range enemies {
			if dist := battle.Distance2D(p, e.Pos); dist < best {
				best = dist
				pick = e
			}
		}
		return pick, best
	}
	_, here := nearest(u.Pos)

	attackTU := 0
	switch {
	case d.rifle:
		attackTU, _ = m.costOf(battle.ActionSnapShot, d.weapon)
	case d.melee:
		attackTU, _ = m.costOf(battle.ActionHit, d.meleeWeapon)
	}

	maxDist := 1
	for _, p := range d.reachable.Tiles() {
		if _, dist := nearest(p); dist != math.MaxInt && dist > maxDist {
			maxDist = dist
		}
	}

	best := u.Pos
	bestTier := tierNone
	bestScore := math.Inf(-1)
	var bestFoe *battle.Unit
	for _, p := range d.reachable.Tiles() {
		cost, _ := d.reachable.Cost(p)
		foe, dist := nearest(p)
		if foe == nil {
			continue
		}
		tier := tierNone
		switch {
		case (d.rifle || d.melee) && cost+attackTU <= u.TU && m.canAttackFrom(d, p):
			tier = tierAttack
		case !danger[p] && m.spottingUnits(p) == 0:
			tier = tierShelter
		case dist < here:
			tier = tierCloser
		}
		if tier == tierNone {
			continue
		}

		score := [...]float64{0, t.BrutalTierCloser, t.BrutalTierShelter, t.BrutalTierAttack}[tier]
		score += t.BrutalDistance * (1 - float64(dist)/float64(maxDist))
		score -= t.BrutalWalkCost * float64(cost) / float64(max(u.Stats.TU, 1))
		if tile := m.bc.Tile(p); tile != nil {
			if tile.Smoke > 0 {
				score += t.BrutalSmoke
			}
			if tile.Fire > 0 || tile.Dangerous {
				score -= t.BrutalDanger
			}
		}
		if m.bc.FaceWindow(p) != -1 {
			score += t.BrutalCover
		}
		for _, tm := range m.bc.Units() {
			if tm != u && !tm.IsOut() && tm.Faction == u.Faction && battle.Distance2D(tm.Pos, p) <= 2 {
				score -= t.BrutalCluster
			}
		}
		if tier > bestTier || (tier == bestTier && score > bestScore) {
			best = p
			bestTier = tier
			bestScore = score
			bestFoe = foe
		}
	}

	proposal := &m.attack
	m.mode = ModeCombat
	if bestTier == tierShelter && d.spotting > 0 {
		proposal = &m.escape
		m.mode = ModeEscape
	}
	proposal.reset()
	if bestTier == tierNone {
		proposal.Type = battle.ActionRethink
		return
	}
	proposal.Type = battle.ActionWalk
	proposal.Target = best
	proposal.Score = int(bestScore)
	proposal.TargetUnit = bestFoe
	if c, ok := d.reachable.Cost(best); ok {
		proposal.TU = c
	}
	if bestFoe != nil {
		proposal.FinalFacing = battle.DirectionTo(best, bestFoe.Pos)
	}
	m.aggro = bestFoe
	m.trace().Int("x", best.X).Int("y", best.Y).Int("tier", bestTier).Float64("score", bestScore).Msg("brutal move")
}

// canAttackFrom reports whether any known enemy could be hit from p.
func (m *Module) canAttackFrom(d *decision, p battle.Position) bool {
	for _, e := range m.bc.Units() {
		if !m.validTarget(e, true, d.includeCivs) {
			continue
		}
		if d.rifle && m.bc.CanTargetUnit(p, e, m.unit) && m.fireAccuracy(d.weapon, battle.ActionSnapShot, battle.Distance2D(p, e.Pos)) > 0 {
			return true
		}
		if d.melee && m.bc.ValidMeleeRange(m.unit, p, e) {
			return true
		}
	}
	return false
}
