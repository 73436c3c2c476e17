package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// decision is the scratch state of one Think call. It is rebuilt at the
// start of every call and discarded at the end.
type decision struct {
	known    int
	visible  int
	spotting int
	// closestDist is the distance to the aggro target chosen this call, 100 if none.
	closestDist int

	reachable           *battle.ReachSet
	reachableWithAttack *battle.ReachSet

	rifle   bool
	melee   bool
	blaster bool
	grenade bool

	weapon      *battle.Weapon
	meleeWeapon *battle.Weapon
	grenadeItem *battle.Weapon
	psiWeapon   *battle.Weapon

	includeCivs bool
}

// hasAttack reports whether the unit carries any usable weapon or psi amp.
func (d *decision) hasAttack() bool {
	return d.rifle || d.melee || d.blaster || d.grenade || d.psiWeapon != nil
}

// prepare refreshes weapon flags, reachable sets, and enemy tallies.
func (m *Module) prepare() *decision {
	u := m.unit
	if m.charging != nil && m.charging.IsOut() {
		m.charging = nil
	}
	m.reserve = reserveFor(m.policy.Aggression)

	d := &decision{closestDist: 100, includeCivs: u.Faction == battle.FactionHostile}

	turn := m.bc.Turn()
	if w := u.MainHandWeapon(); w != nil && w.Type == battle.Firearm && w.HasAmmo() {
		d.weapon = w
		if w.Waypoints > 0 {
			d.blaster = turn >= m.tuning.TurnUseLauncher
		} else {
			d.rifle = true
		}
	}
	if w := u.UtilityWeapon(battle.Melee); w != nil {
		d.meleeWeapon = w
		d.melee = true
	}
	if w := u.GrenadeFromBelt(); w != nil && turn >= m.tuning.TurnUseGrenade {
		d.grenadeItem = w
		d.grenade = true
	}
	if w := u.UtilityWeapon(battle.PsiAmp); w != nil {
		d.psiWeapon = w
	}

	d.reachable = m.bc.FindReachable(u, u.TU)
	attackCost := 0
	switch {
	case d.blaster:
		attackCost, _ = m.costOf(battle.ActionAimedShot, d.weapon)
	case d.rifle:
		attackCost, _ = m.costOf(battle.ActionSnapShot, d.weapon)
	case d.melee:
		attackCost, _ = m.costOf(battle.ActionHit, d.meleeWeapon)
	}
	d.reachableWithAttack = m.bc.FindReachable(u, u.TU-attackCost)

	d.known = m.countKnownTargets(d)
	d.visible = m.selectNearestTarget(d)
	d.spotting = m.spottingUnits(u.Pos)
	return d
}

// reserveFor maps aggression to the reaction-fire reservation.
func reserveFor(aggression int) battle.ActionType {
	switch aggression {
	case 0:
		return battle.ActionAimedShot
	case 1:
		return battle.ActionAutoShot
	default:
		return battle.ActionSnapShot
	}
}
