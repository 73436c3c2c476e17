package ai

import (
	"slices"

	"github.com/freeeve/squad-tactics/pkg/battle"
)

const (
	kneelCost   = 4
	turnCost    = 1
	panicMorale = 50
)

// execute applies an action to the fixture battlefield. It reports false
// when the action could not be carried out, which ends the unit's activity.
func (a *arena) execute(act *battle.Action) bool {
	u := act.Actor
	switch {
	case act.Type == battle.ActionWalk:
		return a.walk(act)
	case act.Type == battle.ActionTurn:
		return a.turn(u, act.FinalFacing, act.Target)
	case act.Type.IsShot():
		return a.shoot(act)
	case act.Type == battle.ActionThrow:
		return a.throw(act)
	case act.Type == battle.ActionLaunch:
		return a.launch(act)
	case act.Type == battle.ActionHit:
		return a.hit(act)
	case act.Type.IsPsi():
		return a.psi(act)
	}
	return false
}

func (a *arena) walk(act *battle.Action) bool {
	u := act.Actor
	if act.Target == u.Pos {
		return a.turn(u, act.FinalFacing, battle.NoPosition)
	}
	path := a.grid.CalculatePath(u, act.Target, u.TU)
	if !path.Reachable() || path.Cost > u.TU {
		return false
	}
	last := u.Pos
	if n := len(path.Steps); n > 1 {
		last = path.Steps[n-2]
	}
	u.Pos = act.Target
	u.TU -= path.Cost
	u.Energy = max(u.Energy-path.Cost/2, 0)
	u.Kneeling = false
	if act.FinalFacing >= 0 {
		u.Direction = act.FinalFacing
	} else {
		u.Direction = battle.DirectionTo(last, u.Pos)
	}
	if act.Kneel && u.CanKneel && u.TU >= kneelCost {
		u.TU -= kneelCost
		u.Kneeling = true
	}
	return true
}

func (a *arena) turn(u *battle.Unit, facing int, toward battle.Position) bool {
	if facing < 0 && toward.Valid() && toward != u.Pos {
		facing = battle.DirectionTo(u.Pos, toward)
	}
	if facing < 0 || facing == u.Direction {
		return false
	}
	steps := battle.DirectionDelta(u.Direction, facing)
	if u.TU < steps*turnCost {
		return false
	}
	u.TU -= steps * turnCost
	u.Direction = facing
	return true
}

// spend deducts the cost of an action. a.TU wins when the engine priced it.
func (a *arena) spend(act *battle.Action, at battle.ActionType) bool {
	u := act.Actor
	tu := act.TU
	if tu <= 0 {
		var ok bool
		if tu, ok = u.ActionCost(at, act.Weapon); !ok {
			return false
		}
	}
	if tu > u.TU {
		return false
	}
	mana := act.Weapon.ManaCost(at)
	if mana > u.Mana {
		return false
	}
	u.TU -= tu
	u.Mana -= mana
	return true
}

func (a *arena) shoot(act *battle.Action) bool {
	u, w := act.Actor, act.Weapon
	if w == nil || !w.HasAmmo() || !a.spend(act, act.Type) {
		return false
	}
	if act.Kneel && u.CanKneel && !u.Kneeling && u.TU >= kneelCost {
		u.TU -= kneelCost
		u.Kneeling = true
	}
	a.face(u, act.Target)
	m := a.byUnit[u.ID]
	shots := w.Shots(act.Type)
	for range shots {
		if w.Ammo == 0 {
			break
		}
		if w.Ammo > 0 {
			w.Ammo--
		}
		victim := act.TargetUnit
		if victim == nil {
			victim = a.grid.UnitAt(act.Target)
		}
		if victim == nil || victim.IsOut() || !a.grid.CanTargetUnit(u.Pos, victim, u) {
			a.strikeTile(act.Target)
			continue
		}
		acc := m.fireAccuracy(w, act.Type, battle.Distance2D(u.Pos, victim.Pos))
		if a.rng.Float64()*100 < acc {
			a.damage(u, victim, a.roll(w.Power))
		}
	}
	return true
}

func (a *arena) throw(act *battle.Action) bool {
	u, w := act.Actor, act.Weapon
	if w == nil || !a.spend(act, battle.ActionThrow) {
		return false
	}
	if !a.grid.ValidateThrow(u, u.Pos, act.Target) {
		return false
	}
	a.face(u, act.Target)
	u.Hands = slices.DeleteFunc(u.Hands, func(x *battle.Weapon) bool { return x == w })
	u.Belt = slices.DeleteFunc(u.Belt, func(x *battle.Weapon) bool { return x == w })
	if t := a.grid.Tile(act.Target); t != nil {
		t.Dangerous = true
	}
	a.explode(u, act.Target, w.BlastRadius, w.Power)
	return true
}

func (a *arena) launch(act *battle.Action) bool {
	u, w := act.Actor, act.Weapon
	if w == nil || !w.HasAmmo() || !a.spend(act, battle.ActionLaunch) {
		return false
	}
	if w.Ammo > 0 {
		w.Ammo--
	}
	center := act.Target
	if n := len(act.Waypoints); n > 0 {
		a.face(u, act.Waypoints[0])
		center = act.Waypoints[n-1]
	}
	a.explode(u, center, max(w.BlastRadius, 1), w.Power)
	return true
}

func (a *arena) hit(act *battle.Action) bool {
	u, w := act.Actor, act.Weapon
	victim := act.TargetUnit
	if victim == nil {
		victim = a.grid.UnitAt(act.Target)
	}
	if w == nil || victim == nil || !a.grid.ValidMeleeRange(u, u.Pos, victim) || !a.spend(act, battle.ActionHit) {
		return false
	}
	a.face(u, victim.Pos)
	acc := a.byUnit[u.ID].fireAccuracy(w, battle.ActionHit, 1)
	if a.rng.Float64()*100 < acc && !a.rng.Percent(victim.DodgeChance) {
		a.damage(u, victim, a.roll(w.Power))
	}
	return true
}

func (a *arena) psi(act *battle.Action) bool {
	u := act.Actor
	victim := act.TargetUnit
	if victim == nil {
		victim = a.grid.UnitAt(act.Target)
	}
	if act.Weapon == nil || victim == nil || victim.IsOut() || !a.spend(act, act.Type) {
		return false
	}
	m := a.byUnit[u.ID]
	if m.psiStrength(victim) < a.rng.Generate(50, 100) {
		a.log.Debug().Int("unit", u.ID).Int("victim", victim.ID).Str("attack", act.Type.String()).Msg("Psi attack resisted")
		return true
	}
	switch act.Type {
	case battle.ActionPanic:
		victim.Morale = max(victim.Morale-panicMorale, 0)
	case battle.ActionMindControl:
		victim.Faction = u.Faction
		victim.TU = 0
		victim.Morale = 100
	case battle.ActionUse:
		a.damage(u, victim, a.roll(act.Weapon.Power))
	}
	if vm := a.byUnit[victim.ID]; vm != nil {
		vm.RecordHit(u.ID)
	}
	return true
}

// explode damages every standing unit within radius of center that the
// blast can reach.
func (a *arena) explode(attacker *battle.Unit, center battle.Position, radius, power int) {
	for _, v := range a.grid.Units() {
		if v.IsOut() {
			continue
		}
		d := battle.Distance2D(center, v.Pos)
		if d > radius {
			continue
		}
		if v.Pos != center && !a.grid.CanTargetTile(center, v.Pos, v) {
			continue
		}
		a.damage(attacker, v, a.roll(power*(radius+1-d)/(radius+1)))
	}
	if t := a.grid.Tile(center); t != nil {
		t.Smoke += 2
	}
}

func (a *arena) strikeTile(p battle.Position) {
	if t := a.grid.Tile(p); t != nil && t.Objective {
		t.Objective = false
	}
}

// damage applies a wound and tells the victim's module who caused it.
// A nil attacker is environmental damage.
func (a *arena) damage(attacker, victim *battle.Unit, amount int) {
	if amount <= 0 || victim.IsOut() {
		return
	}
	victim.Health = max(victim.Health-amount, 0)
	victim.Morale = max(victim.Morale-amount/2, 0)
	if victim.Health == 0 {
		victim.Status = battle.StatusDead
	}
	if attacker == nil {
		return
	}
	if vm := a.byUnit[victim.ID]; vm != nil {
		vm.RecordHit(attacker.ID)
	}
	a.log.Debug().Int("attacker", attacker.ID).Int("victim", victim.ID).Int("damage", amount).Int("health", victim.Health).Msg("Hit")
}

// roll returns a damage value between half and one and a half of power.
func (a *arena) roll(power int) int {
	return power * a.rng.Generate(50, 150) / 100
}

func (a *arena) face(u *battle.Unit, p battle.Position) {
	if p.Valid() && p != u.Pos {
		u.Direction = battle.DirectionTo(u.Pos, p)
	}
}
