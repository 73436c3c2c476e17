package battle

import "math"

// Faction is the side a unit fights for.
type Faction int

const (
	FactionPlayer Faction = iota
	FactionHostile
	FactionNeutral
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionHostile:
		return "hostile"
	case FactionNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Status is a unit's physical state.
type Status int

const (
	StatusStanding Status = iota
	StatusDead
	StatusUnconscious
)

// NeverSpotted is reported for factions that have not seen a unit.
const NeverSpotted = 255

// Stats are a unit's base (maximum) attributes.
type Stats struct {
	TU          int
	Energy      int
	Health      int
	Mana        int
	Bravery     int
	Reactions   int
	Firing      int
	Throwing    int
	Strength    int
	Melee       int
	PsiStrength int
	PsiSkill    int
}

// Unit is a combatant on the battlefield.
type Unit struct {
	ID              int
	Faction         Faction
	OriginalFaction Faction
	Pos             Position
	Direction       int
	Size            int
	Status          Status
	Rank            int

	TU     int
	Energy int
	Health int
	Mana   int
	Morale int
	Stats  Stats

	Kneeling bool
	CanRun   bool
	CanKneel bool

	// Hands holds the wielded items, primary first; Belt holds the rest.
	Hands []*Weapon
	Belt  []*Weapon

	// TurnsSpotted counts turns since each faction last saw this unit.
	TurnsSpotted map[Faction]int
	// SniperSpotted counts turns each faction's snipers may still fire at this unit.
	SniperSpotted map[Faction]int

	Aggression   int
	Intelligence int
	Reckless     bool
	Brutal       bool
	DodgeChance  int
}

// IsOut reports whether the unit is dead or unconscious.
func (u *Unit) IsOut() bool {
	return u == nil || u.Status != StatusStanding || u.Health <= 0
}

// Large reports whether the unit occupies more than one tile.
func (u *Unit) Large() bool {
	return u.Size > 1
}

// TurnsSinceSpotted returns how long ago faction f last saw this unit.
func (u *Unit) TurnsSinceSpotted(f Faction) int {
	if t, ok := u.TurnsSpotted[f]; ok {
		return t
	}
	return NeverSpotted
}

// TurnsLeftSpottedForSnipers returns the remaining sniper window for faction f.
func (u *Unit) TurnsLeftSpottedForSnipers(f Faction) int {
	return u.SniperSpotted[f]
}

// MarkSpotted records that faction f sees this unit now.
func (u *Unit) MarkSpotted(f Faction, sniperTurns int) {
	if u.TurnsSpotted == nil {
		u.TurnsSpotted = make(map[Faction]int)
	}
	u.TurnsSpotted[f] = 0
	if sniperTurns > 0 {
		if u.SniperSpotted == nil {
			u.SniperSpotted = make(map[Faction]int)
		}
		u.SniperSpotted[f] = sniperTurns
	}
}

// AgeSpotting advances every faction timer by one turn.
func (u *Unit) AgeSpotting() {
	for f, t := range u.TurnsSpotted {
		if t < NeverSpotted {
			u.TurnsSpotted[f] = t + 1
		}
	}
	for f, t := range u.SniperSpotted {
		if t > 0 {
			u.SniperSpotted[f] = t - 1
		}
	}
}

// CheckViewSector reports whether p lies inside the unit's 90° field of view.
func (u *Unit) CheckViewSector(p Position) bool {
	if p.X == u.Pos.X && p.Y == u.Pos.Y {
		return true
	}
	facing := float64(u.Direction) * math.Pi / 4
	angle := math.Atan2(float64(p.X-u.Pos.X), float64(u.Pos.Y-p.Y))
	diff := math.Abs(math.Remainder(angle-facing, 2*math.Pi))
	return diff <= math.Pi/4+1e-9
}

// ActionCost returns the TU an action with w costs this unit.
// ok is false when the item does not support the action.
func (u *Unit) ActionCost(a ActionType, w *Weapon) (tu int, ok bool) {
	pct := w.CostPercent(a)
	if pct <= 0 {
		return 0, false
	}
	tu = pct * u.Stats.TU / 100
	if tu < 1 {
		tu = 1
	}
	return tu, true
}

// MainHandWeapon returns the wielded ranged weapon with ammo, if any,
// otherwise the first wielded item.
func (u *Unit) MainHandWeapon() *Weapon {
	for _, w := range u.Hands {
		if w != nil && w.Type == Firearm && w.HasAmmo() {
			return w
		}
	}
	for _, w := range u.Hands {
		if w != nil {
			return w
		}
	}
	return nil
}

// UtilityWeapon returns the first carried item usable as t.
func (u *Unit) UtilityWeapon(t WeaponType) *Weapon {
	for _, w := range u.Items() {
		if w.Type == t {
			return w
		}
		if t == Melee && w.CostMelee > 0 {
			return w
		}
	}
	return nil
}

// GrenadeFromBelt returns a throwable explosive, preferring wielded ones.
func (u *Unit) GrenadeFromBelt() *Weapon {
	for _, w := range u.Items() {
		if (w.Type == Grenade || w.Type == ProximityGrenade) && w.CostThrow > 0 {
			return w
		}
	}
	return nil
}

// Items returns hands then belt, skipping empty slots.
func (u *Unit) Items() []*Weapon {
	out := make([]*Weapon, 0, len(u.Hands)+len(u.Belt))
	for _, w := range u.Hands {
		if w != nil {
			out = append(out, w)
		}
	}
	for _, w := range u.Belt {
		if w != nil {
			out = append(out, w)
		}
	}
	return out
}

// OneHanded reports whether the unit fires a two-handed weapon with a hand occupied.
func (u *Unit) OneHanded(w *Weapon) bool {
	if w == nil || !w.TwoHanded {
		return false
	}
	n := 0
	for _, h := range u.Hands {
		if h != nil {
			n++
		}
	}
	return n > 1
}
