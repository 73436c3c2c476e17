package battle

// WeaponType classifies how an item is used in battle.
type WeaponType int

const (
	Firearm WeaponType = iota
	Melee
	Grenade
	ProximityGrenade
	PsiAmp
)

func (t WeaponType) String() string {
	switch t {
	case Firearm:
		return "firearm"
	case Melee:
		return "melee"
	case Grenade:
		return "grenade"
	case ProximityGrenade:
		return "proximity_grenade"
	case PsiAmp:
		return "psi_amp"
	default:
		return "unknown"
	}
}

// ActionType is the kind of action a unit performs.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionTurn
	ActionWalk
	ActionPrime
	ActionThrow
	ActionAutoShot
	ActionSnapShot
	ActionAimedShot
	ActionHit
	ActionUse
	ActionLaunch
	ActionMindControl
	ActionPanic
	ActionRethink
	ActionWait
)

var actionNames = map[ActionType]string{
	ActionNone:        "none",
	ActionTurn:        "turn",
	ActionWalk:        "walk",
	ActionPrime:       "prime",
	ActionThrow:       "throw",
	ActionAutoShot:    "auto_shot",
	ActionSnapShot:    "snap_shot",
	ActionAimedShot:   "aimed_shot",
	ActionHit:         "hit",
	ActionUse:         "use",
	ActionLaunch:      "launch",
	ActionMindControl: "mind_control",
	ActionPanic:       "panic",
	ActionRethink:     "rethink",
	ActionWait:        "wait",
}

func (a ActionType) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// IsShot reports whether the action fires a ranged weapon.
func (a ActionType) IsShot() bool {
	return a == ActionAutoShot || a == ActionSnapShot || a == ActionAimedShot
}

// IsPsi reports whether the action is a psionic attack.
func (a ActionType) IsPsi() bool {
	return a == ActionUse || a == ActionMindControl || a == ActionPanic
}

// Weapon is the subset of an item's rules and state the AI consults.
// Costs are percentages of the wielder's maximum TU; zero means the action
// is not available with this item.
type Weapon struct {
	Name        string
	Type        WeaponType
	Power       int
	BlastRadius int // 0 for non-explosive ammo

	AccuracyAuto  int
	AccuracySnap  int
	AccuracyAimed int
	AccuracyMelee int
	AccuracyUse   int

	CostAuto        int
	CostSnap        int
	CostAimed       int
	CostMelee       int
	CostThrow       int
	CostPrime       int
	CostUse         int
	CostPanic       int
	CostMindControl int

	ManaUse         int
	ManaPanic       int
	ManaMindControl int

	AutoShots int

	MinRange  int
	MaxRange  int
	AimRange  int
	SnapRange int
	AutoRange int
	Dropoff   int // accuracy lost per tile past the effective range

	Ammo        int // rounds left; -1 for items that need no ammo
	TwoHanded   bool
	Waypoints   int // >0 for guided launchers
	LOSRequired bool
}

// HasAmmo reports whether the item can fire.
func (w *Weapon) HasAmmo() bool {
	return w != nil && w.Ammo != 0
}

// Explosive reports whether the item's payload has a blast radius.
func (w *Weapon) Explosive() bool {
	return w != nil && w.BlastRadius > 0
}

// CostPercent returns the TU percentage for an action, or 0 if unsupported.
func (w *Weapon) CostPercent(a ActionType) int {
	if w == nil {
		return 0
	}
	switch a {
	case ActionAutoShot:
		return w.CostAuto
	case ActionSnapShot:
		return w.CostSnap
	case ActionAimedShot, ActionLaunch:
		return w.CostAimed
	case ActionHit:
		return w.CostMelee
	case ActionThrow:
		return w.CostThrow
	case ActionPrime:
		return w.CostPrime
	case ActionUse:
		return w.CostUse
	case ActionPanic:
		return w.CostPanic
	case ActionMindControl:
		return w.CostMindControl
	}
	return 0
}

// ManaCost returns the mana spent by a psionic action.
func (w *Weapon) ManaCost(a ActionType) int {
	if w == nil {
		return 0
	}
	switch a {
	case ActionUse:
		return w.ManaUse
	case ActionPanic:
		return w.ManaPanic
	case ActionMindControl:
		return w.ManaMindControl
	}
	return 0
}

// BaseAccuracy returns the weapon accuracy percentage for an action.
func (w *Weapon) BaseAccuracy(a ActionType) int {
	if w == nil {
		return 0
	}
	switch a {
	case ActionAutoShot:
		return w.AccuracyAuto
	case ActionSnapShot:
		return w.AccuracySnap
	case ActionAimedShot, ActionLaunch:
		return w.AccuracyAimed
	case ActionHit:
		return w.AccuracyMelee
	case ActionUse, ActionPanic, ActionMindControl:
		return w.AccuracyUse
	}
	return 0
}

// EffectiveRange returns the distance beyond which an action loses accuracy.
func (w *Weapon) EffectiveRange(a ActionType) int {
	if w == nil {
		return 0
	}
	switch a {
	case ActionAutoShot:
		return w.AutoRange
	case ActionSnapShot:
		return w.SnapRange
	case ActionAimedShot, ActionLaunch:
		return w.AimRange
	}
	return 0
}

// Shots returns how many projectiles an action fires.
func (w *Weapon) Shots(a ActionType) int {
	if a == ActionAutoShot && w != nil && w.AutoShots > 0 {
		return w.AutoShots
	}
	return 1
}
