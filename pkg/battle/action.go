package battle

// Action is the record a decision engine fills for the battle to execute.
type Action struct {
	Type        ActionType
	Actor       *Unit
	Weapon      *Weapon
	Target      Position
	TargetUnit  *Unit
	Waypoints   []Position
	TU          int
	FinalFacing int // -1 for no facing change
	Run         bool
	Kneel       bool
	FinalAction bool // the unit ends its turn after this action
	Desperate   bool // ignore new sightings while moving
}

// NewAction returns an empty action for actor.
func NewAction(actor *Unit) *Action {
	return &Action{Type: ActionNone, Actor: actor, Target: NoPosition, FinalFacing: -1}
}

// Reset clears every field except the actor.
func (a *Action) Reset() {
	*a = Action{Type: ActionNone, Actor: a.Actor, Target: NoPosition, FinalFacing: -1}
}
