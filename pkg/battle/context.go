package battle

// Mission names the battle type, which biases some AI choices.
const (
	MissionUFOCrash    = "ufo_crash"
	MissionTerror      = "terror"
	MissionBaseDefense = "base_defense"
	MissionBaseAssault = "alien_base_assault"
)

// Tile holds the per-tile state the AI reads.
type Tile struct {
	Pos       Position
	Wall      bool // blocks movement and line of fire
	Window    bool // transparent cover a unit can peek through
	Fire      int
	Smoke     int
	Dangerous bool // a grenade is already primed here this turn
	Objective bool // destructible base module part
}

// NodeType flags restrict which units may use a patrol node.
type NodeType int

const (
	NodeSmall NodeType = 1 << iota
	NodeFlying
	NodeDummy
)

// Node is a vertex of the static patrol graph.
type Node struct {
	ID        int
	Pos       Position
	Rank      int
	Priority  int
	Type      NodeType
	Target    bool
	Links     []int
	Allocated bool
}

// Fits reports whether u can stand on and walk to this node.
func (n *Node) Fits(u *Unit) bool {
	if n.Type&NodeDummy != 0 {
		return false
	}
	return n.Type&NodeSmall == 0 || !u.Large()
}

// Path is the result of a pathfinding request.
type Path struct {
	Steps          []Position // excluding the start tile
	Cost           int
	StartDirection int // -1 when no path exists
}

// Reachable reports whether the request found a route.
func (p Path) Reachable() bool {
	return p.StartDirection != -1
}

// NoPath is returned for unreachable destinations.
var NoPath = Path{StartDirection: -1}

// ReachSet is the set of tiles a unit can reach within a TU budget, in the
// order the search settled them.
type ReachSet struct {
	order []Position
	cost  map[Position]int
}

// NewReachSet returns an empty set.
func NewReachSet() *ReachSet {
	return &ReachSet{cost: make(map[Position]int)}
}

// Add records a reachable tile; the first cost recorded wins.
func (r *ReachSet) Add(p Position, cost int) {
	if _, ok := r.cost[p]; ok {
		return
	}
	r.cost[p] = cost
	r.order = append(r.order, p)
}

// Contains reports whether p is reachable.
func (r *ReachSet) Contains(p Position) bool {
	if r == nil {
		return false
	}
	_, ok := r.cost[p]
	return ok
}

// Cost returns the TU needed to reach p.
func (r *ReachSet) Cost(p Position) (int, bool) {
	if r == nil {
		return 0, false
	}
	c, ok := r.cost[p]
	return c, ok
}

// Tiles returns reachable tiles in settle order.
func (r *ReachSet) Tiles() []Position {
	if r == nil {
		return nil
	}
	return r.order
}

// Len returns the number of reachable tiles.
func (r *ReachSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Context is the narrow view of the running battle the AI consumes:
// pathfinding, visibility and line of fire, and the shared unit/tile/node model.
type Context interface {
	Turn() int
	Mission() string
	Cheating() bool

	Tile(p Position) *Tile
	Units() []*Unit
	UnitAt(p Position) *Unit
	Nodes() []*Node

	FindReachable(u *Unit, budget int) *ReachSet
	CalculatePath(u *Unit, dest Position, maxCost int) Path
	CalculateMissilePath(from, dest Position) Path

	// CanTargetTile traces a line of fire; units in ignore never block it.
	CanTargetTile(from, to Position, ignore ...*Unit) bool
	CanTargetUnit(from Position, target *Unit, ignore ...*Unit) bool
	ValidateThrow(u *Unit, from, to Position) bool
	Visible(viewer *Unit, to Position) bool
	ValidMeleeRange(attacker *Unit, from Position, target *Unit) bool
	FaceWindow(p Position) int

	// RememberedEnemyTiles returns tiles where faction f last saw enemies.
	RememberedEnemyTiles(f Faction) []Position
}
