package battle

import "container/heap"

// MaxViewDistance is the furthest tile a unit can see.
const MaxViewDistance = 20

// Movement costs for a standard unit.
const (
	walkCost     = 4
	diagonalCost = 6
	smokeBlocks  = 12
)

// Grid is an in-memory, single-level battlefield implementing Context.
type Grid struct {
	W, H     int
	tiles    []Tile
	units    []*Unit
	nodes    []*Node
	turn     int
	mission  string
	cheating bool
	memory   map[Faction][]Position
}

var _ Context = (*Grid)(nil)

// NewGrid returns an open w×h battlefield on turn 1.
func NewGrid(w, h int) *Grid {
	g := &Grid{
		W:      w,
		H:      h,
		tiles:  make([]Tile, w*h),
		turn:   1,
		memory: make(map[Faction][]Position),
	}
	for y := range h {
		for x := range w {
			g.tiles[y*w+x].Pos = Position{X: x, Y: y}
		}
	}
	return g
}

func (g *Grid) inBounds(p Position) bool {
	return p.Z == 0 && p.X >= 0 && p.Y >= 0 && p.X < g.W && p.Y < g.H
}

// Tile returns the tile at p, or nil off the map.
func (g *Grid) Tile(p Position) *Tile {
	if !g.inBounds(p) {
		return nil
	}
	return &g.tiles[p.Y*g.W+p.X]
}

// SetWall marks a blocking tile.
func (g *Grid) SetWall(p Position) {
	if t := g.Tile(p); t != nil {
		t.Wall = true
	}
}

// SetWindow marks a cover tile a unit may peek through.
func (g *Grid) SetWindow(p Position) {
	if t := g.Tile(p); t != nil {
		t.Window = true
	}
}

// AddUnit places a unit on the field.
func (g *Grid) AddUnit(u *Unit) {
	g.units = append(g.units, u)
}

// AddNode appends a patrol node and assigns its ID.
func (g *Grid) AddNode(n *Node) *Node {
	n.ID = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return n
}

// LinkNodes connects two nodes both ways.
func (g *Grid) LinkNodes(a, b int) {
	if a < 0 || b < 0 || a >= len(g.nodes) || b >= len(g.nodes) {
		return
	}
	g.nodes[a].Links = append(g.nodes[a].Links, b)
	g.nodes[b].Links = append(g.nodes[b].Links, a)
}

// SetMission sets the mission type.
func (g *Grid) SetMission(m string) { g.mission = m }

// SetCheating toggles the AI omniscience flag.
func (g *Grid) SetCheating(c bool) { g.cheating = c }

// NextTurn advances the turn counter.
func (g *Grid) NextTurn() { g.turn++ }

// Remember records a tile where faction f saw an enemy.
func (g *Grid) Remember(f Faction, p Position) {
	for _, q := range g.memory[f] {
		if q == p {
			return
		}
	}
	g.memory[f] = append(g.memory[f], p)
}

// Forget drops a remembered tile.
func (g *Grid) Forget(f Faction, p Position) {
	list := g.memory[f]
	for i, q := range list {
		if q == p {
			g.memory[f] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (g *Grid) Turn() int       { return g.turn }
func (g *Grid) Mission() string { return g.mission }
func (g *Grid) Cheating() bool  { return g.cheating }
func (g *Grid) Units() []*Unit  { return g.units }
func (g *Grid) Nodes() []*Node  { return g.nodes }

// UnitAt returns the living unit covering p.
func (g *Grid) UnitAt(p Position) *Unit {
	for _, u := range g.units {
		if u.IsOut() || u.Pos.Z != p.Z {
			continue
		}
		size := max(u.Size, 1)
		if p.X >= u.Pos.X && p.X < u.Pos.X+size && p.Y >= u.Pos.Y && p.Y < u.Pos.Y+size {
			return u
		}
	}
	return nil
}

// RememberedEnemyTiles returns a copy of faction f's enemy markers.
func (g *Grid) RememberedEnemyTiles(f Faction) []Position {
	return append([]Position(nil), g.memory[f]...)
}

func (g *Grid) walkable(p Position, mover *Unit) bool {
	t := g.Tile(p)
	if t == nil || t.Wall {
		return false
	}
	if mover == nil {
		return true
	}
	occ := g.UnitAt(p)
	return occ == nil || occ == mover
}

func (g *Grid) solid(p Position) bool {
	t := g.Tile(p)
	return t == nil || t.Wall
}

type searchItem struct {
	pos  Position
	cost int
	seq  int
}

type searchQueue []searchItem

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}
func (q searchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x any)   { *q = append(*q, x.(searchItem)) }
func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// search runs a Dijkstra flood from start. A nil mover ignores units. It stops
// early once goal is settled when goal is valid; budget <= 0 means unbounded.
func (g *Grid) search(mover *Unit, start Position, budget int, goal Position, visit func(Position, int)) map[Position]Position {
	dist := map[Position]int{start: 0}
	prev := make(map[Position]Position)
	done := make(map[Position]bool)
	q := &searchQueue{{pos: start}}
	seq := 1
	for q.Len() > 0 {
		cur := heap.Pop(q).(searchItem)
		if done[cur.pos] {
			continue
		}
		done[cur.pos] = true
		if visit != nil {
			visit(cur.pos, cur.cost)
		}
		if goal.Valid() && cur.pos == goal {
			break
		}
		for dir := range 8 {
			next := cur.pos.Step(dir)
			if done[next] || !g.walkable(next, mover) {
				continue
			}
			step := walkCost
			if dir%2 == 1 {
				if g.solid(cur.pos.Step(dir-1)) || g.solid(cur.pos.Step(dir+1)) {
					continue
				}
				step = diagonalCost
			}
			nc := cur.cost + step
			if budget > 0 && nc > budget {
				continue
			}
			if old, ok := dist[next]; ok && old <= nc {
				continue
			}
			dist[next] = nc
			prev[next] = cur.pos
			heap.Push(q, searchItem{pos: next, cost: nc, seq: seq})
			seq++
		}
	}
	return prev
}

// FindReachable returns every tile u can walk to with budget TU.
func (g *Grid) FindReachable(u *Unit, budget int) *ReachSet {
	rs := NewReachSet()
	if budget <= 0 {
		rs.Add(u.Pos, 0)
		return rs
	}
	g.search(u, u.Pos, budget, NoPosition, rs.Add)
	return rs
}

func (g *Grid) route(mover *Unit, from, dest Position, maxCost int) Path {
	if from == dest || !g.walkable(dest, mover) {
		return NoPath
	}
	cost := -1
	prev := g.search(mover, from, maxCost, dest, func(p Position, c int) {
		if p == dest {
			cost = c
		}
	})
	if cost < 0 {
		return NoPath
	}
	var steps []Position
	for p := dest; p != from; p = prev[p] {
		steps = append(steps, p)
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Path{Steps: steps, Cost: cost, StartDirection: DirectionTo(from, steps[0])}
}

// CalculatePath finds u's cheapest walk to dest, bounded by maxCost when > 0.
func (g *Grid) CalculatePath(u *Unit, dest Position, maxCost int) Path {
	return g.route(u, u.Pos, dest, maxCost)
}

// CalculateMissilePath finds a flight route that only walls obstruct.
func (g *Grid) CalculateMissilePath(from, dest Position) Path {
	return g.route(nil, from, dest, 0)
}

// line returns the Bresenham tiles from a to b, inclusive.
func line(a, b Position) []Position {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	out := []Position{a}
	p := a
	for p.X != b.X || p.Y != b.Y {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
		out = append(out, p)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CanTargetTile traces a line of fire from one tile to another.
func (g *Grid) CanTargetTile(from, to Position, ignore ...*Unit) bool {
	if g.Tile(from) == nil || g.solid(to) || from.Z != to.Z {
		return false
	}
	if from == to {
		return true
	}
	pts := line(from, to)
	for _, p := range pts[1 : len(pts)-1] {
		if g.solid(p) {
			return false
		}
		if occ := g.UnitAt(p); occ != nil && !contains(ignore, occ) {
			return false
		}
	}
	return true
}

// CanTargetUnit traces a line of fire to a unit's tile.
func (g *Grid) CanTargetUnit(from Position, target *Unit, ignore ...*Unit) bool {
	if target == nil {
		return false
	}
	return g.CanTargetTile(from, target.Pos, append(ignore, target)...)
}

// MaxThrowDistance is how far u can throw, scaled by strength.
func MaxThrowDistance(u *Unit) int {
	return min(max(u.Stats.Strength/3, 4), 20)
}

// ValidateThrow reports whether u can lob an item from one tile to another.
func (g *Grid) ValidateThrow(u *Unit, from, to Position) bool {
	if g.solid(to) || Distance2D(from, to) > MaxThrowDistance(u) {
		return false
	}
	if from == to {
		return true
	}
	pts := line(from, to)
	for _, p := range pts[1 : len(pts)-1] {
		if g.solid(p) {
			return false
		}
	}
	return true
}

// Visible reports whether viewer can see the tile at to.
func (g *Grid) Visible(viewer *Unit, to Position) bool {
	if viewer == nil || g.Tile(to) == nil || Distance2D(viewer.Pos, to) > MaxViewDistance {
		return false
	}
	if viewer.Pos == to {
		return true
	}
	if !viewer.CheckViewSector(to) {
		return false
	}
	smoke := 0
	pts := line(viewer.Pos, to)
	for _, p := range pts[1 : len(pts)-1] {
		t := g.Tile(p)
		if t == nil || t.Wall {
			return false
		}
		smoke += t.Smoke
		if smoke >= smokeBlocks {
			return false
		}
	}
	return true
}

// ValidMeleeRange reports whether attacker standing at from can strike target.
func (g *Grid) ValidMeleeRange(attacker *Unit, from Position, target *Unit) bool {
	if target == nil || target.IsOut() || from.Z != target.Pos.Z {
		return false
	}
	size := max(target.Size, 1)
	best := -1
	var near Position
	for y := target.Pos.Y; y < target.Pos.Y+size; y++ {
		for x := target.Pos.X; x < target.Pos.X+size; x++ {
			d := max(abs(x-from.X), abs(y-from.Y))
			if best < 0 || d < best {
				best = d
				near = Position{X: x, Y: y, Z: from.Z}
			}
		}
	}
	if best != 1 {
		return false
	}
	if near.X != from.X && near.Y != from.Y {
		if g.solid(Position{X: near.X, Y: from.Y, Z: from.Z}) && g.solid(Position{X: from.X, Y: near.Y, Z: from.Z}) {
			return false
		}
	}
	return true
}

// FaceWindow returns the orthogonal facing toward an adjacent window, or -1.
func (g *Grid) FaceWindow(p Position) int {
	for dir := 0; dir < 8; dir += 2 {
		if t := g.Tile(p.Step(dir)); t != nil && t.Window {
			return dir
		}
	}
	return -1
}

func contains(list []*Unit, u *Unit) bool {
	for _, x := range list {
		if x == u {
			return true
		}
	}
	return false
}
