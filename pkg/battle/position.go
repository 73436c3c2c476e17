package battle

import "math"

// Position is a tile coordinate on the battlefield.
type Position struct {
	X, Y, Z int
}

// NoPosition marks an unset target.
var NoPosition = Position{X: -1, Y: -1, Z: -1}

// Add returns the component-wise sum.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Valid reports whether the position is not the NoPosition sentinel.
func (p Position) Valid() bool {
	return p != NoPosition
}

// Distance2D returns the rounded planar distance between two tiles.
func Distance2D(a, b Position) int {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return int(math.Round(math.Sqrt(dx*dx + dy*dy)))
}

// DistanceSq returns the squared distance, optionally including the z axis.
func DistanceSq(a, b Position, considerZ bool) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	d := dx*dx + dy*dy
	if considerZ {
		dz := a.Z - b.Z
		d += dz * dz
	}
	return d
}

// Direction vectors, clockwise from north (0) to north-west (7).
var (
	dirX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	dirY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
)

// DirectionVector returns the unit step for a facing.
func DirectionVector(dir int) Position {
	dir = ((dir % 8) + 8) % 8
	return Position{X: dirX[dir], Y: dirY[dir]}
}

// Step returns the adjacent tile in the given direction.
func (p Position) Step(dir int) Position {
	return p.Add(DirectionVector(dir))
}

// DirectionTo returns the facing (0-7) that points from one tile to another.
// Returns 0 when both positions share a tile.
func DirectionTo(from, to Position) int {
	ox := float64(to.X - from.X)
	oy := float64(to.Y - from.Y)
	if ox == 0 && oy == 0 {
		return 0
	}
	angle := math.Atan2(ox, -oy)
	d := int(math.Round(angle / (math.Pi / 4)))
	return (d + 8) % 8
}

// DirectionDelta returns the smallest number of 45° turns between facings.
func DirectionDelta(a, b int) int {
	d := ((a-b)%8 + 8) % 8
	if d > 4 {
		d = 8 - d
	}
	return d
}

// TileSearch returns every offset of the 11x11 neighbourhood centred on a
// tile, row-major from (-5,-5). Callers shuffle it for randomized searches.
func TileSearch() []Position {
	out := make([]Position, 0, 121)
	for y := -5; y <= 5; y++ {
		for x := -5; x <= 5; x++ {
			out = append(out, Position{X: x, Y: y})
		}
	}
	return out
}
