package ai

import (
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/squad-tactics/pkg/battle"
)

// --- Fire point ---

// firePointGrid boxes a hostile rifleman in so the only tile it can reach
// with a snap shot still in hand is the one east of it.
func firePointGrid(targetFacing int) (*battle.Grid, *battle.Unit, *battle.Unit) {
	g := battle.NewGrid(24, 24)
	for _, p := range []battle.Position{{X: 4, Y: 10}, {X: 5, Y: 9}, {X: 5, Y: 11}} {
		g.SetWall(p)
	}
	h := armed(testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2))
	h.TU = 19
	p := armed(testUnit(2, battle.FactionPlayer, battle.Position{X: 12, Y: 10}, targetFacing))
	g.AddUnit(h)
	g.AddUnit(p)
	spottedBy(battle.FactionHostile, p)
	return g, h, p
}

func TestFindFirePointScoring(t *testing.T) {
	tests := []struct {
		name       string
		facing     int
		spotter    bool
		shortRange bool
		want       int
	}{
		// base 100, spare TU 15, one spotter -10, range band +10
		{"watched by target", 6, false, false, 115},
		{"outside target view", 2, false, false, 125},
		{"second spotter", 6, true, false, 105},
		{"outside range band", 6, false, true, 105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h, p := firePointGrid(tt.facing)
			if tt.spotter {
				s := testUnit(3, battle.FactionPlayer, battle.Position{X: 6, Y: 16}, 0)
				g.AddUnit(s)
				spottedBy(battle.FactionHostile, s)
			}
			if tt.shortRange {
				w := h.Hands[0]
				w.AimRange, w.SnapRange, w.AutoRange = 3, 3, 3
			}
			m := newTestModule(t, g, h, 1)
			d := m.prepare()
			m.aggro = p

			if !m.findFirePoint(d) {
				t.Fatalf("Expected a fire point, score %d", m.attack.Score)
			}
			want := battle.Position{X: 6, Y: 10}
			if m.attack.Type != battle.ActionWalk || m.attack.Target != want {
				t.Fatalf("Expected walk to %v, got %s to %v", want, m.attack.Type, m.attack.Target)
			}
			if m.attack.Score != tt.want {
				t.Errorf("Expected score %d, got %d", tt.want, m.attack.Score)
			}
			if m.attack.TU != 4 || m.attack.TargetUnit != p {
				t.Errorf("Expected 4 TU toward the target, got %d %v", m.attack.TU, m.attack.TargetUnit)
			}
			if m.attack.FinalFacing != battle.DirectionTo(want, p.Pos) {
				t.Errorf("Expected to face the target, got %d", m.attack.FinalFacing)
			}
		})
	}
}

func TestFindFirePointBelowMinimum(t *testing.T) {
	g, h, p := firePointGrid(6)
	m := newTestModule(t, g, h, 1)
	tuning := DefaultTuning()
	tuning.FirePointMin = 200
	m.SetTuning(tuning)
	d := m.prepare()
	m.aggro = p

	if m.findFirePoint(d) {
		t.Fatal("Expected no fire point above the minimum")
	}
	if m.attack.Type != battle.ActionRethink || m.attack.Target != battle.NoPosition {
		t.Errorf("Expected rethink with no target, got %s %v", m.attack.Type, m.attack.Target)
	}
}

// --- Brutal movement ---

// shelterGrid puts an unarmed hostile in the open north of a wall that hides
// the tiles behind it from a slow player.
func shelterGrid() (*battle.Grid, *battle.Unit, *battle.Unit) {
	g := battle.NewGrid(24, 24)
	for y := 6; y <= 14; y++ {
		g.SetWall(battle.Position{X: 8, Y: y})
	}
	h := testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 2}, 4)
	p := testUnit(2, battle.FactionPlayer, battle.Position{X: 15, Y: 10}, 6)
	p.TU = 8
	g.AddUnit(h)
	g.AddUnit(p)
	spottedBy(battle.FactionHostile, p)
	return g, h, p
}

func TestBrutalMovePrefersAttackTiles(t *testing.T) {
	g, h, p := shelterGrid()
	armed(h)
	h.Pos = battle.Position{X: 5, Y: 10}
	p.TU = 60
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	if m.canAttackFrom(d, h.Pos) {
		t.Fatal("setup: the wall should cover the current tile")
	}

	m.brutalMove(d)
	if m.Mode() != ModeCombat || m.attack.Type != battle.ActionWalk {
		t.Fatalf("Expected a combat walk, got %s %s", m.Mode(), m.attack.Type)
	}
	if !m.canAttackFrom(d, m.attack.Target) {
		t.Errorf("Expected a tile with a shot, got %v", m.attack.Target)
	}
	snap, _ := m.costOf(battle.ActionSnapShot, h.Hands[0])
	if m.attack.TU+snap > h.TU {
		t.Errorf("walk of %d TU leaves no snap shot", m.attack.TU)
	}
	if m.attack.TargetUnit != p || m.attack.FinalFacing != battle.DirectionTo(m.attack.Target, p.Pos) {
		t.Error("Expected to end facing the player")
	}
}

func TestBrutalMoveShelterEscapes(t *testing.T) {
	g, h, p := shelterGrid()
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	if d.spotting == 0 {
		t.Fatal("setup: the hostile should start exposed")
	}

	m.brutalMove(d)
	if m.Mode() != ModeEscape || m.escape.Type != battle.ActionWalk {
		t.Fatalf("Expected an escape walk, got %s %s", m.Mode(), m.escape.Type)
	}
	dest := m.escape.Target
	if m.spottingUnits(dest) != 0 {
		t.Errorf("shelter %v is still spotted", dest)
	}
	if g.FindReachable(p, p.TU).Contains(dest) {
		t.Errorf("shelter %v is inside the player's reach", dest)
	}
}

func TestBrutalMoveClosesDistanceInTheOpen(t *testing.T) {
	g := battle.NewGrid(24, 24)
	h := testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2)
	p := testUnit(2, battle.FactionPlayer, battle.Position{X: 15, Y: 10}, 6)
	g.AddUnit(h)
	g.AddUnit(p)
	spottedBy(battle.FactionHostile, p)
	m := newTestModule(t, g, h, 1)
	tuning := DefaultTuning()
	tuning.SpotterRange = 40
	m.SetTuning(tuning)
	d := m.prepare()

	m.brutalMove(d)
	if m.Mode() != ModeCombat || m.attack.Type != battle.ActionWalk {
		t.Fatalf("Expected a combat walk, got %s %s", m.Mode(), m.attack.Type)
	}
	if got := battle.Distance2D(m.attack.Target, p.Pos); got >= 10 {
		t.Errorf("Expected to end closer than 10, got %d at %v", got, m.attack.Target)
	}
}

func TestBrutalMoveAvoidsDangerousTiles(t *testing.T) {
	g, h, _ := shelterGrid()
	m := newTestModule(t, g, h, 1)
	m.brutalMove(m.prepare())
	first := m.escape.Target

	g.Tile(first).Dangerous = true
	tuning := DefaultTuning()
	tuning.BrutalDanger = 100000
	m.SetTuning(tuning)
	m.brutalMove(m.prepare())
	if m.escape.Target == first {
		t.Errorf("Expected to avoid the dangerous tile %v", first)
	}
	if m.Mode() != ModeEscape {
		t.Errorf("Expected escape to survive the penalty, got %s", m.Mode())
	}
}

func TestBrutalMoveSpreadsOut(t *testing.T) {
	g, h, _ := shelterGrid()
	m := newTestModule(t, g, h, 1)
	m.brutalMove(m.prepare())
	first := m.escape.Target

	var mate *battle.Unit
	for dir := range 8 {
		q := first.Step(dir)
		if tile := g.Tile(q); tile != nil && !tile.Wall && g.UnitAt(q) == nil {
			mate = testUnit(3, battle.FactionHostile, q, 4)
			break
		}
	}
	if mate == nil {
		t.Fatalf("setup: no free tile next to %v", first)
	}
	g.AddUnit(mate)
	tuning := DefaultTuning()
	tuning.BrutalCluster = 100000
	m.SetTuning(tuning)

	m.brutalMove(m.prepare())
	if got := battle.Distance2D(m.escape.Target, mate.Pos); got <= 2 {
		t.Errorf("Expected to keep off the teammate at %v, got %v", mate.Pos, m.escape.Target)
	}
}

func TestVantageBetter(t *testing.T) {
	tests := []struct {
		name string
		a, b vantage
		want bool
	}{
		{"sees more", vantage{visible: 2, dist: 30}, vantage{visible: 1, dist: 5}, true},
		{"sees less", vantage{visible: 0, dist: 5}, vantage{visible: 1, dist: 30}, false},
		{"same view, nearer", vantage{visible: 1, dist: 8}, vantage{visible: 1, dist: 9}, true},
		{"blind, nearer", vantage{visible: 0, dist: 12}, vantage{visible: 0, dist: 18}, true},
		{"blind, equal", vantage{visible: 0, dist: 12}, vantage{visible: 0, dist: 12}, false},
	}
	for _, tt := range tests {
		if got := tt.a.better(tt.b); got != tt.want {
			t.Errorf("%s: better = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBrutalWaitsForNearerBlindTeammate(t *testing.T) {
	g := battle.NewGrid(24, 24)
	p := testUnit(2, battle.FactionPlayer, battle.Position{X: 11, Y: 10}, 6)
	// Both hostiles face away, so neither sees the player.
	a := armed(testUnit(1, battle.FactionHostile, battle.Position{X: 9, Y: 14}, 6))
	b := armed(testUnit(3, battle.FactionHostile, battle.Position{X: 3, Y: 16}, 6))
	a.Brutal, b.Brutal = true, true
	g.AddUnit(a)
	g.AddUnit(p)
	g.AddUnit(b)
	spottedBy(battle.FactionHostile, p)

	m := newTestModule(t, g, b, 1)
	act := battle.NewAction(b)
	m.Think(act)
	if act.Type != battle.ActionWait {
		t.Fatalf("Expected wait for the nearer teammate, got %s", act.Type)
	}
	checkAction(t, act)
}

// --- Blind sweep ---

func TestBlindSweepFiresAtRememberedTile(t *testing.T) {
	g, h, _ := duelGrid()
	behind := battle.Position{X: 2, Y: 10}
	g.Remember(battle.FactionHostile, behind)
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	m.attack.reset()
	m.attack.Type = battle.ActionRethink

	if !m.blindSweep(d) {
		t.Fatal("Expected blind fire")
	}
	if m.attack.Type != battle.ActionAutoShot || m.attack.Target != behind || m.attack.Weapon != h.Hands[0] {
		t.Errorf("Expected an auto shot at %v, got %s at %v", behind, m.attack.Type, m.attack.Target)
	}
	if auto, _ := m.costOf(battle.ActionAutoShot, h.Hands[0]); m.attack.TU != auto {
		t.Errorf("Expected %d TU, got %d", auto, m.attack.TU)
	}
}

func TestBlindSweepSkipsVisibleTiles(t *testing.T) {
	g, h, _ := duelGrid()
	g.Remember(battle.FactionHostile, battle.Position{X: 9, Y: 10})
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	if m.blindSweep(d) {
		t.Errorf("visible tiles need no blind fire, got %s", m.attack.Type)
	}
}

// grenadierGrid has a grenade-only hostile with two players behind it at a
// remembered tile. Only the first player is known.
func grenadierGrid() (*battle.Grid, *battle.Unit, *battle.Unit, *battle.Unit) {
	g := battle.NewGrid(24, 24)
	h := testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2)
	h.Belt = []*battle.Weapon{grenade()}
	p1 := testUnit(2, battle.FactionPlayer, battle.Position{X: 1, Y: 10}, 2)
	p2 := testUnit(3, battle.FactionPlayer, battle.Position{X: 1, Y: 11}, 2)
	g.AddUnit(h)
	g.AddUnit(p1)
	g.AddUnit(p2)
	spottedBy(battle.FactionHostile, p1)
	g.Remember(battle.FactionHostile, p1.Pos)
	return g, h, p1, p2
}

func TestBlindSweepThrows(t *testing.T) {
	tests := []struct {
		name      string
		bothKnown bool
		tu        int
		wantThrow bool
	}{
		{"two known enemies", true, 60, true},
		{"unseen bystander", false, 60, false},
		{"no TU to prime", true, 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h, p1, p2 := grenadierGrid()
			if tt.bothKnown {
				spottedBy(battle.FactionHostile, p2)
			}
			h.TU = tt.tu
			m := newTestModule(t, g, h, 1)
			d := m.prepare()
			m.attack.reset()
			m.attack.Type = battle.ActionRethink

			got := m.blindSweep(d)
			if got != tt.wantThrow {
				t.Fatalf("blindSweep = %v, want %v (%s)", got, tt.wantThrow, m.attack.Type)
			}
			if !got {
				return
			}
			gren := h.Belt[0]
			throw, _ := m.costOf(battle.ActionThrow, gren)
			prime, _ := m.costOf(battle.ActionPrime, gren)
			if m.attack.Type != battle.ActionThrow || m.attack.Target != p1.Pos || m.attack.Weapon != gren {
				t.Errorf("Expected a throw at %v, got %s at %v", p1.Pos, m.attack.Type, m.attack.Target)
			}
			if m.attack.TU != throw+prime {
				t.Errorf("Expected %d TU including the prime, got %d", throw+prime, m.attack.TU)
			}
		})
	}
}

func TestBlastEfficacyKnownOnly(t *testing.T) {
	g, h, p1, _ := grenadierGrid()
	m := newTestModule(t, g, h, 1)
	if e := m.blastEfficacy(p1.Pos, h, 3, -1, true, false); e.Enemies != 2 {
		t.Errorf("Expected both players counted, got %d", e.Enemies)
	}
	if e := m.blastEfficacy(p1.Pos, h, 3, -1, true, true); e.Enemies != 1 || e.Score != 0 {
		t.Errorf("Expected only the known player and no throw, got %+v", e)
	}
}

// --- Guided launcher ---

func launcher(waypoints int) *battle.Weapon {
	return &battle.Weapon{
		Name: "guided_launcher", Type: battle.Firearm, Power: 60, BlastRadius: 2,
		AccuracyAimed: 100, CostAimed: 50,
		MaxRange: 200, AimRange: 200, Dropoff: 1,
		Ammo: 3, TwoHanded: true, Waypoints: waypoints,
	}
}

// launcherGrid splits a launcher-armed hostile and a player with a wall that
// a straight shot cannot pass.
func launcherGrid(waypoints int) (*battle.Grid, *battle.Unit, *battle.Unit) {
	g := battle.NewGrid(24, 24)
	for y := 5; y <= 15; y++ {
		g.SetWall(battle.Position{X: 8, Y: y})
	}
	h := testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2)
	h.Hands = []*battle.Weapon{launcher(waypoints)}
	p := testUnit(2, battle.FactionPlayer, battle.Position{X: 11, Y: 10}, 6)
	g.AddUnit(h)
	g.AddUnit(p)
	spottedBy(battle.FactionHostile, p)
	return g, h, p
}

// checkRoute fails t unless each leg of the waypoint chain has a clear line.
func checkRoute(t *testing.T, g *battle.Grid, from battle.Position, wps []battle.Position, ignore ...*battle.Unit) {
	t.Helper()
	for _, wp := range wps {
		if !g.CanTargetTile(from, wp, ignore...) {
			t.Errorf("leg %v -> %v is blocked", from, wp)
		}
		from = wp
	}
}

func TestWayPointActionRoutesAroundCover(t *testing.T) {
	g, h, p := launcherGrid(6)
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	if !d.blaster {
		t.Fatal("setup: expected a guided launcher")
	}
	m.attack.reset()
	m.attack.Type = battle.ActionRethink

	m.wayPointAction(d)
	if m.attack.Type != battle.ActionLaunch || m.attack.TargetUnit != p {
		t.Fatalf("Expected a launch at the player, got %s", m.attack.Type)
	}
	wps := m.attack.Waypoints
	if len(wps) < 2 || len(wps) > 6 {
		t.Fatalf("Expected a bent route of 2-6 waypoints, got %v", wps)
	}
	if wps[len(wps)-1] != p.Pos || m.attack.Target != p.Pos {
		t.Errorf("route should end on the target, got %v target %v", wps, m.attack.Target)
	}
	checkRoute(t, g, h.Pos, wps, h, p)
}

func TestWayPointActionTooCrooked(t *testing.T) {
	g, h, _ := launcherGrid(1)
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	m.attack.reset()
	m.attack.Type = battle.ActionRethink

	m.wayPointAction(d)
	if m.attack.Type != battle.ActionRethink {
		t.Errorf("a one-waypoint launcher cannot turn a corner, got %s", m.attack.Type)
	}
}

func TestCompressWaypoints(t *testing.T) {
	t.Run("straight", func(t *testing.T) {
		g, _, _ := duelGrid()
		h := testUnit(5, battle.FactionHostile, battle.Position{X: 5, Y: 4}, 2)
		p := testUnit(6, battle.FactionPlayer, battle.Position{X: 12, Y: 4}, 6)
		g.AddUnit(h)
		g.AddUnit(p)
		m := newTestModule(t, g, h, 1)
		wps := m.compressWaypoints(g.CalculateMissilePath(h.Pos, p.Pos), p)
		if len(wps) != 1 || wps[0] != p.Pos {
			t.Errorf("Expected a single waypoint on the target, got %v", wps)
		}
	})
	t.Run("around a wall", func(t *testing.T) {
		g, h, p := launcherGrid(6)
		m := newTestModule(t, g, h, 1)
		route := g.CalculateMissilePath(h.Pos, p.Pos)
		if !route.Reachable() {
			t.Fatal("setup: expected a missile route")
		}
		wps := m.compressWaypoints(route, p)
		if len(wps) >= len(route.Steps) {
			t.Errorf("Expected fewer waypoints than steps, got %d of %d", len(wps), len(route.Steps))
		}
		if wps[len(wps)-1] != p.Pos {
			t.Errorf("Expected the route to end on the target, got %v", wps)
		}
		for _, wp := range wps[:len(wps)-1] {
			if !slices.Contains(route.Steps, wp) && wp != h.Pos {
				t.Errorf("waypoint %v is off the route", wp)
			}
		}
		checkRoute(t, g, h.Pos, wps, h, p)
	})
}

func TestArenaLaunchDetonatesOnTarget(t *testing.T) {
	g, h, p := launcherGrid(6)
	m := newTestModule(t, g, h, 1)
	d := m.prepare()
	if !m.brutalDirectAttack(d) || m.attack.Type != battle.ActionLaunch {
		t.Fatalf("Expected a launch, got %s", m.attack.Type)
	}
	m.mode = ModeCombat
	act := battle.NewAction(h)
	m.dispatch(d, act)

	a := &arena{grid: g, rng: NewRand(1), byUnit: map[int]*Module{h.ID: m}, log: zerolog.Nop()}
	if !a.execute(act) {
		t.Fatal("launch was not carried out")
	}
	if p.Health >= 30 {
		t.Errorf("Expected the player hurt by the blast, health %d", p.Health)
	}
	if h.Health != 30 {
		t.Errorf("the shooter should be outside the blast, health %d", h.Health)
	}
	if h.Hands[0].Ammo != 2 {
		t.Errorf("Expected one round spent, %d left", h.Hands[0].Ammo)
	}
}

// --- Sniper fire ---

func TestSniperAction(t *testing.T) {
	tests := []struct {
		name   string
		marked bool
		empty  bool
		want   bool
	}{
		{"spotter mark", true, false, true},
		{"no mark", false, false, false},
		{"empty rifle", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h, p := duelGrid()
			h.Direction = 6
			if tt.marked {
				p.MarkSpotted(battle.FactionHostile, 2)
			}
			if tt.empty {
				h.Hands[0].Ammo = 0
			}
			m := newTestModule(t, g, h, 1)
			d := m.prepare()
			if d.visible != 0 {
				t.Fatal("setup: the target should be out of sight")
			}
			m.attack.reset()
			m.attack.Type = battle.ActionRethink

			if got := m.sniperAction(d); got != tt.want {
				t.Fatalf("sniperAction = %v, want %v", got, tt.want)
			}
			if !tt.want {
				return
			}
			if !m.attack.Type.IsShot() || m.attack.TargetUnit != p || m.attack.Target != p.Pos || m.Target() != p {
				t.Errorf("Expected a shot at the marked player, got %s", m.attack.Type)
			}
			if cost, _ := m.costOf(m.attack.Type, h.Hands[0]); m.attack.TU != cost {
				t.Errorf("Expected %d TU, got %d", cost, m.attack.TU)
			}
		})
	}
}

// --- Psionics ---

func psiUnit(skill int, rifled bool) *battle.Unit {
	h := testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2)
	h.Mana = 100
	h.Stats.Mana = 100
	h.Stats.PsiSkill = skill
	h.Stats.PsiStrength = 100
	h.Belt = []*battle.Weapon{psiAmp()}
	if rifled {
		armed(h)
	}
	return h
}

func TestPsiAction(t *testing.T) {
	tests := []struct {
		name  string
		skill int
		rifle bool
		setup func(m *Module, h, p *battle.Unit)
		want  bool
	}{
		{"strong and unarmed", 100, false, nil, true},
		{"strong beats the rifle", 100, true, nil, true},
		{"weak keeps the rifle", 0, true, func(m *Module, h, p *battle.Unit) { h.Hands[0].Power = 200 }, false},
		{"out of amp range", 100, false, func(m *Module, h, p *battle.Unit) { h.Belt[0].MaxRange = 3 }, false},
		{"already used", 100, false, func(m *Module, h, p *battle.Unit) { m.didPsi = true }, false},
		{"under control", 100, false, func(m *Module, h, p *battle.Unit) { h.Faction = battle.FactionPlayer }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := battle.NewGrid(24, 24)
			h := psiUnit(tt.skill, tt.rifle)
			p := testUnit(2, battle.FactionPlayer, battle.Position{X: 11, Y: 10}, 6)
			g.AddUnit(h)
			g.AddUnit(p)
			spottedBy(battle.FactionHostile, p)
			m := newTestModule(t, g, h, 1)
			if tt.setup != nil {
				tt.setup(m, h, p)
			}
			d := m.prepare()

			if got := m.psiAction(d); got != tt.want {
				t.Fatalf("psiAction = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if m.Target() != nil {
					t.Error("a refused psi attack should leave no target")
				}
				return
			}
			amp := h.Belt[0]
			if !slices.Contains(psiAttacks, m.psi.Type) || m.psi.Weapon != amp {
				t.Errorf("Expected a psi attack with the amp, got %s", m.psi.Type)
			}
			if m.psi.TargetUnit != p || m.psi.Target != p.Pos || m.Target() != p {
				t.Error("Expected the player as victim")
			}
			if cost, _ := m.costOf(m.psi.Type, amp); m.psi.TU != cost {
				t.Errorf("Expected %d TU, got %d", cost, m.psi.TU)
			}
		})
	}
}

// --- Weapon choice ---

func TestSelectMeleeOrRanged(t *testing.T) {
	tests := []struct {
		name      string
		power     int
		unit      func(h *battle.Unit)
		decide    func(d *decision)
		wantRifle bool
		wantMelee bool
	}{
		{"spent blade", 40, func(h *battle.Unit) { h.Belt[0].Ammo = 0 }, nil, true, false},
		{"empty rifle", 40, nil, func(d *decision) { d.weapon.Ammo = 0 }, false, true},
		{"weak blade", 10, nil, nil, true, false},
		{"heavy blade", 250, nil, nil, false, true},
		{"heavy blade in a crowd", 250, nil, func(d *decision) { d.visible = 7 }, true, false},
		{"heavy blade while wounded", 250, func(h *battle.Unit) { h.Health = 10 }, nil, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h, _ := duelGrid()
			b := blade()
			b.Power = tt.power
			h.Belt = []*battle.Weapon{b}
			if tt.unit != nil {
				tt.unit(h)
			}
			m := newTestModule(t, g, h, 1)
			d := m.prepare()
			if !d.rifle || !d.melee {
				t.Fatal("setup: expected both weapons")
			}
			if tt.decide != nil {
				tt.decide(d)
			}

			m.selectMeleeOrRanged(d)
			if d.rifle != tt.wantRifle || d.melee != tt.wantMelee {
				t.Errorf("Expected rifle=%v melee=%v, got %v %v", tt.wantRifle, tt.wantMelee, d.rifle, d.melee)
			}
		})
	}
}

// --- Mode re-evaluation ---

func TestShouldEvaluateTriggers(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		setup func(m *Module, g *battle.Grid, d *decision, p *battle.Unit)
		want  bool
	}{
		{"settled combat", ModeCombat, nil, false},
		{"weapon picked up", ModeCombat, func(m *Module, _ *battle.Grid, _ *decision, _ *battle.Unit) { m.PickedUpWeapon() }, true},
		{"below two thirds health", ModeCombat, func(m *Module, _ *battle.Grid, _ *decision, _ *battle.Unit) { m.unit.Health = 19 }, true},
		{"at two thirds health", ModeCombat, func(m *Module, _ *battle.Grid, _ *decision, _ *battle.Unit) { m.unit.Health = 20 }, false},
		{"three spotters", ModeCombat, func(_ *Module, _ *battle.Grid, d *decision, _ *battle.Unit) { d.spotting = 3 }, true},
		{"target lost", ModeCombat, func(m *Module, _ *battle.Grid, _ *decision, p *battle.Unit) {
			m.aggro = p
			p.TurnsSpotted[battle.FactionHostile] = 5
		}, true},
		{"settled ambush", ModeAmbush, nil, false},
		{"cheating outside combat", ModeAmbush, func(_ *Module, g *battle.Grid, _ *decision, _ *battle.Unit) { g.SetCheating(true) }, true},
		{"cheating in combat", ModeCombat, func(_ *Module, g *battle.Grid, _ *decision, _ *battle.Unit) { g.SetCheating(true) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, h, p := duelGrid()
			m := newTestModule(t, g, h, 1)
			m.mode = tt.mode
			m.attack.Type = battle.ActionSnapShot
			m.ambushTUs = 5
			d := &decision{rifle: true, closestDist: 100}
			if tt.setup != nil {
				tt.setup(m, g, d, p)
			}
			if got := m.shouldEvaluate(d); got != tt.want {
				t.Errorf("shouldEvaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldEvaluateConsumesPickup(t *testing.T) {
	g, h, _ := duelGrid()
	m := newTestModule(t, g, h, 1)
	m.mode = ModeCombat
	m.attack.Type = battle.ActionSnapShot
	m.PickedUpWeapon()
	d := &decision{rifle: true}
	if !m.shouldEvaluate(d) {
		t.Fatal("Expected the pickup to force a re-evaluation")
	}
	if m.shouldEvaluate(d) {
		t.Error("the pickup trigger should fire once")
	}
}
