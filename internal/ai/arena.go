package ai

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/freeeve/squad-tactics/internal/logger"
	"github.com/freeeve/squad-tactics/internal/model"
	"github.com/freeeve/squad-tactics/internal/repository"
	"github.com/freeeve/squad-tactics/pkg/battle"
)

const (
	arenaSize      = 32
	thinkCap       = 8
	sniperWindow   = 2
	defaultTurns   = 10
	defaultPerSide = 4
	maxPerSide     = 12
)

// SkirmishConfig configures a single headless AI-vs-AI battle.
type SkirmishConfig struct {
	BattleID string
	Seed     int64 // 0 = random
	Turns    int
	Engine   string // engine for every unit; "" = tuning's engine
	PerSide  int
	Mission  string
	Tuning   *Tuning
	DryRun   bool // skip repository and cache writes

	// Tunings delivers replacement weights, applied between turns.
	Tunings <-chan *Tuning
}

// SkirmishResult describes the outcome of a skirmish.
type SkirmishResult struct {
	BattleID  string         `json:"battle_id"`
	Seed      int64          `json:"seed"`
	Engine    string         `json:"engine"`
	Turns     int            `json:"turns"`
	Winner    string         `json:"winner"` // faction name or "" for a draw
	Survivors map[string]int `json:"survivors"`
	Actions   map[string]int `json:"actions"`
}

// arena is the running state of one skirmish.
type arena struct {
	id      string
	grid    *battle.Grid
	rng     *Rand
	tuning  *Tuning
	modules []*Module
	byUnit  map[int]*Module
	claimed map[int]int // unit -> node claimed in the cache
	result  *SkirmishResult
	log     zerolog.Logger

	// observe sees every action an engine emits.
	observe func(*battle.Action)
}

// RunSkirmish plays a seeded skirmish between two AI-driven squads. Pass nil
// repo and cache, or set DryRun, to skip persistence.
func RunSkirmish(ctx context.Context, cfg SkirmishConfig, repo repository.AIStateRepository, cache repository.AIStateCache) (*SkirmishResult, error) {
	a, err := newArena(cfg)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithBattleID(ctx, a.id)
	a.log = logger.ForBattle(ctx)
	for _, m := range a.modules {
		m.SetLogger(a.log)
	}
	if cfg.DryRun {
		repo, cache = nil, nil
	}
	return a.run(ctx, cfg, repo, cache)
}

func newArena(cfg SkirmishConfig) (*arena, error) {
	if cfg.Turns <= 0 {
		cfg.Turns = defaultTurns
	}
	if cfg.PerSide <= 0 {
		cfg.PerSide = defaultPerSide
	}
	cfg.PerSide = min(cfg.PerSide, maxPerSide)
	if cfg.BattleID == "" {
		cfg.BattleID = logger.NewBattleID()
	}
	tuning := cfg.Tuning
	if tuning == nil {
		tuning = DefaultTuning()
	}
	if cfg.Engine != "" {
		t := *tuning
		t.Engine = cfg.Engine
		tuning = &t
	}
	if _, err := EngineFor(tuning.Engine); err != nil {
		return nil, err
	}

	rng := NewRand(cfg.Seed)
	grid := buildFixture(rng, cfg.PerSide)
	if cfg.Mission != "" {
		grid.SetMission(cfg.Mission)
	}

	a := &arena{
		id:      cfg.BattleID,
		grid:    grid,
		rng:     rng,
		tuning:  tuning,
		byUnit:  make(map[int]*Module),
		claimed: make(map[int]int),
		log:     zerolog.Nop(),
		result: &SkirmishResult{
			BattleID:  cfg.BattleID,
			Seed:      cfg.Seed,
			Engine:    tuning.Engine,
			Survivors: make(map[string]int),
			Actions:   make(map[string]int),
		},
	}
	if a.result.Engine == "" {
		a.result.Engine = EngineStandard
	}
	for _, u := range grid.Units() {
		m, err := NewModule(u, grid, rng, tuning)
		if err != nil {
			return nil, fmt.Errorf("new module for unit %d: %w", u.ID, err)
		}
		a.modules = append(a.modules, m)
		a.byUnit[u.ID] = m
	}
	return a, nil
}

func (a *arena) run(ctx context.Context, cfg SkirmishConfig, repo repository.AIStateRepository, cache repository.AIStateCache) (*SkirmishResult, error) {
	turns := cfg.Turns
	if turns <= 0 {
		turns = defaultTurns
	}

	if repo != nil {
		if _, err := repo.CreateSkirmish(ctx, a.id, cfg.Seed, a.result.Engine); err != nil {
			return nil, fmt.Errorf("create skirmish: %w", err)
		}
	}

	for turn := 1; turn <= turns; turn++ {
		if err := ctx.Err(); err != nil {
			a.abort(ctx, repo)
			return nil, err
		}
		a.applyTuning(cfg.Tunings)
		a.startTurn()

		for _, f := range []battle.Faction{battle.FactionHostile, battle.FactionPlayer} {
			a.playFaction(f)
		}
		a.endTurn()
		a.result.Turns = turn

		if cache != nil {
			if err := a.saveCache(ctx, cache); err != nil {
				return nil, err
			}
		}
		a.countSurvivors()
		a.log.Info().Int("turn", turn).Interface("survivors", a.result.Survivors).Msg("Turn complete")
		if a.decided() {
			break
		}
	}

	a.countSurvivors()
	a.result.Winner = a.winner()

	if repo != nil {
		if err := repo.SaveStates(ctx, a.records()); err != nil {
			return nil, fmt.Errorf("save ai states: %w", err)
		}
		if err := repo.FinishSkirmish(ctx, a.id, "finished", a.result.Turns, a.result.Survivors); err != nil {
			return nil, fmt.Errorf("finish skirmish: %w", err)
		}
	}
	a.log.Info().Str("winner", a.result.Winner).Int("turns", a.result.Turns).Msg("Skirmish finished")
	return a.result, nil
}

// abort marks a cancelled skirmish; the write outlives the cancelled ctx.
func (a *arena) abort(ctx context.Context, repo repository.AIStateRepository) {
	if repo == nil {
		return
	}
	a.countSurvivors()
	if err := repo.FinishSkirmish(context.WithoutCancel(ctx), a.id, "aborted", a.result.Turns, a.result.Survivors); err != nil {
		a.log.Warn().Err(err).Msg("Failed to mark skirmish aborted")
	}
}

func (a *arena) applyTuning(ch <-chan *Tuning) {
	if ch == nil {
		return
	}
	for {
		select {
		case t, ok := <-ch:
			if !ok || t == nil {
				return
			}
			u := *t
			u.Engine = a.result.Engine
			t = &u
			a.tuning = t
			for _, m := range a.modules {
				m.SetTuning(t)
			}
			a.log.Info().Msg("Tuning reloaded")
		default:
			return
		}
	}
}

func (a *arena) startTurn() {
	for _, m := range a.modules {
		u := m.Unit()
		if u.IsOut() {
			continue
		}
		u.TU = u.Stats.TU
		u.Energy = u.Stats.Energy
		u.Mana = min(u.Mana+u.Stats.Mana/10, u.Stats.Mana)
		m.NewTurn()
	}
}

func (a *arena) endTurn() {
	for _, u := range a.grid.Units() {
		u.AgeSpotting()
		if a.grid.Tile(u.Pos).Fire > 0 && !u.IsOut() {
			a.damage(nil, u, 5)
		}
	}
	for i := range a.grid.W * a.grid.H {
		p := battle.Position{X: i % a.grid.W, Y: i / a.grid.W}
		t := a.grid.Tile(p)
		t.Dangerous = false
		if t.Smoke > 0 {
			t.Smoke--
		}
	}
	a.grid.NextTurn()
}

// playFaction lets every standing unit of f act. A unit that waits for a
// better-placed teammate is queued once more at the back.
func (a *arena) playFaction(f battle.Faction) {
	var queue []*Module
	for _, m := range a.modules {
		if m.Unit().Faction == f && !m.Unit().IsOut() {
			queue = append(queue, m)
		}
	}
	requeued := make(map[int]bool)
	act := battle.NewAction(nil)
	for i := 0; i < len(queue); i++ {
		m := queue[i]
		if m.Unit().IsOut() || m.Unit().Faction != f {
			continue
		}
		for range thinkCap {
			a.updateSpotting(f)
			m.Think(act)
			a.result.Actions[act.Type.String()]++
			if a.observe != nil {
				a.observe(act)
			}
			if act.Type == battle.ActionWait {
				if !requeued[m.Unit().ID] {
					requeued[m.Unit().ID] = true
					queue = append(queue, m)
				}
				break
			}
			if act.Type == battle.ActionNone {
				break
			}
			if !a.execute(act) || act.FinalAction || m.Unit().IsOut() {
				break
			}
		}
	}
}

// updateSpotting marks every enemy a unit of f sees and refreshes the
// faction's remembered enemy tiles.
func (a *arena) updateSpotting(f battle.Faction) {
	for _, viewer := range a.grid.Units() {
		if viewer.Faction != f || viewer.IsOut() {
			continue
		}
		for _, t := range a.grid.Units() {
			if t.Faction == f || t.IsOut() {
				continue
			}
			if a.grid.Visible(viewer, t.Pos) {
				t.MarkSpotted(f, sniperWindow)
				a.grid.Remember(f, t.Pos)
			}
		}
		for _, p := range a.grid.RememberedEnemyTiles(f) {
			if !a.grid.Visible(viewer, p) {
				continue
			}
			if occ := a.grid.UnitAt(p); occ == nil || occ.Faction == f {
				a.grid.Forget(f, p)
			}
		}
	}
}

func (a *arena) records() []model.UnitAIRecord {
	out := make([]model.UnitAIRecord, 0, len(a.modules))
	for _, m := range a.modules {
		out = append(out, m.Save(a.id))
	}
	return out
}

// saveCache pushes every unit record to the live cache and mirrors patrol
// node claims.
func (a *arena) saveCache(ctx context.Context, cache repository.AIStateCache) error {
	for _, rec := range a.records() {
		if err := cache.SetUnitState(ctx, rec); err != nil {
			return fmt.Errorf("cache unit %d: %w", rec.UnitID, err)
		}
		prev, had := a.claimed[rec.UnitID]
		if had && prev == rec.ToNode {
			continue
		}
		if had {
			if err := cache.ReleaseNode(ctx, a.id, prev); err != nil {
				return fmt.Errorf("release node %d: %w", prev, err)
			}
			delete(a.claimed, rec.UnitID)
		}
		if rec.ToNode < 0 {
			continue
		}
		ok, err := cache.ClaimNode(ctx, a.id, rec.ToNode)
		if err != nil {
			return fmt.Errorf("claim node %d: %w", rec.ToNode, err)
		}
		if !ok {
			a.log.Warn().Int("unit", rec.UnitID).Int("node", rec.ToNode).Msg("Patrol node already claimed")
			continue
		}
		a.claimed[rec.UnitID] = rec.ToNode
	}
	return nil
}

func (a *arena) countSurvivors() {
	clear(a.result.Survivors)
	a.result.Survivors[battle.FactionPlayer.String()] = 0
	a.result.Survivors[battle.FactionHostile.String()] = 0
	for _, u := range a.grid.Units() {
		if !u.IsOut() {
			a.result.Survivors[u.Faction.String()]++
		}
	}
}

func (a *arena) decided() bool {
	return a.result.Survivors[battle.FactionPlayer.String()] == 0 ||
		a.result.Survivors[battle.FactionHostile.String()] == 0
}

func (a *arena) winner() string {
	p := a.result.Survivors[battle.FactionPlayer.String()]
	h := a.result.Survivors[battle.FactionHostile.String()]
	switch {
	case p > 0 && h == 0:
		return battle.FactionPlayer.String()
	case h > 0 && p == 0:
		return battle.FactionHostile.String()
	}
	return ""
}

// --- Fixture ---

// buildFixture lays out a seeded 32×32 field: three walled buildings with
// windows and doors, a patrol lattice, a burning patch, and two squads on
// opposite edges.
func buildFixture(rng *Rand, perSide int) *battle.Grid {
	g := battle.NewGrid(arenaSize, arenaSize)
	g.SetMission(battle.MissionUFOCrash)

	for _, b := range []struct{ x, y int }{{8, 5}, {18, 14}, {9, 22}} {
		x := b.x + rng.Generate(-1, 1)
		y := b.y + rng.Generate(-1, 1)
		addBuilding(g, rng, x, y, 6, 5)
	}
	fx, fy := rng.Generate(12, 20), rng.Generate(2, 28)
	for _, p := range []battle.Position{{X: fx, Y: fy}, {X: fx + 1, Y: fy}, {X: fx, Y: fy + 1}} {
		if t := g.Tile(p); t != nil && !t.Wall {
			t.Fire = 2
			t.Smoke = 4
		}
	}
	addLattice(g, rng)

	id := 0
	for i := range perSide {
		y := 4 + i*(arenaSize-8)/max(perSide-1, 1)
		g.AddUnit(newSoldier(id, battle.FactionPlayer, battle.Position{X: 2, Y: clearRow(g, 2, y)}, 2, i))
		id++
	}
	for i := range perSide {
		y := 4 + i*(arenaSize-8)/max(perSide-1, 1)
		g.AddUnit(newSoldier(id, battle.FactionHostile, battle.Position{X: arenaSize - 3, Y: clearRow(g, arenaSize-3, y)}, 6, i))
		id++
	}
	return g
}

func addBuilding(g *battle.Grid, rng *Rand, x0, y0, w, h int) {
	door := rng.Generate(1, w-2)
	for x := x0; x < x0+w; x++ {
		for _, y := range []int{y0, y0 + h - 1} {
			p := battle.Position{X: x, Y: y}
			switch {
			case y == y0+h-1 && x == x0+door:
			case x == x0+w/2:
				g.SetWindow(p)
			default:
				g.SetWall(p)
			}
		}
	}
	for y := y0 + 1; y < y0+h-1; y++ {
		for _, x := range []int{x0, x0 + w - 1} {
			p := battle.Position{X: x, Y: y}
			if y == y0+h/2 {
				g.SetWindow(p)
				continue
			}
			g.SetWall(p)
		}
	}
	// A base module part sits in the middle of the building.
	if t := g.Tile(battle.Position{X: x0 + w/2, Y: y0 + h/2}); t != nil {
		t.Objective = true
	}
}

func addLattice(g *battle.Grid, rng *Rand) {
	const step = 6
	index := make(map[battle.Position]int)
	for y := 3; y < arenaSize; y += step {
		for x := 3; x < arenaSize; x += step {
			p := battle.Position{X: x, Y: y}
			if g.Tile(p).Wall {
				continue
			}
			n := g.AddNode(&battle.Node{
				Pos:      p,
				Rank:     rng.Generate(0, 3),
				Priority: rng.Generate(1, 5),
				Target:   x == 15 && y == 15,
			})
			if rng.Percent(10) {
				n.Type |= battle.NodeSmall
			}
			index[p] = n.ID
		}
	}
	keys := make([]battle.Position, 0, len(index))
	for p := range index {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return index[keys[i]] < index[keys[j]] })
	for _, p := range keys {
		for _, q := range []battle.Position{{X: p.X + step, Y: p.Y}, {X: p.X, Y: p.Y + step}} {
			if id, ok := index[q]; ok {
				g.LinkNodes(index[p], id)
			}
		}
	}
}

// clearRow returns the first row at or below y with an open tile in column x.
func clearRow(g *battle.Grid, x, y int) int {
	for dy := range arenaSize {
		yy := (y + dy) % arenaSize
		if t := g.Tile(battle.Position{X: x, Y: yy}); t != nil && !t.Wall {
			return yy
		}
	}
	return y
}

// newSoldier equips a unit by squad slot: riflemen, a grenadier, a melee
// striker and, for hostiles, a psionic.
func newSoldier(id int, f battle.Faction, pos battle.Position, facing, slot int) *battle.Unit {
	u := &battle.Unit{
		ID:              id,
		Faction:         f,
		OriginalFaction: f,
		Pos:             pos,
		Direction:       facing,
		Size:            1,
		Rank:            slot % 3,
		Morale:          100,
		CanRun:          true,
		CanKneel:        true,
		Aggression:      slot % 3,
		Intelligence:    2 + slot%3,
		Stats: battle.Stats{
			TU: 60, Energy: 80, Health: 40, Mana: 0,
			Bravery: 50, Reactions: 50, Firing: 60, Throwing: 60,
			Strength: 40, Melee: 50, PsiStrength: 40, PsiSkill: 0,
		},
	}
	switch slot % 4 {
	case 0:
		u.Hands = []*battle.Weapon{rifle()}
	case 1:
		u.Hands = []*battle.Weapon{rifle()}
		u.Belt = []*battle.Weapon{grenade()}
	case 2:
		u.Hands = []*battle.Weapon{blade()}
		u.Stats.Melee = 80
		u.Reckless = f == battle.FactionHostile
	case 3:
		u.Hands = []*battle.Weapon{pistol()}
		if f == battle.FactionHostile {
			u.Belt = []*battle.Weapon{psiAmp()}
			u.Stats.PsiSkill = 60
			u.Stats.Mana = 60
		}
	}
	u.TU = u.Stats.TU
	u.Energy = u.Stats.Energy
	u.Health = u.Stats.Health
	u.Mana = u.Stats.Mana
	return u
}

func rifle() *battle.Weapon {
	return &battle.Weapon{
		Name: "rifle", Type: battle.Firearm, Power: 30,
		AccuracyAuto: 35, AccuracySnap: 60, AccuracyAimed: 110,
		CostAuto: 35, CostSnap: 25, CostAimed: 80,
		AutoShots: 3, MaxRange: 200, AimRange: 200, SnapRange: 15, AutoRange: 7, Dropoff: 2,
		Ammo: 20, TwoHanded: true,
	}
}

func pistol() *battle.Weapon {
	return &battle.Weapon{
		Name: "pistol", Type: battle.Firearm, Power: 26,
		AccuracySnap: 60, AccuracyAimed: 78,
		CostSnap: 18, CostAimed: 30,
		MaxRange: 200, AimRange: 200, SnapRange: 15, Dropoff: 2,
		Ammo: 12,
	}
}

func grenade() *battle.Weapon {
	return &battle.Weapon{
		Name: "grenade", Type: battle.Grenade, Power: 50, BlastRadius: 3,
		CostThrow: 25, CostPrime: 50, Ammo: -1,
	}
}

func blade() *battle.Weapon {
	return &battle.Weapon{
		Name: "stun_blade", Type: battle.Melee, Power: 40,
		AccuracyMelee: 100, CostMelee: 25, Ammo: -1,
	}
}

func psiAmp() *battle.Weapon {
	return &battle.Weapon{
		Name: "psi_amp", Type: battle.PsiAmp, Power: 20, BlastRadius: 1,
		AccuracyUse: 100,
		CostUse: 25, CostPanic: 25, CostMindControl: 25,
		ManaUse: 10, ManaPanic: 10, ManaMindControl: 20,
		MaxRange: 40, Ammo: -1,
	}
}
