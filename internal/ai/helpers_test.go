package ai

import (
	"os"
	"testing"

	"github.com/freeeve/squad-tactics/internal/logger"
	"github.com/freeeve/squad-tactics/pkg/battle"
)

func TestMain(m *testing.M) {
	logger.Quiet()
	os.Exit(m.Run())
}

func testUnit(id int, f battle.Faction, pos battle.Position, facing int) *battle.Unit {
	return &battle.Unit{
		ID: id, Faction: f, OriginalFaction: f, Pos: pos, Direction: facing, Size: 1,
		TU: 60, Energy: 80, Health: 30, Morale: 100,
		CanRun: true, CanKneel: true,
		Aggression: 1, Intelligence: 2,
		Stats: battle.Stats{
			TU: 60, Energy: 80, Health: 30, Bravery: 50,
			Firing: 60, Throwing: 60, Strength: 40, Melee: 50, PsiStrength: 40,
		},
	}
}

func armed(u *battle.Unit) *battle.Unit {
	u.Hands = []*battle.Weapon{rifle()}
	return u
}

// spottedBy marks every unit in targets as currently seen by faction f.
func spottedBy(f battle.Faction, targets ...*battle.Unit) {
	for _, t := range targets {
		t.MarkSpotted(f, 0)
	}
}

func newTestModule(t *testing.T, g *battle.Grid, u *battle.Unit, seed int64) *Module {
	t.Helper()
	m, err := NewModule(u, g, NewRand(seed), nil)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	return m
}

// duelGrid is an open field with a hostile rifleman facing east toward a
// player six tiles away.
func duelGrid() (*battle.Grid, *battle.Unit, *battle.Unit) {
	g := battle.NewGrid(24, 24)
	h := armed(testUnit(1, battle.FactionHostile, battle.Position{X: 5, Y: 10}, 2))
	p := armed(testUnit(2, battle.FactionPlayer, battle.Position{X: 11, Y: 10}, 6))
	g.AddUnit(h)
	g.AddUnit(p)
	spottedBy(battle.FactionHostile, p)
	spottedBy(battle.FactionPlayer, h)
	return g, h, p
}

// checkAction fails t when an emitted action carries fields that do not
// match its type.
func checkAction(t *testing.T, a *battle.Action) {
	t.Helper()
	if a.Actor == nil {
		t.Fatalf("%s action without actor", a.Type)
	}
	switch {
	case a.Type == battle.ActionNone || a.Type == battle.ActionWait:
		if a.Weapon != nil || a.TargetUnit != nil {
			t.Errorf("unit %d: %s carries weapon or target", a.Actor.ID, a.Type)
		}
	case a.Type == battle.ActionRethink:
		t.Errorf("unit %d: rethink leaked out of think", a.Actor.ID)
	case a.Type == battle.ActionWalk || a.Type == battle.ActionTurn:
		if !a.Target.Valid() {
			t.Errorf("unit %d: %s without destination", a.Actor.ID, a.Type)
		}
	case a.Type.IsShot():
		if a.Weapon == nil || a.Weapon.Type != battle.Firearm || !a.Target.Valid() {
			t.Errorf("unit %d: %s with weapon %v target %v", a.Actor.ID, a.Type, a.Weapon, a.Target)
		}
	case a.Type == battle.ActionThrow:
		if a.Weapon == nil || (a.Weapon.Type != battle.Grenade && a.Weapon.Type != battle.ProximityGrenade) {
			t.Errorf("unit %d: throw without a grenade", a.Actor.ID)
		}
	case a.Type == battle.ActionLaunch:
		if a.Weapon == nil || a.Weapon.Waypoints == 0 || len(a.Waypoints) == 0 {
			t.Errorf("unit %d: launch without launcher or waypoints", a.Actor.ID)
		}
	case a.Type == battle.ActionHit:
		if a.Weapon == nil || a.TargetUnit == nil {
			t.Errorf("unit %d: hit without weapon or victim", a.Actor.ID)
		}
	case a.Type.IsPsi():
		if a.Weapon == nil || a.Weapon.Type != battle.PsiAmp || a.TargetUnit == nil {
			t.Errorf("unit %d: %s without amp or victim", a.Actor.ID, a.Type)
		}
	}
}
