//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/freeeve/squad-tactics/internal/model"
	"github.com/freeeve/squad-tactics/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// createTestSkirmish is a helper that inserts a running skirmish.
func createTestSkirmish(t *testing.T, repo *AIStateRepo, id string) *model.SkirmishRecord {
	t.Helper()
	s, err := repo.CreateSkirmish(context.Background(), id, 42, "standard")
	if err != nil {
		t.Fatalf("create test skirmish: %v", err)
	}
	return s
}

// --- Skirmish Tests ---

func TestCreateSkirmish(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)

	s := createTestSkirmish(t, repo, "sk-create")
	if s.ID != "sk-create" {
		t.Fatalf("expected id sk-create, got %s", s.ID)
	}
	if s.Seed != 42 || s.Engine != "standard" {
		t.Fatalf("unexpected seed/engine: %d / %s", s.Seed, s.Engine)
	}
	if s.Status != "running" {
		t.Fatalf("expected status running, got %s", s.Status)
	}
	if s.Turns != 0 {
		t.Fatalf("expected 0 turns, got %d", s.Turns)
	}
}

func TestFinishSkirmish(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)
	ctx := context.Background()

	createTestSkirmish(t, repo, "sk-finish")
	survivors := map[string]int{"player": 2, "hostile": 0}
	if err := repo.FinishSkirmish(ctx, "sk-finish", "finished", 7, survivors); err != nil {
		t.Fatalf("finish: %v", err)
	}

	s, err := repo.FindSkirmish(ctx, "sk-finish")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if s == nil {
		t.Fatal("expected skirmish")
	}
	if s.Status != "finished" || s.Turns != 7 {
		t.Fatalf("unexpected outcome: %s after %d turns", s.Status, s.Turns)
	}
	if s.Survivors["player"] != 2 || s.Survivors["hostile"] != 0 {
		t.Fatalf("unexpected survivors: %v", s.Survivors)
	}
	if s.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestFindSkirmishMissing(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)

	s, err := repo.FindSkirmish(context.Background(), "no-such-skirmish")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil for missing skirmish")
	}
}

// --- Unit AI State Tests ---

func TestSaveAndLoadStates(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)
	ctx := context.Background()

	createTestSkirmish(t, repo, "sk-states")
	records := []model.UnitAIRecord{
		{BattleID: "sk-states", UnitID: 2, FromNode: 3, ToNode: 4, Mode: "patrol"},
		{BattleID: "sk-states", UnitID: 1, FromNode: -1, ToNode: -1, Mode: "escape", WasHitBy: []int{7, 9}, WeaponPickedUp: true},
	}
	if err := repo.SaveStates(ctx, records); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LoadStates(ctx, "sk-states")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].UnitID != 1 || got[1].UnitID != 2 {
		t.Fatalf("expected records ordered by unit, got %d, %d", got[0].UnitID, got[1].UnitID)
	}
	if got[0].Mode != "escape" || !got[0].WeaponPickedUp {
		t.Fatalf("unexpected unit 1 state: %+v", got[0])
	}
	if len(got[0].WasHitBy) != 2 || got[0].WasHitBy[0] != 7 || got[0].WasHitBy[1] != 9 {
		t.Fatalf("unexpected was_hit_by: %v", got[0].WasHitBy)
	}
	if got[1].FromNode != 3 || got[1].ToNode != 4 {
		t.Fatalf("unexpected nodes: %d -> %d", got[1].FromNode, got[1].ToNode)
	}
	if len(got[1].WasHitBy) != 0 {
		t.Fatalf("expected no hits for unit 2, got %v", got[1].WasHitBy)
	}
}

func TestSaveStatesUpserts(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)
	ctx := context.Background()

	createTestSkirmish(t, repo, "sk-upsert")
	rec := model.UnitAIRecord{BattleID: "sk-upsert", UnitID: 5, FromNode: -1, ToNode: 2, Mode: "patrol"}
	if err := repo.SaveStates(ctx, []model.UnitAIRecord{rec}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	rec.Mode = "combat"
	rec.FromNode = 2
	if err := repo.SaveStates(ctx, []model.UnitAIRecord{rec}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.LoadStates(ctx, "sk-upsert")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(got))
	}
	if got[0].Mode != "combat" || got[0].FromNode != 2 {
		t.Fatalf("upsert did not update: %+v", got[0])
	}
}

func TestSaveStatesRejectsUnknownMode(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)
	ctx := context.Background()

	createTestSkirmish(t, repo, "sk-badmode")
	rec := model.UnitAIRecord{BattleID: "sk-badmode", UnitID: 1, FromNode: -1, ToNode: -1, Mode: "berserk"}
	if err := repo.SaveStates(ctx, []model.UnitAIRecord{rec}); err == nil {
		t.Fatal("expected check constraint error for unknown mode")
	}

	got, err := repo.LoadStates(ctx, "sk-badmode")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected rollback to leave no rows, got %d", len(got))
	}
}

func TestLoadStatesEmpty(t *testing.T) {
	setup(t)
	repo := NewAIStateRepo(testDB)

	got, err := repo.LoadStates(context.Background(), "sk-none")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}
