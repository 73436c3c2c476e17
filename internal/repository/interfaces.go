package repository

import (
	"context"

	"github.com/freeeve/squad-tactics/internal/model"
)

// AIStateRepository defines durable AI state and skirmish operations.
type AIStateRepository interface {
	CreateSkirmish(ctx context.Context, id string, seed int64, engine string) (*model.SkirmishRecord, error)
	FinishSkirmish(ctx context.Context, id, status string, turns int, survivors map[string]int) error
	FindSkirmish(ctx context.Context, id string) (*model.SkirmishRecord, error)
	SaveStates(ctx context.Context, records []model.UnitAIRecord) error
	LoadStates(ctx context.Context, battleID string) ([]model.UnitAIRecord, error)
}

// AIStateCache defines live battle AI state operations (Redis).
type AIStateCache interface {
	SetUnitState(ctx context.Context, rec model.UnitAIRecord) error
	GetUnitState(ctx context.Context, battleID string, unitID int) (*model.UnitAIRecord, error)
	ClaimNode(ctx context.Context, battleID string, nodeID int) (bool, error)
	ReleaseNode(ctx context.Context, battleID string, nodeID int) error
	ClaimedNodes(ctx context.Context, battleID string) ([]int, error)
	DeleteBattle(ctx context.Context, battleID string) error
}
