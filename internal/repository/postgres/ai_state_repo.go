package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/freeeve/squad-tactics/internal/model"
)

// AIStateRepo handles skirmish and unit_ai_state database operations.
type AIStateRepo struct {
	db *sql.DB
}

// NewAIStateRepo creates an AIStateRepo.
func NewAIStateRepo(db *sql.DB) *AIStateRepo {
	return &AIStateRepo{db: db}
}

// CreateSkirmish inserts a running skirmish.
func (r *AIStateRepo) CreateSkirmish(ctx context.Context, id string, seed int64, engine string) (*model.SkirmishRecord, error) {
	var s model.SkirmishRecord
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO skirmishes (id, seed, engine)
		 VALUES ($1, $2, $3)
		 RETURNING id, seed, engine, turns, status, created_at`,
		id, seed, engine,
	).Scan(&s.ID, &s.Seed, &s.Engine, &s.Turns, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create skirmish: %w", err)
	}
	return &s, nil
}

// FinishSkirmish records the outcome of a skirmish.
func (r *AIStateRepo) FinishSkirmish(ctx context.Context, id, status string, turns int, survivors map[string]int) error {
	data, err := json.Marshal(survivors)
	if err != nil {
		return fmt.Errorf("marshal survivors: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE skirmishes SET status = $2, turns = $3, survivors = $4, finished_at = now()
		 WHERE id = $1`,
		id, status, turns, data,
	)
	if err != nil {
		return fmt.Errorf("finish skirmish: %w", err)
	}
	return nil
}

// FindSkirmish returns a skirmish by ID, or nil if missing.
func (r *AIStateRepo) FindSkirmish(ctx context.Context, id string) (*model.SkirmishRecord, error) {
	var s model.SkirmishRecord
	var survivors []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, seed, engine, turns, status, survivors, created_at, finished_at
		 FROM skirmishes WHERE id = $1`, id,
	).Scan(&s.ID, &s.Seed, &s.Engine, &s.Turns, &s.Status, &survivors, &s.CreatedAt, &s.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find skirmish: %w", err)
	}
	if len(survivors) > 0 {
		if err := json.Unmarshal(survivors, &s.Survivors); err != nil {
			return nil, fmt.Errorf("unmarshal survivors: %w", err)
		}
	}
	return &s, nil
}

// SaveStates upserts a batch of unit AI records in one transaction.
func (r *AIStateRepo) SaveStates(ctx context.Context, records []model.UnitAIRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO unit_ai_state (battle_id, unit_id, from_node, to_node, mode, was_hit_by, weapon_picked_up, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (battle_id, unit_id) DO UPDATE SET
		   from_node = EXCLUDED.from_node,
		   to_node = EXCLUDED.to_node,
		   mode = EXCLUDED.mode,
		   was_hit_by = EXCLUDED.was_hit_by,
		   weapon_picked_up = EXCLUDED.weapon_picked_up,
		   updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare upsert ai state: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		hits := make([]int64, len(rec.WasHitBy))
		for i, id := range rec.WasHitBy {
			hits[i] = int64(id)
		}
		_, err := stmt.ExecContext(ctx, rec.BattleID, rec.UnitID, rec.FromNode, rec.ToNode, rec.Mode,
			pq.Array(hits), rec.WeaponPickedUp)
		if err != nil {
			return fmt.Errorf("upsert ai state: %w", err)
		}
	}
	return tx.Commit()
}

// LoadStates returns every unit record of a battle ordered by unit.
func (r *AIStateRepo) LoadStates(ctx context.Context, battleID string) ([]model.UnitAIRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT battle_id, unit_id, from_node, to_node, mode, was_hit_by, weapon_picked_up, updated_at
		 FROM unit_ai_state WHERE battle_id = $1 ORDER BY unit_id`, battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("load ai states: %w", err)
	}
	defer rows.Close()

	var out []model.UnitAIRecord
	for rows.Next() {
		var rec model.UnitAIRecord
		var hits []int64
		if err := rows.Scan(&rec.BattleID, &rec.UnitID, &rec.FromNode, &rec.ToNode, &rec.Mode,
			pq.Array(&hits), &rec.WeaponPickedUp, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ai state: %w", err)
		}
		for _, h := range hits {
			rec.WasHitBy = append(rec.WasHitBy, int(h))
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
