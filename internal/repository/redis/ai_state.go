package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/squad-tactics/internal/model"
)

// Key patterns for Redis battle AI state.
func unitKey(battleID string, unitID int) string { return "battle:" + battleID + ":ai:" + strconv.Itoa(unitID) }
func unitsKey(battleID string) string             { return "battle:" + battleID + ":ai" }
func nodesKey(battleID string) string             { return "battle:" + battleID + ":nodes" }

// SetUnitState stores a unit's AI record as JSON.
func (c *Client) SetUnitState(ctx context.Context, rec model.UnitAIRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal unit state: %w", err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, unitKey(rec.BattleID, rec.UnitID), data, 0)
	pipe.SAdd(ctx, unitsKey(rec.BattleID), rec.UnitID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set unit state: %w", err)
	}
	return nil
}

// GetUnitState retrieves a unit's AI record, or nil if missing.
func (c *Client) GetUnitState(ctx context.Context, battleID string, unitID int) (*model.UnitAIRecord, error) {
	data, err := c.rdb.Get(ctx, unitKey(battleID, unitID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get unit state: %w", err)
	}
	var rec model.UnitAIRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal unit state: %w", err)
	}
	return &rec, nil
}

// ClaimNode marks a patrol node as claimed. It reports false if another
// unit already holds it.
func (c *Client) ClaimNode(ctx context.Context, battleID string, nodeID int) (bool, error) {
	n, err := c.rdb.SAdd(ctx, nodesKey(battleID), nodeID).Result()
	if err != nil {
		return false, fmt.Errorf("claim node: %w", err)
	}
	return n == 1, nil
}

// ReleaseNode frees a claimed patrol node.
func (c *Client) ReleaseNode(ctx context.Context, battleID string, nodeID int) error {
	return c.rdb.SRem(ctx, nodesKey(battleID), nodeID).Err()
}

// ClaimedNodes lists claimed patrol nodes in ascending order.
func (c *Client) ClaimedNodes(ctx context.Context, battleID string) ([]int, error) {
	members, err := c.rdb.SMembers(ctx, nodesKey(battleID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list claimed nodes: %w", err)
	}
	out := make([]int, 0, len(members))
	for _, s := range members {
		id, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("parse node id %q: %w", s, err)
		}
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

// DeleteBattle removes all Redis data for a battle.
func (c *Client) DeleteBattle(ctx context.Context, battleID string) error {
	units, err := c.rdb.SMembers(ctx, unitsKey(battleID)).Result()
	if err != nil {
		return fmt.Errorf("list battle units: %w", err)
	}
	keys := []string{unitsKey(battleID), nodesKey(battleID)}
	for _, u := range units {
		keys = append(keys, "battle:"+battleID+":ai:"+u)
	}
	return c.rdb.Del(ctx, keys...).Err()
}
