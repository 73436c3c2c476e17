package model

import "time"

// UnitAIRecord is the persisted cross-turn AI state of one unit.
// Node indices are -1 when unset.
type UnitAIRecord struct {
	BattleID       string    `json:"battle_id"`
	UnitID         int       `json:"unit_id"`
	FromNode       int       `json:"from_node"`
	ToNode         int       `json:"to_node"`
	Mode           string    `json:"mode"`
	WasHitBy       []int     `json:"was_hit_by,omitempty"`
	WeaponPickedUp bool      `json:"weapon_picked_up"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SkirmishRecord is one headless AI-vs-AI battle.
type SkirmishRecord struct {
	ID         string         `json:"id"`
	Seed       int64          `json:"seed"`
	Engine     string         `json:"engine"`
	Turns      int            `json:"turns"`
	Status     string         `json:"status"` // running, finished, aborted
	Survivors  map[string]int `json:"survivors,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
