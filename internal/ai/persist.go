package ai

import (
	"fmt"
	"time"

	"github.com/freeeve/squad-tactics/internal/model"
	"github.com/freeeve/squad-tactics/pkg/battle"
)

// Save captures the cross-turn state of the module. Per-call scratch state
// and the mode proposal caches are never part of the record.
func (m *Module) Save(battleID string) model.UnitAIRecord {
	rec := model.UnitAIRecord{
		BattleID:       battleID,
		UnitID:         m.unit.ID,
		FromNode:       nodeIndex(m.fromNode),
		ToNode:         nodeIndex(m.toNode),
		Mode:           m.mode.String(),
		WeaponPickedUp: m.weaponPickedUp,
		UpdatedAt:      time.Now().UTC(),
	}
	if len(m.wasHitBy) > 0 {
		rec.WasHitBy = append([]int(nil), m.wasHitBy...)
	}
	return rec
}

// Load restores state written by Save. Only an unknown mode is an error;
// node indices that no longer resolve to a node the unit fits are dropped.
func (m *Module) Load(rec model.UnitAIRecord) error {
	mode, err := ParseMode(rec.Mode)
	if err != nil {
		return fmt.Errorf("load unit %d: %w", rec.UnitID, err)
	}
	m.mode = mode
	m.fromNode = m.resolveNode(rec.FromNode, "from")
	m.toNode = m.resolveNode(rec.ToNode, "to")
	if m.toNode != nil {
		m.toNode.Allocated = true
	}
	m.wasHitBy = append(m.wasHitBy[:0], rec.WasHitBy...)
	m.weaponPickedUp = rec.WeaponPickedUp
	return nil
}

func (m *Module) resolveNode(idx int, which string) *battle.Node {
	if idx < 0 {
		return nil
	}
	nodes := m.bc.Nodes()
	if idx >= len(nodes) || nodes[idx] == nil || !nodes[idx].Fits(m.unit) {
		m.log.Debug().Str("link", which).Int("node", idx).Int("nodes", len(nodes)).Msg("dropping stale patrol node")
		return nil
	}
	return nodes[idx]
}

func nodeIndex(n *battle.Node) int {
	if n == nil {
		return -1
	}
	return n.ID
}
