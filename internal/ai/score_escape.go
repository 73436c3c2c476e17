package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

const escapeFailed = -100000

// setupEscape searches for a reachable tile away from the aggressor and out
// of enemy sight. It tries the last cover first, then a shuffled 11x11
// neighbourhood, then random desperate dashes.
func (m *Module) setupEscape(d *decision) {
	t := m.tuning
	u := m.unit
	m.escape.reset()
	m.escapeTUs = 0

	dist := 0
	if m.aggro != nil {
		dist = battle.Distance2D(u.Pos, m.aggro.Pos)
	}
	search := battle.TileSearch()
	m.rng.Shuffle(len(search), func(i, j int) { search[i], search[j] = search[j], search[i] })

	bestScore := escapeFailed
	best := u.Pos
	tries := -1
	for tries < t.EscapeTries-1 {
		target := u.Pos
		score := 0
		switch {
		case tries == -1:
			if m.lastCover.Valid() && m.bc.Tile(m.lastCover) != nil {
				target = m.lastCover
			}
		case tries < t.SystematicTries && tries < len(search):
			target = target.Add(search[tries])
			score = t.EscapeBase
			if target == u.Pos {
				if d.spotting > 0 {
					target.X += m.rng.Generate(-20, 20)
					target.Y += m.rng.Generate(-20, 20)
				} else {
					score += t.EscapeStay
				}
			}
		default:
			score = t.EscapeDesperate
			target.X += m.rng.Generate(-10, 10)
			target.Y += m.rng.Generate(-10, 10)
		}
		tries++

		tile := m.bc.Tile(target)
		if tile == nil || !d.reachable.Contains(target) {
			continue
		}
		if m.aggro != nil {
			score += (battle.Distance2D(m.aggro.Pos, target) - dist) * t.EscapeDistance
		}
		spotters := m.spottingUnits(target)
		if d.spotting > 0 || spotters > 0 {
			if d.spotting <= spotters {
				score -= (1 + spotters - d.spotting) * t.EscapeExposure
			} else {
				score += (d.spotting - spotters) * t.EscapeExposure
			}
		}
		if tile.Fire > 0 {
			score -= t.EscapeFire
		}
		if tile.Dangerous {
			score -= t.EscapeBase
		}
		m.trace().Int("x", target.X).Int("y", target.Y).Int("score", score).Msg("escape candidate")

		if score <= bestScore {
			continue
		}
		cost := 1
		if target != u.Pos {
			p := m.bc.CalculatePath(u, target, 0)
			if !p.Reachable() {
				continue
			}
			cost = p.Cost
		}
		bestScore = score
		best = target
		m.escapeTUs = cost
		if bestScore > t.EscapeFastPass {
			break
		}
	}

	if bestScore <= escapeFailed {
		m.log.Debug().Int("tries", tries).Msg("escape search found no tile")
		m.escape.Type = battle.ActionRethink
		m.escapeTUs = 0
		return
	}
	m.escape.Type = battle.ActionWalk
	m.escape.Target = best
	m.escape.TU = m.escapeTUs
	m.escape.Score = bestScore
}
