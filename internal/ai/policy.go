package ai

import "github.com/freeeve/squad-tactics/pkg/battle"

// Policy is the behavior descriptor resolved once per unit. Engines consult
// it instead of re-reading unit-kind flags on every call.
type Policy struct {
	Engine       Engine
	Aggression   int
	Intelligence int
	Reckless     bool
	TraceAI      bool
}

// PolicyFor resolves the policy for u. Units flagged Brutal always run the
// brutal engine regardless of the tuning's engine name.
func PolicyFor(u *battle.Unit, t *Tuning) (Policy, error) {
	name := t.Engine
	if u.Brutal {
		name = EngineBrutal
	}
	e, err := EngineFor(name)
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		Engine:       e,
		Aggression:   max(u.Aggression, 0),
		Intelligence: max(u.Intelligence, 0),
		Reckless:     u.Reckless,
		TraceAI:      t.TraceAI,
	}, nil
}

// targetFactionFor returns the faction a unit currently fighting for f hunts.
// Mind control changes a unit's faction mid-battle, so callers resolve this
// per call.
func targetFactionFor(f battle.Faction) battle.Faction {
	if f == battle.FactionHostile {
		return battle.FactionPlayer
	}
	return battle.FactionHostile
}
