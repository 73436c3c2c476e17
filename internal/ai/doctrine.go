package ai

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"
)

// ModeEnv is the environment doctrine conditions are evaluated against.
type ModeEnv struct {
	Mission    string
	Turn       int
	Mode       string
	Health     int
	MaxHealth  int
	Morale     int
	Aggression int
	Known      int
	Visible    int
	Spotting   int
	Large      bool
}

// DoctrineRule multiplies mode odds when its condition holds. Nil
// multipliers leave that mode untouched.
type DoctrineRule struct {
	Name   string   `yaml:"name"`
	When   string   `yaml:"when"`
	Patrol *float64 `yaml:"patrol,omitempty"`
	Ambush *float64 `yaml:"ambush,omitempty"`
	Combat *float64 `yaml:"combat,omitempty"`
	Escape *float64 `yaml:"escape,omitempty"`

	program *vm.Program
}

// CompileDoctrine compiles every rule condition to expr bytecode, keeping
// input order.
func CompileDoctrine(rules []DoctrineRule) ([]DoctrineRule, error) {
	out := make([]DoctrineRule, len(rules))
	for i, r := range rules {
		prog, err := expr.Compile(r.When, expr.Env(ModeEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile doctrine %q: %w", r.Name, err)
		}
		r.program = prog
		out[i] = r
	}
	return out, nil
}

// applyDoctrine scales odds by every matching rule. A rule that fails at
// runtime is skipped.
func applyDoctrine(rules []DoctrineRule, env ModeEnv, odds ModeOdds, l zerolog.Logger) ModeOdds {
	for _, r := range rules {
		if r.program == nil {
			continue
		}
		result, err := vm.Run(r.program, env)
		if err != nil {
			l.Debug().Str("rule", r.Name).Err(err).Msg("doctrine condition error")
			continue
		}
		if match, ok := result.(bool); !ok || !match {
			continue
		}
		if r.Patrol != nil {
			odds.Patrol *= *r.Patrol
		}
		if r.Ambush != nil {
			odds.Ambush *= *r.Ambush
		}
		if r.Combat != nil {
			odds.Combat *= *r.Combat
		}
		if r.Escape != nil {
			odds.Escape *= *r.Escape
		}
	}
	return odds
}
