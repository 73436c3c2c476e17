package ai

import "fmt"

// ModeOdds are the lottery weights for the four behavior modes.
type ModeOdds struct {
	Patrol float64 `yaml:"patrol"`
	Ambush float64 `yaml:"ambush"`
	Combat float64 `yaml:"combat"`
	Escape float64 `yaml:"escape"`
}

// Sum returns the total weight.
func (o ModeOdds) Sum() float64 {
	return o.Patrol + o.Ambush + o.Combat + o.Escape
}

// HealthTier scales mode odds when health falls below Num/Den of maximum.
// Tiers compound: a unit below every threshold gets every multiplier.
type HealthTier struct {
	Num    int     `yaml:"num"`
	Den    int     `yaml:"den"`
	Escape float64 `yaml:"escape"`
	Combat float64 `yaml:"combat"`
	Ambush float64 `yaml:"ambush"`
}

// Tuning holds every weight and threshold the scorers and engines consult.
type Tuning struct {
	Engine  string `yaml:"engine"`
	TraceAI bool   `yaml:"trace_ai"`

	BaseOdds          ModeOdds     `yaml:"base_odds"`
	PatrolWithVisible float64      `yaml:"patrol_with_visible"`
	EscapeMelee       float64      `yaml:"escape_melee"`
	EscapeFresh       float64      `yaml:"escape_fresh"`
	Inertia           float64      `yaml:"inertia"`
	CombatAmbush      float64      `yaml:"combat_ambush"`
	AmbushReady       float64      `yaml:"ambush_ready"`
	AmbushMinDist     int          `yaml:"ambush_min_dist"`
	HealthTiers       []HealthTier `yaml:"health_tiers"`
	// AggressionTiers are multipliers indexed by aggression; higher
	// aggression uses a sliding scale instead.
	AggressionTiers  []ModeOdds `yaml:"aggression_tiers"`
	PatrolRethinkPct int        `yaml:"patrol_rethink_pct"`

	FireBandNear int `yaml:"fire_band_near"`
	FireBandFar  int `yaml:"fire_band_far"`
	SpotterRange int `yaml:"spotter_range"`
	Difficulty   int `yaml:"difficulty"`

	TurnUseGrenade       int `yaml:"turn_use_grenade"`
	TurnUseLauncher      int `yaml:"turn_use_launcher"`
	DesperationThreshold int `yaml:"desperation_threshold"`

	AmbushRadius    int `yaml:"ambush_radius"`
	AmbushBase      int `yaml:"ambush_base"`
	AmbushCover     int `yaml:"ambush_cover"`
	AmbushFastPass  int `yaml:"ambush_fast_pass"`
	EscapeTries     int `yaml:"escape_tries"`
	SystematicTries int `yaml:"systematic_tries"`
	EscapeBase      int `yaml:"escape_base"`
	EscapeDesperate int `yaml:"escape_desperate"`
	EscapeFastPass  int `yaml:"escape_fast_pass"`
	EscapeExposure  int `yaml:"escape_exposure"`
	EscapeFire      int `yaml:"escape_fire"`
	EscapeStay      int `yaml:"escape_stay"`
	EscapeDistance  int `yaml:"escape_distance"`

	FirePointBase     int `yaml:"fire_point_base"`
	FirePointFastPass int `yaml:"fire_point_fast_pass"`
	FirePointMin      int `yaml:"fire_point_min"`
	FirePointSpotter  int `yaml:"fire_point_spotter"`
	FirePointSector   int `yaml:"fire_point_sector"`
	FirePointRange    int `yaml:"fire_point_range"`

	PsiPanicBonus int `yaml:"psi_panic_bonus"`
	PsiUseBonus   int `yaml:"psi_use_bonus"`
	PsiUnarmedMin int `yaml:"psi_unarmed_min"`
	PsiUnarmedMax int `yaml:"psi_unarmed_max"`

	JitterPerMissingIntel int     `yaml:"jitter_per_missing_intel"`
	BurstPerAggression    float64 `yaml:"burst_per_aggression"`

	BrutalTierAttack  float64 `yaml:"brutal_tier_attack"`
	BrutalTierShelter float64 `yaml:"brutal_tier_shelter"`
	BrutalTierCloser  float64 `yaml:"brutal_tier_closer"`
	BrutalDistance    float64 `yaml:"brutal_distance"`
	BrutalWalkCost    float64 `yaml:"brutal_walk_cost"`
	BrutalSmoke       float64 `yaml:"brutal_smoke"`
	BrutalCover       float64 `yaml:"brutal_cover"`
	BrutalCluster     float64 `yaml:"brutal_cluster"`
	BrutalDanger      float64 `yaml:"brutal_danger"`

	Doctrine []DoctrineRule `yaml:"doctrine"`
}

func scale(v float64) *float64 { return &v }

// DefaultTuning returns the built-in weights with doctrine compiled.
func DefaultTuning() *Tuning {
	t := &Tuning{
		Engine:            EngineStandard,
		BaseOdds:          ModeOdds{Patrol: 30, Ambush: 12, Combat: 20, Escape: 15},
		PatrolWithVisible: 15,
		EscapeMelee:       12,
		EscapeFresh:       5,
		Inertia:           1.1,
		CombatAmbush:      1.5,
		AmbushReady:       1.7,
		AmbushMinDist:     5,
		HealthTiers: []HealthTier{
			{Num: 1, Den: 1, Escape: 1.1, Combat: 1, Ambush: 1},
			{Num: 2, Den: 3, Escape: 1.3, Combat: 0.8, Ambush: 0.8},
			{Num: 1, Den: 3, Escape: 1.2, Combat: 0.75, Ambush: 0.9375},
		},
		AggressionTiers: []ModeOdds{
			{Patrol: 1, Ambush: 1, Combat: 0.7, Escape: 1.4},
			{Patrol: 1, Ambush: 1.5, Combat: 1, Escape: 1},
			{Patrol: 1, Ambush: 1, Combat: 1.4, Escape: 0.7},
		},
		PatrolRethinkPct: 10,

		FireBandNear: 4,
		FireBandFar:  12,
		SpotterRange: 20,

		TurnUseGrenade:       1,
		TurnUseLauncher:      1,
		DesperationThreshold: 6,

		AmbushRadius:    10,
		AmbushBase:      100,
		AmbushCover:     25,
		AmbushFastPass:  80,
		EscapeTries:     150,
		SystematicTries: 121,
		EscapeBase:      100,
		EscapeDesperate: 110,
		EscapeFastPass:  100,
		EscapeExposure:  10,
		EscapeFire:      40,
		EscapeStay:      15,
		EscapeDistance:  10,

		FirePointBase:     100,
		FirePointFastPass: 125,
		FirePointMin:      70,
		FirePointSpotter:  10,
		FirePointSector:   10,
		FirePointRange:    10,

		PsiPanicBonus: 10,
		PsiUseBonus:   5,
		PsiUnarmedMin: 35,
		PsiUnarmedMax: 155,

		JitterPerMissingIntel: 5,
		BurstPerAggression:    0.1,

		BrutalTierAttack:  3000,
		BrutalTierShelter: 2000,
		BrutalTierCloser:  1000,
		BrutalDistance:    100,
		BrutalWalkCost:    50,
		BrutalSmoke:       20,
		BrutalCover:       30,
		BrutalCluster:     25,
		BrutalDanger:      400,

		Doctrine: []DoctrineRule{
			{Name: "hold-the-base", When: `Mission == "base_defense"`, Escape: scale(0.75), Ambush: scale(0.6)},
		},
	}
	if err := t.Compile(); err != nil {
		panic(fmt.Sprintf("default doctrine: %v", err))
	}
	return t
}

// Compile validates the tuning and compiles its doctrine rules.
func (t *Tuning) Compile() error {
	if t.Engine != "" {
		if _, err := EngineFor(t.Engine); err != nil {
			return err
		}
	}
	for i, h := range t.HealthTiers {
		if h.Den <= 0 {
			return fmt.Errorf("health tier %d: denominator must be positive", i)
		}
	}
	rules, err := CompileDoctrine(t.Doctrine)
	if err != nil {
		return err
	}
	t.Doctrine = rules
	return nil
}
