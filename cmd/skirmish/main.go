package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/squad-tactics/internal/ai"
	"github.com/freeeve/squad-tactics/internal/config"
	"github.com/freeeve/squad-tactics/internal/logger"
	"github.com/freeeve/squad-tactics/internal/repository"
	"github.com/freeeve/squad-tactics/internal/repository/postgres"
	"github.com/freeeve/squad-tactics/internal/repository/redis"
)

func main() {
	logger.Init()
	cfg := config.Load()

	var (
		numGames   int
		workers    int
		turns      int
		perSide    int
		seed       int64
		engine     string
		mission    string
		dbURL      string
		redisURL   string
		tuningPath string
		watch      bool
		dryRun     bool
		jsonOut    bool
		debug      bool
	)

	flag.IntVar(&numGames, "n", 1, "Number of skirmishes to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel skirmishes)")
	flag.IntVar(&turns, "turns", 10, "Turn limit per skirmish")
	flag.IntVar(&perSide, "units", 4, "Units per side")
	flag.Int64Var(&seed, "seed", cfg.Seed, "Base seed (0 = random)")
	flag.StringVar(&engine, "engine", cfg.Engine, "AI engine (standard or brutal)")
	flag.StringVar(&mission, "mission", "", "Mission type exposed to doctrine rules")
	flag.StringVar(&dbURL, "db", cfg.DatabaseURL, "Database URL (or use DATABASE_URL env)")
	flag.StringVar(&redisURL, "redis", "", "Redis URL for live AI state (empty = no cache)")
	flag.StringVar(&tuningPath, "tuning", cfg.TuningFile, "YAML tuning file (or use AI_TUNING_FILE env)")
	flag.BoolVar(&watch, "watch", false, "Reload the tuning file between turns when it changes")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip database and cache writes")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&debug, "debug", false, "Log every AI decision")

	flag.Parse()

	if debug {
		logger.SetLevel(zerolog.DebugLevel)
	}

	tuning, err := config.LoadTuning(tuningPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", tuningPath).Msg("Invalid tuning")
	}
	if _, err := ai.EngineFor(engine); err != nil {
		log.Fatal().Err(err).Msg("Invalid engine")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Connect to stores (unless dry-run)
	var repo repository.AIStateRepository
	var cache repository.AIStateCache

	if !dryRun {
		db, err := postgres.Connect(ctx, dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		repo = postgres.NewAIStateRepo(db)

		if redisURL != "" {
			rc, err := redis.NewClient(ctx, redisURL)
			if err != nil {
				log.Fatal().Err(err).Msg("Redis connection failed")
			}
			defer rc.Close()
			cache = rc
		}
	}

	feeds := make([]chan *ai.Tuning, numGames)
	if watch && tuningPath != "" {
		updates, err := config.WatchTuning(ctx, tuningPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Tuning watch failed")
		}
		for i := range feeds {
			feeds[i] = make(chan *ai.Tuning, 1)
		}
		go fanOut(updates, feeds)
	}

	// Run skirmishes
	results := make([]*ai.SkirmishResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(workers, 1))
	errCount := 0

	for i := range numGames {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			gameSeed := seed
			if seed != 0 {
				gameSeed = seed + int64(idx)
			}

			scfg := ai.SkirmishConfig{
				Seed:    gameSeed,
				Turns:   turns,
				Engine:  engine,
				PerSide: perSide,
				Mission: mission,
				Tuning:  tuning,
				DryRun:  dryRun,
			}
			if feeds[idx] != nil {
				scfg.Tunings = feeds[idx]
			}

			result, err := ai.RunSkirmish(ctx, scfg, repo, cache)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("Skirmish failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("game", idx+1).Str("battle", result.BattleID).Str("winner", result.Winner).Int("turns", result.Turns).Msg("Skirmish completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, engine, turns, errCount, dryRun)
	}
}

// fanOut copies every reloaded tuning to each game's feed, replacing a
// value the game has not picked up yet.
func fanOut(src <-chan *ai.Tuning, feeds []chan *ai.Tuning) {
	for t := range src {
		for _, f := range feeds {
			select {
			case <-f:
			default:
			}
			f <- t
		}
	}
}

func printSummary(results []*ai.SkirmishResult, engine string, turns, errCount int, dryRun bool) {
	wins := make(map[string]int)
	actions := make(map[string]int)
	completed, draws, totalTurns := 0, 0, 0
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		totalTurns += r.Turns
		if r.Winner == "" {
			draws++
		} else {
			wins[r.Winner]++
		}
		for a, n := range r.Actions {
			actions[a] += n
		}
	}

	fmt.Printf("\nResults (%d skirmishes, %s engine, turn limit %d):\n", completed, engine, turns)
	if errCount > 0 {
		fmt.Printf("  (%d skirmishes failed)\n", errCount)
	}
	for _, f := range []string{"player", "hostile"} {
		fmt.Printf("  %-8s %d wins\n", f, wins[f])
	}
	fmt.Printf("  %-8s %d\n", "draws", draws)
	if completed > 0 {
		fmt.Printf("  avg turns: %.1f\n", float64(totalTurns)/float64(completed))
	}

	names := make([]string, 0, len(actions))
	for a := range actions {
		names = append(names, a)
	}
	sort.Slice(names, func(i, j int) bool { return actions[names[i]] > actions[names[j]] })
	fmt.Println("\nActions:")
	for _, a := range names {
		fmt.Printf("  %-12s %d\n", a, actions[a])
	}

	if !dryRun && completed > 0 {
		fmt.Println("\nSkirmishes and final AI state saved to database")
	}
}

func printJSON(results []*ai.SkirmishResult, total, errCount int) {
	out := struct {
		Total   int                  `json:"total"`
		Errors  int                  `json:"errors"`
		Results []*ai.SkirmishResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
