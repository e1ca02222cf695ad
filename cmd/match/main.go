package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/promptmate"
	"github.com/promptmate/config"
	"github.com/promptmate/provider"
	"github.com/promptmate/store"
)

var (
	whiteID    = flag.String("white", "", "model id for white (default: first agent in config)")
	blackID    = flag.String("black", "", "model id for black (default: second agent in config)")
	variant    = flag.String("variant", "", "strict, chaos or timed")
	clockMs    = flag.Int64("clock_ms", 0, "initial clock per side in ms, timed variant only")
	timeoutMs  = flag.Int64("timeout_ms", 0, "per move timeout in ms")
	maxPlies   = flag.Int("max_plies", 0, "ply budget before the match is called drawn")
	enginePath = flag.String("engine", "", "UCI engine path, seats the engine as black")
	redisURL   = flag.String("redis", "", "redis url for archiving match records")
	debug      = flag.Bool("debug", false, "log at debug level")
)

func main() {
	flag.Parse()

	conf, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %s", err)
	}
	applyFlags(conf)

	logger := zap.NewNop()
	if *debug {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("error building logger: %s", err)
		}
	}

	white, black, cleanup, err := seats(conf, logger)
	if err != nil {
		log.Fatalf("error seating agents: %s", err)
	}
	defer cleanup()

	arena, err := promptmate.NewArena(promptmate.MatchConfig{
		Variant:        promptmate.Variant(conf.Match.Variant),
		InitialClockMs: conf.Match.ClockMs,
		MoveTimeoutMs:  conf.Match.MoveTimeoutMs,
		MaxPlies:       conf.Match.MaxPlies,
	}, white, black, logger)
	if err != nil {
		log.Fatalf("error setting up match: %s", err)
	}

	var rec store.Recorder = store.Nop{}
	if conf.RedisURL != "" {
		r, err := store.NewRedis(conf.RedisURL, logger)
		if err != nil {
			log.Fatalf("error connecting to redis: %s", err)
		}
		defer r.Close()
		rec = r
	}

	ctx := context.Background()
	fmt.Printf("%s (white) vs %s (black), %s variant\n\n", white.Name, black.Name, conf.Match.Variant)

	var result *promptmate.MatchResult
	for ev := range arena.Play(ctx) {
		switch e := ev.(type) {
		case promptmate.StatusEvent:
			fmt.Printf("* %s\n", e.Message)
		case promptmate.MoveEvent:
			printMove(e)
		case promptmate.EndEvent:
			res := e.Result
			result = &res
		}
	}
	if result == nil {
		log.Fatalf("match %s ended without a result", arena.ID())
	}
	printResult(result)

	if err := rec.SaveResult(ctx, store.NewRecord(arena.ID(), arena.Config(), result)); err != nil {
		log.Fatalf("error archiving match: %s", err)
	}
}

func applyFlags(conf *config.Config) {
	if *variant != "" {
		conf.Match.Variant = *variant
	}
	if *clockMs > 0 {
		conf.Match.ClockMs = *clockMs
	}
	if *timeoutMs > 0 {
		conf.Match.MoveTimeoutMs = *timeoutMs
	}
	if *maxPlies > 0 {
		conf.Match.MaxPlies = *maxPlies
	}
	if *enginePath != "" {
		conf.EnginePath = *enginePath
	}
	if *redisURL != "" {
		conf.RedisURL = *redisURL
	}
}

// seats builds the two agents. White always talks to the chat endpoint; black
// does too unless an engine path seats a UCI engine instead.
func seats(conf *config.Config, logger *zap.Logger) (white, black *promptmate.Agent, cleanup func(), err error) {
	cleanup = func() {}

	chat := provider.NewChat(conf.Provider.BaseURL, conf.Provider.APIKey, logger)
	chat.Temperature = float32(conf.Provider.Temperature)
	chat.MaxTokens = conf.Provider.MaxTokens
	caller := &promptmate.RetryCaller{Caller: chat, Attempts: conf.Match.Retries}

	w, err := pickAgent(conf, *whiteID, 0)
	if err != nil {
		return nil, nil, cleanup, err
	}
	white = promptmate.NewAgent(w.ID, w.Name, caller)

	if conf.EnginePath != "" {
		eng, err := provider.NewEngine(conf.EnginePath, 0)
		if err != nil {
			return nil, nil, cleanup, err
		}
		cleanup = func() { eng.Close() }
		black = promptmate.NewAgent("engine", engineName(conf.EnginePath), eng)
		return white, black, cleanup, nil
	}

	b, err := pickAgent(conf, *blackID, 1)
	if err != nil {
		return nil, nil, cleanup, err
	}
	black = promptmate.NewAgent(b.ID, b.Name, caller)
	return white, black, cleanup, nil
}

func pickAgent(conf *config.Config, id string, idx int) (config.AgentSpec, error) {
	if id == "" {
		if idx >= len(conf.Agents) {
			return config.AgentSpec{}, errors.Errorf("roster has no agent at position %d, pass -white/-black", idx)
		}
		return conf.Agents[idx], nil
	}
	for _, a := range conf.Agents {
		if a.ID == id {
			return a, nil
		}
	}
	// Unlisted ids are fine, the provider decides whether the model exists.
	return config.AgentSpec{ID: id, Name: id}, nil
}

func engineName(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func printMove(e promptmate.MoveEvent) {
	line := fmt.Sprintf("%3d. %-6s %s", e.MoveNumber, e.Move, e.Color.Name())
	if e.Note != "" {
		line += " (" + e.Note + ")"
	}
	if e.Clocks != nil {
		line += fmt.Sprintf("  [w %s  b %s]", clockWord(e.Clocks.WhiteMs), clockWord(e.Clocks.BlackMs))
	}
	fmt.Println(line)
}

func printResult(res *promptmate.MatchResult) {
	fmt.Println()
	if res.Winner == chess.NoColor {
		fmt.Printf("Draw (%s) after %d moves\n", res.Reason, len(res.MoveHistory))
	} else {
		fmt.Printf("%s wins by %s after %d moves\n", res.Winner.Name(), res.Reason, len(res.MoveHistory))
	}
	if res.GameRecord != "" {
		fmt.Println(res.GameRecord)
	}
	fmt.Printf("final position: %s\n", res.FinalPosition)
}

func clockWord(ms int64) string {
	return fmt.Sprintf("%d:%02d", ms/60000, (ms%60000)/1000)
}
