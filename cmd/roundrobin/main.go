package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/promptmate"
	"github.com/promptmate/config"
	"github.com/promptmate/provider"
	"github.com/promptmate/store"
	"github.com/promptmate/tournament"
)

var (
	variant   = flag.String("variant", "", "strict, chaos or timed")
	clockMs   = flag.Int64("clock_ms", 0, "initial clock per side in ms, timed variant only")
	timeoutMs = flag.Int64("timeout_ms", 0, "per move timeout in ms")
	maxPlies  = flag.Int("max_plies", 0, "ply budget per match")
	parallel  = flag.Int("parallel", 1, "matches to run at once")
	redisURL  = flag.String("redis", "", "redis url for archiving match records")
	debug     = flag.Bool("debug", false, "log at debug level")
)

func main() {
	flag.Parse()

	conf, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %s", err)
	}
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
	if *redisURL != "" {
		conf.RedisURL = *redisURL
	}
	if len(conf.Agents) < 2 {
		log.Fatalf("round robin needs at least two agents in the config roster")
	}

	logger := zap.NewNop()
	if *debug {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("error building logger: %s", err)
		}
	}

	chat := provider.NewChat(conf.Provider.BaseURL, conf.Provider.APIKey, logger)
	chat.Temperature = float32(conf.Provider.Temperature)
	chat.MaxTokens = conf.Provider.MaxTokens
	caller := &promptmate.RetryCaller{Caller: chat, Attempts: conf.Match.Retries}

	roster := make([]*promptmate.Agent, 0, len(conf.Agents))
	for _, a := range conf.Agents {
		roster = append(roster, promptmate.NewAgent(a.ID, a.Name, caller))
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
	t := tournament.New(roster, promptmate.MatchConfig{
		Variant:        promptmate.Variant(conf.Match.Variant),
		InitialClockMs: conf.Match.ClockMs,
		MoveTimeoutMs:  conf.Match.MoveTimeoutMs,
		MaxPlies:       conf.Match.MaxPlies,
	}, logger)
	t.Parallel = *parallel
	t.OnResult = func(id string, mc promptmate.MatchConfig, res *promptmate.MatchResult) {
		fmt.Println(scoreLine(mc, res))
		if err := rec.SaveResult(ctx, store.NewRecord(id, mc, res)); err != nil {
			log.Printf("error archiving match %s: %s", id, err)
		}
	}

	standings, err := t.Run(ctx)
	if err != nil {
		log.Printf("tournament finished with errors: %s", err)
	}
	printStandings(standings)
}

func scoreLine(mc promptmate.MatchConfig, res *promptmate.MatchResult) string {
	switch res.Winner {
	case chess.White:
		return fmt.Sprintf("%s 1-0 %s (%s)", mc.White, mc.Black, res.Reason)
	case chess.Black:
		return fmt.Sprintf("%s 0-1 %s (%s)", mc.White, mc.Black, res.Reason)
	}
	return fmt.Sprintf("%s 1/2-1/2 %s (%s)", mc.White, mc.Black, res.Reason)
}

func printStandings(standings []tournament.Standing) {
	fmt.Println()
	fmt.Printf("%-4s %-20s %8s %5s %5s %5s\n", "#", "agent", "rating", "W", "D", "L")
	for i, s := range standings {
		fmt.Printf("%-4d %-20s %8.1f %5.0f %5.0f %5.0f\n", i+1, s.Name, s.Rating, s.Wins, s.Draw, s.Loss)
	}
}
