package store

import (
	"context"
	"time"

	"github.com/notnil/chess"

	"github.com/promptmate"
)

// Record is the archived form of a finished match, flattened to plain JSON
// fields so other tooling can read it without this module's types.
type Record struct {
	ID            string    `json:"id"`
	White         string    `json:"white"`
	Black         string    `json:"black"`
	Variant       string    `json:"variant"`
	Winner        string    `json:"winner"` // "white", "black" or "draw"
	Reason        string    `json:"reason"`
	Moves         []string  `json:"moves"`
	GameRecord    string    `json:"game_record"`
	FinalPosition string    `json:"final_position"`
	StrikesWhite  int       `json:"strikes_white"`
	StrikesBlack  int       `json:"strikes_black"`
	ClockWhiteMs  int64     `json:"clock_white_ms,omitempty"`
	ClockBlackMs  int64     `json:"clock_black_ms,omitempty"`
	FinishedAt    time.Time `json:"finished_at"`
}

// NewRecord flattens a terminal result for archiving.
func NewRecord(id string, conf promptmate.MatchConfig, res *promptmate.MatchResult) Record {
	rec := Record{
		ID:            id,
		White:         conf.White,
		Black:         conf.Black,
		Variant:       string(conf.Variant),
		Winner:        winnerWord(res.Winner),
		Reason:        string(res.Reason),
		Moves:         res.MoveHistory,
		GameRecord:    res.GameRecord,
		FinalPosition: res.FinalPosition,
		StrikesWhite:  res.Strikes.White,
		StrikesBlack:  res.Strikes.Black,
		FinishedAt:    time.Now().UTC(),
	}
	if res.Clocks != nil {
		rec.ClockWhiteMs = res.Clocks.WhiteMs
		rec.ClockBlackMs = res.Clocks.BlackMs
	}
	return rec
}

func winnerWord(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	}
	return "draw"
}

// Recorder archives finished matches. Implementations must tolerate calls
// from concurrently running matches.
type Recorder interface {
	SaveResult(ctx context.Context, rec Record) error
	LoadResult(ctx context.Context, id string) (*Record, error)
	ListByAgent(ctx context.Context, agentID string) ([]string, error)
}

// Nop discards everything, for when archiving is switched off.
type Nop struct{}

func (Nop) SaveResult(context.Context, Record) error { return nil }

func (Nop) LoadResult(context.Context, string) (*Record, error) { return nil, nil }

func (Nop) ListByAgent(context.Context, string) ([]string, error) { return nil, nil }
