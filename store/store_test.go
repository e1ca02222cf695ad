package store

import (
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"

	"github.com/promptmate"
)

func TestNewRecord(t *testing.T) {
	res := &promptmate.MatchResult{
		Winner:        chess.Black,
		Reason:        promptmate.ReasonCheckmate,
		MoveHistory:   []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		GameRecord:    "1. f3 e5 2. g4 Qh4# 0-1",
		Strikes:       promptmate.Strikes{White: 1},
		Clocks:        &promptmate.ClockState{WhiteMs: 1000, BlackMs: 2000},
		FinalPosition: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
	}
	conf := promptmate.MatchConfig{White: "gpt-a", Black: "gpt-b", Variant: promptmate.VariantStrict}

	rec := NewRecord("m-1", conf, res)
	assert.Equal(t, "m-1", rec.ID)
	assert.Equal(t, "gpt-a", rec.White)
	assert.Equal(t, "gpt-b", rec.Black)
	assert.Equal(t, "strict", rec.Variant)
	assert.Equal(t, "black", rec.Winner)
	assert.Equal(t, "checkmate", rec.Reason)
	assert.Equal(t, res.MoveHistory, rec.Moves)
	assert.Equal(t, res.FinalPosition, rec.FinalPosition)
	assert.Equal(t, 1, rec.StrikesWhite)
	assert.Equal(t, 0, rec.StrikesBlack)
	assert.Equal(t, int64(1000), rec.ClockWhiteMs)
	assert.Equal(t, int64(2000), rec.ClockBlackMs)
	assert.WithinDuration(t, time.Now().UTC(), rec.FinishedAt, time.Minute)
}

func TestNewRecordDraw(t *testing.T) {
	res := &promptmate.MatchResult{Winner: chess.NoColor, Reason: promptmate.ReasonMaxMove}
	rec := NewRecord("m-2", promptmate.MatchConfig{White: "a", Black: "b"}, res)
	assert.Equal(t, "draw", rec.Winner)
	assert.Equal(t, "max-move", rec.Reason)
	assert.Zero(t, rec.ClockWhiteMs)
	assert.Zero(t, rec.ClockBlackMs)
}

func TestWinnerWord(t *testing.T) {
	assert.Equal(t, "white", winnerWord(chess.White))
	assert.Equal(t, "black", winnerWord(chess.Black))
	assert.Equal(t, "draw", winnerWord(chess.NoColor))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "arena:match:m-1", matchKey("m-1"))
	assert.Equal(t, "arena:agent:gpt-a", agentKey("gpt-a"))
}
