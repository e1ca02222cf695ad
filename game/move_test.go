package game

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string // empty means the text is rejected
	}{
		{name: "bare move", raw: "e2e4", want: "e2e4"},
		{name: "uppercase", raw: "E2E4", want: "e2e4"},
		{name: "surrounding noise", raw: "  \"e2e4\". ", want: "e2e4"},
		{name: "move label", raw: "Move: e2e4", want: "e2e4"},
		{name: "promotion", raw: "e7e8q", want: "e7e8q"},
		{name: "uppercase promotion", raw: "E7E8Q", want: "e7e8q"},
		{name: "garbled promotion letter dropped", raw: "e7e8x", want: "e7e8"},
		{name: "empty", raw: "", want: ""},
		{name: "whitespace only", raw: "  \n\t ", want: ""},
		{name: "resign token is not a move", raw: "resign", want: ""},
		{name: "commentary", raw: "I would play e2e4 to control the center", want: ""},
		{name: "numbered move", raw: "1. e2e4", want: ""},
		{name: "bad source square", raw: "z9e4", want: ""},
		{name: "bad target square", raw: "e2e9", want: ""},
		{name: "too short", raw: "e2e", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := ParseMove(tt.raw)
			if tt.want == "" {
				assert.Nil(t, att)
				return
			}
			require.NotNil(t, att)
			assert.Equal(t, tt.want, att.String())
		})
	}
}

func TestMoveAttemptSquares(t *testing.T) {
	att := ParseMove("e2e4")
	require.NotNil(t, att)
	assert.Equal(t, chess.E2, att.FromSquare())
	assert.Equal(t, chess.E4, att.ToSquare())
	assert.Equal(t, chess.NoPieceType, att.PromoPiece())

	promo := ParseMove("a7a8n")
	require.NotNil(t, promo)
	assert.Equal(t, chess.A7, promo.FromSquare())
	assert.Equal(t, chess.A8, promo.ToSquare())
	assert.Equal(t, chess.Knight, promo.PromoPiece())
}
