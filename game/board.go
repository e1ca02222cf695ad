package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Board wraps a notnil/chess game and exposes the narrow surface the match
// loop needs: attempt application, rejection diagnosis, terminal detection
// and serialization. One Board belongs to exactly one match.
type Board struct {
	g *chess.Game
}

// NewBoard returns a board at the standard starting position.
func NewBoard() *Board {
	return &Board{g: chess.NewGame()}
}

// NewBoardFEN returns a board at the given position.
func NewBoardFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.WithMessage(err, "parse FEN")
	}
	return &Board{g: chess.NewGame(opt)}, nil
}

// Turn returns the color to move.
func (b *Board) Turn() chess.Color {
	return b.g.Position().Turn()
}

// FEN returns the current position string.
func (b *Board) FEN() string {
	return b.g.Position().String()
}

// PGN returns the game record so far. After a chaos rebuild this covers the
// segment since the rebuild; the move history remains the full transcript.
func (b *Board) PGN() string {
	return strings.TrimSpace(b.g.String())
}

// MoveNumber returns the full-move number of the current position.
func (b *Board) MoveNumber() int {
	fields := strings.Fields(b.FEN())
	if len(fields) != 6 {
		return 0
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil {
		return 0
	}
	return n
}

// Apply plays the attempt if it is legal in the current position, returning
// the applied move in coordinate notation. The attempt matches a legal move
// only when source, destination and promotion piece all agree, so "e7e8"
// without a letter does not pass for a promotion.
func (b *Board) Apply(att *MoveAttempt) (string, error) {
	for _, m := range b.g.ValidMoves() {
		if m.S1() == att.FromSquare() && m.S2() == att.ToSquare() && m.Promo() == att.PromoPiece() {
			if err := b.g.Move(m); err != nil {
				return "", errors.WithMessagef(err, "apply %s", att)
			}
			return m.String(), nil
		}
	}
	return "", errors.Errorf("%s is not legal here", att)
}

// Diagnose explains why the attempt was rejected, for the correction note in
// the next prompt. Three cases: empty source square, opponent's piece on the
// source square, or a movable piece whose move simply is not legal.
func (b *Board) Diagnose(att *MoveAttempt) string {
	p := b.g.Position().Board().Piece(att.FromSquare())
	turn := b.Turn()
	switch {
	case p == chess.NoPiece:
		return fmt.Sprintf("no piece on %s", att.From)
	case p.Color() != turn:
		return fmt.Sprintf("%s holds a %s piece but %s is to move",
			att.From, colorWord(p.Color()), colorWord(turn))
	default:
		return fmt.Sprintf("%s is not a legal move in this position", att)
	}
}

// Outcome reports whether the game has ended and how. Checkmate, stalemate
// and insufficient material are declared by the rules library on its own;
// threefold repetition and the fifty-move rule are claimable draws, so they
// are claimed here, repetition first.
func (b *Board) Outcome() (chess.Outcome, chess.Method, bool) {
	if b.g.Outcome() == chess.NoOutcome {
		b.claimDraw()
	}
	out := b.g.Outcome()
	if out == chess.NoOutcome {
		return out, chess.NoMethod, false
	}
	return out, b.g.Method(), true
}

func (b *Board) claimDraw() {
	eligible := b.g.EligibleDraws()
	for _, want := range []chess.Method{chess.ThreefoldRepetition, chess.FiftyMoveRule} {
		for _, m := range eligible {
			if m == want {
				b.g.Draw(m)
				return
			}
		}
	}
}

// Reset replaces the game with one rebuilt from fen. Used after a chaos
// move rewrote the position outside the rules library.
func (b *Board) Reset(fen string) error {
	nb, err := NewBoardFEN(fen)
	if err != nil {
		return err
	}
	b.g = nb.g
	return nil
}

func colorWord(c chess.Color) string {
	return strings.ToLower(c.Name())
}
