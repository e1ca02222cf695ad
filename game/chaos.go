package game

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// ForceMove executes a rejected attempt literally, bypassing every rule
// check. The position is copied out of the FEN into a raw 8x8 grid, mutated,
// and serialized back: whatever sits on the source square moves to the
// destination square, overwriting any occupant, kings included. An empty
// source square produces a pawn of the acting color so a chaos move always
// lands. The promotion letter is applied as given, side to move flips, the
// en passant square clears, the halfmove clock resets, and the fullmove
// counter advances after black's move.
//
// The result can be chess nonsense (missing kings, impossible pawns); the
// only guarantee is that it serializes back into a well-formed FEN. Whether
// the rules library accepts it is the caller's problem to check.
func ForceMove(fen string, att *MoveAttempt, mover chess.Color) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return "", errors.Errorf("malformed FEN %q", fen)
	}

	grid, err := gridFromPlacement(fields[0])
	if err != nil {
		return "", err
	}

	fr, fc := gridIndex(att.From)
	tr, tc := gridIndex(att.To)

	piece := grid[fr][fc]
	if piece == 0 {
		piece = pawnFor(mover)
	}
	grid[fr][fc] = 0
	if att.Promotion != "" {
		piece = promoteTo(att.Promotion[0], mover)
	}
	grid[tr][tc] = piece

	fullmove, err := strconv.Atoi(fields[5])
	if err != nil {
		return "", errors.Errorf("malformed fullmove counter %q", fields[5])
	}
	if mover == chess.Black {
		fullmove++
	}
	turn := "b"
	if mover == chess.Black {
		turn = "w"
	}

	out := []string{placementFromGrid(grid), turn, fields[2], "-", "0", strconv.Itoa(fullmove)}
	return strings.Join(out, " "), nil
}

// gridFromPlacement expands the FEN piece placement field into an 8x8 byte
// grid, row 0 being rank 8. A zero byte is an empty square.
func gridFromPlacement(placement string) ([8][8]byte, error) {
	var grid [8][8]byte
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return grid, errors.Errorf("placement has %d ranks", len(ranks))
	}
	for r, rank := range ranks {
		c := 0
		for i := 0; i < len(rank); i++ {
			ch := rank[i]
			if ch >= '1' && ch <= '8' {
				c += int(ch - '0')
				continue
			}
			if !strings.ContainsRune("pnbrqkPNBRQK", rune(ch)) {
				return grid, errors.Errorf("unknown piece %q in placement", ch)
			}
			if c > 7 {
				return grid, errors.Errorf("rank %d overflows", 8-r)
			}
			grid[r][c] = ch
			c++
		}
		if c != 8 {
			return grid, errors.Errorf("rank %d has width %d", 8-r, c)
		}
	}
	return grid, nil
}

func placementFromGrid(grid [8][8]byte) string {
	var b strings.Builder
	for r := 0; r < 8; r++ {
		if r > 0 {
			b.WriteByte('/')
		}
		empty := 0
		for c := 0; c < 8; c++ {
			if grid[r][c] == 0 {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(grid[r][c])
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
	}
	return b.String()
}

// gridIndex maps "e2" style coordinates onto grid row and column.
func gridIndex(sq string) (int, int) {
	return int('8' - sq[1]), int(sq[0] - 'a')
}

func pawnFor(c chess.Color) byte {
	if c == chess.White {
		return 'P'
	}
	return 'p'
}

func promoteTo(letter byte, c chess.Color) byte {
	if c == chess.White {
		return letter - 'a' + 'A'
	}
	return letter
}
