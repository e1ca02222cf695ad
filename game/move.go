package game

import (
	"strings"

	"github.com/notnil/chess"
)

// ResignToken is the literal reply an agent sends to resign the game.
const ResignToken = "resign"

// promotions maps a promotion letter to its piece type.
var promotions = map[byte]chess.PieceType{
	'q': chess.Queen,
	'r': chess.Rook,
	'b': chess.Bishop,
	'n': chess.Knight,
}

// MoveAttempt is a move as the agent stated it: two squares in coordinate
// notation and an optional promotion letter. It carries no claim of legality.
type MoveAttempt struct {
	From      string
	To        string
	Promotion string
}

// String renders the attempt back into coordinate notation, eg "e2e4" or "e7e8q".
func (m *MoveAttempt) String() string {
	return m.From + m.To + m.Promotion
}

// FromSquare resolves the source square.
func (m *MoveAttempt) FromSquare() chess.Square {
	return squareAt(m.From)
}

// ToSquare resolves the destination square.
func (m *MoveAttempt) ToSquare() chess.Square {
	return squareAt(m.To)
}

// PromoPiece returns the promotion piece type, or NoPieceType when the
// attempt carries none.
func (m *MoveAttempt) PromoPiece() chess.PieceType {
	if m.Promotion == "" {
		return chess.NoPieceType
	}
	return promotions[m.Promotion[0]]
}

// ParseMove turns free-form model output into a MoveAttempt. Model replies
// arrive with all kinds of decoration (quotes, punctuation, a "Move:" label,
// stray whitespace), so the text is lowercased and stripped down to its
// alphanumeric characters before matching. Returns nil when no square pair
// can be recovered.
//
// A fifth character is read as a promotion letter; anything outside q/r/b/n
// there is dropped rather than failing the whole move, so a garbled
// promotion letter does not cost the agent an otherwise playable move.
func ParseMove(raw string) *MoveAttempt {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := strings.TrimPrefix(b.String(), "move")
	if len(s) < 4 || len(s) > 5 {
		return nil
	}

	from, to := s[:2], s[2:4]
	if !validSquare(from) || !validSquare(to) {
		return nil
	}

	att := &MoveAttempt{From: from, To: to}
	if len(s) == 5 {
		if _, ok := promotions[s[4]]; ok {
			att.Promotion = s[4:]
		}
	}
	return att
}

func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// squareAt maps "e2" style coordinates onto the board index. Callers must
// pass a square that already passed validSquare.
func squareAt(s string) chess.Square {
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return chess.Square(rank*8 + file)
}
