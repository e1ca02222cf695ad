package promptmate

import "github.com/notnil/chess"

// Event is one entry in the ordered stream a match emits. It is a closed
// union of StatusEvent, MoveEvent and EndEvent; consumers switch on the
// concrete type. Events arrive in ply order and EndEvent, when present, is
// the final one. A cancelled match closes the stream without an EndEvent.
type Event interface {
	event()
}

// StatusEvent is informational: match start, an illegal attempt and its
// strike count, a provider failure. It never moves the game forward.
type StatusEvent struct {
	Message string      `json:"message"`
	Strikes *Strikes    `json:"strikes,omitempty"`
	Clocks  *ClockState `json:"clocks,omitempty"`
}

// MoveEvent is an accepted ply: a legal move, a chaos-executed illegal
// move (Note "chaos"), or the resignation token (Note "resigned").
type MoveEvent struct {
	Move       string      `json:"move"`
	Position   string      `json:"position"`
	GameRecord string      `json:"game_record,omitempty"`
	MoveNumber int         `json:"move_number"`
	Ply        int         `json:"ply"`
	Color      chess.Color `json:"color"`
	Strikes    Strikes     `json:"strikes"`
	Clocks     *ClockState `json:"clocks,omitempty"`
	Note       string      `json:"note,omitempty"`
	ElapsedMs  int64       `json:"elapsed_ms,omitempty"`
}

// EndEvent closes the stream with the match result.
type EndEvent struct {
	Result MatchResult `json:"result"`
}

func (StatusEvent) event() {}
func (MoveEvent) event()   {}
func (EndEvent) event()    {}
