package promptmate

import (
	"github.com/hashicorp/go-multierror"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Variant selects the rule set a match is played under.
type Variant string

const (
	// VariantStrict rejects illegal moves; three consecutive ones forfeit.
	VariantStrict Variant = "strict"
	// VariantChaos executes illegal moves literally instead of rejecting
	// them. Strikes are still counted for display but never forfeit.
	VariantChaos Variant = "chaos"
	// VariantTimed is strict play with per-side countdown clocks.
	VariantTimed Variant = "timed"
)

// Reason is the closed set of ways a match can end.
type Reason string

const (
	ReasonCheckmate    Reason = "checkmate"
	ReasonResignation  Reason = "resignation"
	ReasonIllegal      Reason = "illegal"
	ReasonTimeout      Reason = "timeout"
	ReasonStalemate    Reason = "stalemate"
	ReasonFiftyMove    Reason = "fifty-move"
	ReasonInsufficient Reason = "insufficient"
	ReasonThreefold    Reason = "threefold"
	ReasonMaxMove      Reason = "max-move"
)

// MaxStrikes is the consecutive-illegal-move forfeit threshold in the
// strict and timed variants.
const MaxStrikes = 3

const (
	DefaultMaxPlies      = 300
	DefaultMoveTimeoutMs = 60_000
	DefaultClockMs       = 180_000
)

// MatchConfig describes one match. It is immutable once the arena is built.
type MatchConfig struct {
	ID      string  `json:"id"`
	White   string  `json:"white"`
	Black   string  `json:"black"`
	Variant Variant `json:"variant"`
	// InitialClockMs is each side's clock allotment in the timed variant.
	InitialClockMs int64 `json:"initial_clock_ms"`
	// MoveTimeoutMs caps how long any single model call may take,
	// regardless of variant.
	MoveTimeoutMs int64 `json:"move_timeout_ms"`
	// MaxPlies bounds the loop; an undecided game at the ceiling is a
	// draw by max-move. Rejected attempts consume an iteration too, which
	// is what guarantees termination even in chaos games.
	MaxPlies int `json:"max_plies"`
}

func (c MatchConfig) withDefaults() MatchConfig {
	if c.Variant == "" {
		c.Variant = VariantStrict
	}
	if c.MaxPlies <= 0 {
		c.MaxPlies = DefaultMaxPlies
	}
	if c.MoveTimeoutMs <= 0 {
		c.MoveTimeoutMs = DefaultMoveTimeoutMs
	}
	if c.Variant == VariantTimed && c.InitialClockMs <= 0 {
		c.InitialClockMs = DefaultClockMs
	}
	return c
}

// Validate reports everything wrong with the configuration at once.
func (c MatchConfig) Validate() error {
	var errs error
	if c.White == "" {
		errs = multierror.Append(errs, errors.New("white agent id is required"))
	}
	if c.Black == "" {
		errs = multierror.Append(errs, errors.New("black agent id is required"))
	}
	switch c.Variant {
	case VariantStrict, VariantChaos, VariantTimed:
	default:
		errs = multierror.Append(errs, errors.Errorf("unknown variant %q", c.Variant))
	}
	if c.Variant == VariantTimed && c.InitialClockMs <= 0 {
		errs = multierror.Append(errs, errors.New("timed variant needs a positive clock"))
	}
	return errs
}

// Strikes counts consecutive illegal attempts per side. A legal move by a
// side resets its count.
type Strikes struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (s Strikes) count(c chess.Color) int {
	if c == chess.White {
		return s.White
	}
	return s.Black
}

func (s *Strikes) add(c chess.Color) {
	if c == chess.White {
		s.White++
		return
	}
	s.Black++
}

func (s *Strikes) reset(c chess.Color) {
	if c == chess.White {
		s.White = 0
		return
	}
	s.Black = 0
}

// ClockState is a snapshot of both clocks in milliseconds.
type ClockState struct {
	WhiteMs int64 `json:"white_ms"`
	BlackMs int64 `json:"black_ms"`
}

// Rejection remembers one side's last illegal attempt so the next prompt to
// that side can include a correction note.
type Rejection struct {
	Text   string
	Reason string
}

// MatchResult is the terminal outcome of one match. Winner is NoColor for a
// draw. MoveHistory holds every accepted move in coordinate notation, chaos
// executions included; the resignation token never appears in it.
type MatchResult struct {
	Winner        chess.Color `json:"winner"`
	Reason        Reason      `json:"reason"`
	MoveHistory   []string    `json:"move_history"`
	GameRecord    string      `json:"game_record"`
	Strikes       Strikes     `json:"strikes"`
	Clocks        *ClockState `json:"clocks,omitempty"`
	FinalPosition string      `json:"final_position"`
}
