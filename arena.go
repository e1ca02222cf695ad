package promptmate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/promptmate/game"
)

// Arena runs one match between two agents. It owns the board, the strike
// counters and the clocks exclusively; nothing is shared across matches.
// Play drives the ply loop in its own goroutine and the caller consumes the
// event stream as it happens.
type Arena struct {
	conf          MatchConfig
	board         *game.Board
	white, black  *Agent
	currentPlayer *Agent

	strikes Strikes
	clock   *Clock
	faults  map[chess.Color]*Rejection
	history []string
	result  *MatchResult

	// Prompt renders each ply's instruction. Replace before Play to
	// experiment with prompting; the default is BuildPrompt.
	Prompt PromptBuilder

	logger *zap.Logger
}

// NewArena wires a match up. The agent ids are copied into the config so the
// result records who actually played. A nil logger disables logging.
func NewArena(conf MatchConfig, white, black *Agent, logger *zap.Logger) (*Arena, error) {
	if white == nil || black == nil {
		return nil, errors.New("both agents are required")
	}
	conf = conf.withDefaults()
	conf.White, conf.Black = white.ID, black.ID
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.ID == "" {
		conf.ID = uuid.NewString()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	white.Player = chess.White
	black.Player = chess.Black

	a := &Arena{
		conf:   conf,
		board:  game.NewBoard(),
		white:  white,
		black:  black,
		faults: make(map[chess.Color]*Rejection),
		Prompt: BuildPrompt,
		logger: logger.With(zap.String("match_id", conf.ID)),
	}
	if conf.Variant == VariantTimed {
		a.clock = NewClock(conf.InitialClockMs)
	}
	return a, nil
}

// ID returns the match identifier.
func (a *Arena) ID() string { return a.conf.ID }

// Config returns the effective configuration, defaults applied.
func (a *Arena) Config() MatchConfig { return a.conf }

// Result returns the terminal result, or nil if the match has not finished.
// Only read it after the event stream has closed.
func (a *Arena) Result() *MatchResult { return a.result }

// Play starts the match and returns its event stream. The stream carries
// exactly one EndEvent, always last, and is then closed. A cancelled context
// closes the stream without an EndEvent; an aborted match has no result.
func (a *Arena) Play(ctx context.Context) <-chan Event {
	out := make(chan Event, 8)
	go a.run(ctx, out)
	return out
}

func (a *Arena) run(ctx context.Context, out chan<- Event) {
	defer close(out)

	opener := fmt.Sprintf("match started: %s (white) vs %s (black), %s variant",
		a.white.Name, a.black.Name, a.conf.Variant)
	if !a.emit(ctx, out, StatusEvent{Message: opener, Clocks: a.clockSnapshot()}) {
		return
	}

	for ply := 0; ply < a.conf.MaxPlies; ply++ {
		if ctx.Err() != nil {
			return
		}
		color := a.board.Turn()
		a.currentPlayer = a.agentFor(color)

		prompt := a.Prompt(PromptInput{
			Position: a.board.FEN(),
			History:  a.history,
			Color:    color,
			Variant:  a.conf.Variant,
			Clocks:   a.clockSnapshot(),
			Fault:    a.faults[color],
		})

		a.logger.Debug("requesting move",
			zap.Int("ply", ply),
			zap.String("color", colorWord(color)),
			zap.String("agent", a.currentPlayer.ID))

		start := time.Now()
		text, err := a.ask(ctx, a.currentPlayer, prompt, a.moveTimeout(color))
		elapsed := time.Since(start)

		if ctx.Err() != nil {
			return
		}

		// The clock is charged before anything else is looked at: a side
		// that exhausted its time loses no matter what it played.
		if a.clock != nil {
			a.clock.Charge(color, elapsed)
			if a.clock.Flagged(color) {
				a.logger.Info("flag fell", zap.String("color", colorWord(color)))
				a.finish(ctx, out, color.Other(), ReasonTimeout)
				return
			}
		}

		if err != nil {
			a.logger.Warn("model call failed",
				zap.String("agent", a.currentPlayer.ID), zap.Error(err))
			msg := fmt.Sprintf("%s failed to respond: %v", colorWord(color), err)
			if !a.emit(ctx, out, StatusEvent{Message: msg}) {
				return
			}
			a.finish(ctx, out, color.Other(), ReasonTimeout)
			return
		}

		raw := strings.TrimSpace(text)
		if strings.EqualFold(raw, game.ResignToken) {
			ev := MoveEvent{
				Move:       game.ResignToken,
				Position:   a.board.FEN(),
				MoveNumber: a.board.MoveNumber(),
				Ply:        ply,
				Color:      color,
				Strikes:    a.strikes,
				Clocks:     a.clockSnapshot(),
				Note:       "resigned",
				ElapsedMs:  elapsed.Milliseconds(),
			}
			if !a.emit(ctx, out, ev) {
				return
			}
			a.finish(ctx, out, color.Other(), ReasonResignation)
			return
		}

		att := game.ParseMove(raw)
		if att != nil {
			moveNo := a.board.MoveNumber()
			if applied, aerr := a.board.Apply(att); aerr == nil {
				a.history = append(a.history, applied)
				a.strikes.reset(color)
				delete(a.faults, color)
				ev := MoveEvent{
					Move:       applied,
					Position:   a.board.FEN(),
					GameRecord: a.board.PGN(),
					MoveNumber: moveNo,
					Ply:        ply,
					Color:      color,
					Strikes:    a.strikes,
					Clocks:     a.clockSnapshot(),
					ElapsedMs:  elapsed.Milliseconds(),
				}
				if !a.emit(ctx, out, ev) {
					return
				}
				if outcome, method, over := a.board.Outcome(); over {
					a.finish(ctx, out, winnerFor(outcome), reasonForMethod(method))
					return
				}
				continue
			}
		}

		// Illegal attempt. Diagnose it, count the strike, remember the
		// rejection for this side's next prompt.
		reason := "could not parse move text"
		switch {
		case raw == "":
			reason = "empty response"
		case att != nil:
			reason = a.board.Diagnose(att)
		}
		a.strikes.add(color)
		a.faults[color] = &Rejection{Text: raw, Reason: reason}

		a.logger.Debug("illegal attempt",
			zap.String("color", colorWord(color)),
			zap.String("text", raw),
			zap.String("reason", reason),
			zap.Int("strikes", a.strikes.count(color)))

		strikes := a.strikes
		msg := fmt.Sprintf("illegal move by %s: %q (%s), strike %d",
			colorWord(color), raw, reason, strikes.count(color))
		if !a.emit(ctx, out, StatusEvent{Message: msg, Strikes: &strikes, Clocks: a.clockSnapshot()}) {
			return
		}

		if a.conf.Variant == VariantChaos {
			if att == nil {
				continue
			}
			moveNo := a.board.MoveNumber()
			fen, ferr := game.ForceMove(a.board.FEN(), att, color)
			if ferr == nil {
				ferr = a.board.Reset(fen)
			}
			if ferr != nil {
				// The literal mutation produced a position the rules
				// library refuses; the chaos-playing side carries the loss.
				a.logger.Warn("chaos move corrupted the position", zap.Error(ferr))
				a.finish(ctx, out, color.Other(), ReasonIllegal)
				return
			}
			a.history = append(a.history, att.String())
			ev := MoveEvent{
				Move:       att.String(),
				Position:   a.board.FEN(),
				MoveNumber: moveNo,
				Ply:        ply,
				Color:      color,
				Strikes:    a.strikes,
				Clocks:     a.clockSnapshot(),
				Note:       "chaos",
				ElapsedMs:  elapsed.Milliseconds(),
			}
			if !a.emit(ctx, out, ev) {
				return
			}
			continue
		}

		if a.strikes.count(color) >= MaxStrikes {
			a.finish(ctx, out, color.Other(), ReasonIllegal)
			return
		}
	}

	a.finish(ctx, out, chess.NoColor, ReasonMaxMove)
}

// ask runs one model call under the per-move timeout.
func (a *Arena) ask(ctx context.Context, ag *Agent, prompt string, timeout time.Duration) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return ag.Caller.Call(cctx, ag.ID, prompt)
}

// moveTimeout clamps the per-move budget to the acting side's remaining
// clock, so a side cannot borrow time it does not have.
func (a *Arena) moveTimeout(color chess.Color) time.Duration {
	t := time.Duration(a.conf.MoveTimeoutMs) * time.Millisecond
	if a.clock != nil {
		if rem := a.clock.Remaining(color); rem < t {
			t = rem
		}
	}
	return t
}

func (a *Arena) finish(ctx context.Context, out chan<- Event, winner chess.Color, reason Reason) {
	res := MatchResult{
		Winner:        winner,
		Reason:        reason,
		MoveHistory:   append([]string(nil), a.history...),
		GameRecord:    a.board.PGN(),
		Strikes:       a.strikes,
		Clocks:        a.clockSnapshot(),
		FinalPosition: a.board.FEN(),
	}
	a.result = &res
	a.logger.Info("match finished",
		zap.String("winner", winnerWord(winner)),
		zap.String("reason", string(reason)),
		zap.Int("moves", len(res.MoveHistory)))
	a.emit(ctx, out, EndEvent{Result: res})
}

// emit delivers one event, giving up when the context dies so an abandoned
// stream never wedges the match goroutine.
func (a *Arena) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Arena) agentFor(c chess.Color) *Agent {
	if c == chess.White {
		return a.white
	}
	return a.black
}

func (a *Arena) clockSnapshot() *ClockState {
	if a.clock == nil {
		return nil
	}
	s := a.clock.Snapshot()
	return &s
}

func winnerFor(out chess.Outcome) chess.Color {
	switch out {
	case chess.WhiteWon:
		return chess.White
	case chess.BlackWon:
		return chess.Black
	}
	return chess.NoColor
}

// reasonForMethod maps the rules library's endings onto the closed reason
// set. The five- and seventy-five flavors fold into their claimable
// relatives; anything else the library might invent counts as the generic
// draw bucket.
func reasonForMethod(m chess.Method) Reason {
	switch m {
	case chess.Checkmate:
		return ReasonCheckmate
	case chess.Stalemate:
		return ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return ReasonThreefold
	case chess.InsufficientMaterial:
		return ReasonInsufficient
	default:
		return ReasonFiftyMove
	}
}

func colorWord(c chess.Color) string {
	return strings.ToLower(c.Name())
}

func winnerWord(c chess.Color) string {
	if c == chess.NoColor {
		return "draw"
	}
	return colorWord(c)
}
