package promptmate

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/promptmate/game"
)

// PromptInput is everything the prompt builder may mention: the position,
// the transcript, whose turn it is, the variant stakes, the clocks, and the
// correction note after an illegal attempt.
type PromptInput struct {
	Position string
	History  []string
	Color    chess.Color
	Variant  Variant
	Clocks   *ClockState
	Fault    *Rejection
}

// PromptBuilder renders the instruction the acting model receives. It must
// be a pure function of its input; the match loop calls it once per ply.
type PromptBuilder func(PromptInput) string

// BuildPrompt is the default PromptBuilder. The FEN always sits on its own
// "FEN:" line and the final line always demands a single token reply, either
// a coordinate move or the resignation token.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are playing chess as %s.\n", strings.ToLower(in.Color.Name()))

	switch in.Variant {
	case VariantChaos:
		b.WriteString("Variant: chaos. Illegal moves are executed literally instead of being rejected.\n")
	case VariantTimed:
		b.WriteString("Variant: timed. An illegal move is rejected and counts as a strike; ")
		fmt.Fprintf(&b, "%d strikes forfeit the game, and so does running out of clock.\n", MaxStrikes)
	default:
		fmt.Fprintf(&b, "Variant: strict. An illegal move is rejected and counts as a strike; %d strikes forfeit the game.\n", MaxStrikes)
	}

	if in.Clocks != nil {
		mine, theirs := in.Clocks.WhiteMs, in.Clocks.BlackMs
		if in.Color == chess.Black {
			mine, theirs = theirs, mine
		}
		fmt.Fprintf(&b, "Clock: you have %.1fs, your opponent has %.1fs.\n",
			float64(mine)/1000, float64(theirs)/1000)
	}

	if len(in.History) == 0 {
		b.WriteString("Moves so far: none.\n")
	} else {
		fmt.Fprintf(&b, "Moves so far: %s\n", strings.Join(in.History, " "))
	}
	fmt.Fprintf(&b, "FEN: %s\n", in.Position)

	if in.Fault != nil {
		fmt.Fprintf(&b, "Your previous reply %q was rejected: %s. Pick a legal move this time.\n",
			in.Fault.Text, in.Fault.Reason)
	}

	fmt.Fprintf(&b, "Respond with exactly one token: a move in coordinate notation like e2e4 or e7e8q, or %q to resign. No commentary.",
		game.ResignToken)
	return b.String()
}
