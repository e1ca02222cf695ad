package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/pkg/errors"
)

// Engine adapts a local UCI engine binary as an agent, so a model can be
// pitted against a reference opponent. The engine sees the same prompt a
// model would; it reads the position back out of the "FEN:" line that
// every prompt carries.
type Engine struct {
	eng   *uci.Engine
	depth int
	mu    sync.Mutex
}

// NewEngine starts the binary ("stockfish" when path is empty, expected on
// PATH) and runs the UCI handshake.
func NewEngine(path string, depth int) (*Engine, error) {
	if path == "" {
		path = "stockfish"
	}
	if depth <= 0 {
		depth = 12
	}
	eng, err := uci.New(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "start %s", path)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, errors.WithMessage(err, "uci handshake")
	}
	return &Engine{eng: eng, depth: depth}, nil
}

func (e *Engine) Call(ctx context.Context, agentID, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fen, ok := fenFromPrompt(prompt)
	if !ok {
		return "", errors.New("prompt carries no FEN line")
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", errors.WithMessage(err, "parse FEN")
	}
	g := chess.NewGame(opt)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.eng.Run(uci.CmdPosition{Position: g.Position()}, uci.CmdGo{Depth: e.depth}); err != nil {
		return "", errors.WithMessage(err, "engine search")
	}
	best := e.eng.SearchResults().BestMove
	if best == nil {
		return "", errors.New("engine returned no move")
	}
	return best.String(), nil
}

// Close shuts down the engine process.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.eng != nil {
		e.eng.Close()
		e.eng = nil
	}
	return nil
}

func fenFromPrompt(prompt string) (string, bool) {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "FEN: "); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}
