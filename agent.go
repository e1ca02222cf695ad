package promptmate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Caller is the model-call collaborator: given an agent identifier and a
// prompt, it returns the model's raw text. Implementations live in the
// provider package; the arena only ever sees this interface.
type Caller interface {
	Call(ctx context.Context, agentID, prompt string) (string, error)
}

// An Agent is one seat at the board: the identifier the provider understands,
// a display name, and the Caller that produces its moves.
type Agent struct {
	ID     string
	Name   string
	Player chess.Color
	Caller Caller

	// statistics, maintained by the tournament scheduler
	Rating float32
	Wins   float32
	Loss   float32
	Draw   float32
	sync.Mutex
}

// NewAgent builds an agent seat. An empty name falls back to the id.
func NewAgent(id, name string, c Caller) *Agent {
	if name == "" {
		name = id
	}
	return &Agent{ID: id, Name: name, Caller: c}
}

// ResetStats zeroes the win/loss/draw tallies.
func (a *Agent) ResetStats() {
	a.Lock()
	a.Wins = 0
	a.Loss = 0
	a.Draw = 0
	a.Unlock()
}

// overloader is implemented by provider errors that represent transient
// overload (rate limits, capacity). Those are the only errors worth retrying.
type overloader interface {
	Overloaded() bool
}

var overloadSignatures = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"overloaded",
	"capacity",
	"resource exhausted",
	"quota",
}

// IsOverload classifies an error as transient provider overload, either via
// the provider's own marker or by matching known error signatures.
func IsOverload(err error) bool {
	var o overloader
	if errors.As(err, &o) {
		return o.Overloaded()
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range overloadSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// RetryCaller decorates a Caller with the bounded retry policy: overload
// errors and empty replies get up to Attempts extra tries with linearly
// growing backoff. Any other error propagates at once; an empty reply that
// survives the retries is returned as-is for the arena to score as a strike.
type RetryCaller struct {
	Caller   Caller
	Attempts int                 // extra attempts after the first; default 2
	Sleep    func(time.Duration) // test hook; nil means real sleep
}

func (r *RetryCaller) Call(ctx context.Context, agentID, prompt string) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 2
	}

	var text string
	var err error
	for i := 0; i <= attempts; i++ {
		if i > 0 {
			if werr := r.wait(ctx, backoff(i)); werr != nil {
				return "", werr
			}
		}
		text, err = r.Caller.Call(ctx, agentID, prompt)
		if err != nil {
			if !IsOverload(err) {
				return "", err
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		return text, nil
	}
	if err != nil {
		return "", errors.WithMessagef(err, "still failing after %d retries", attempts)
	}
	return text, nil
}

func (r *RetryCaller) wait(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		r.Sleep(d)
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoff grows linearly: 1.5s, 2.5s, ...
func backoff(attempt int) time.Duration {
	return time.Duration(attempt)*time.Second + 500*time.Millisecond
}
