package provider

import (
	"context"
	"sync"
	"time"
)

// Script replays canned responses, for tests and offline demos. Responses
// are consumed in order; after the last one the script keeps repeating it,
// or starts over when Loop is set.
type Script struct {
	Responses []string
	Loop      bool
	Delay     time.Duration // simulated think time per call
	Err       error         // returned on every call when set

	mu    sync.Mutex
	calls int
}

func (s *Script) Call(ctx context.Context, agentID, prompt string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return "", nil
	}
	i := s.calls
	s.calls++
	if s.Loop {
		i %= len(s.Responses)
	} else if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	return s.Responses[i], nil
}

// Calls reports how many times the script has been asked so far.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
