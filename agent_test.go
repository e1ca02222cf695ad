package promptmate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callerFunc adapts a bare function to the Caller interface for tests.
type callerFunc func(ctx context.Context, agentID, prompt string) (string, error)

func (f callerFunc) Call(ctx context.Context, agentID, prompt string) (string, error) {
	return f(ctx, agentID, prompt)
}

type stubOverload struct{}

func (stubOverload) Error() string    { return "upstream is sad" }
func (stubOverload) Overloaded() bool { return true }

func TestIsOverload(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "marker interface", err: stubOverload{}, want: true},
		{name: "wrapped marker", err: errors.WithMessage(stubOverload{}, "calling model"), want: true},
		{name: "rate limit text", err: errors.New("429 Too Many Requests"), want: true},
		{name: "quota text", err: errors.New("insufficient quota for this key"), want: true},
		{name: "hard failure", err: errors.New("invalid api key"), want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverload(tt.err))
		})
	}
}

func TestRetryCallerRecoversFromOverload(t *testing.T) {
	var calls int
	var slept []time.Duration
	rc := &RetryCaller{
		Caller: callerFunc(func(context.Context, string, string) (string, error) {
			calls++
			if calls < 3 {
				return "", stubOverload{}
			}
			return "e2e4", nil
		}),
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	}

	text, err := rc.Call(context.Background(), "model", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "e2e4", text)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 2500 * time.Millisecond}, slept)
}

func TestRetryCallerHardErrorPropagates(t *testing.T) {
	var calls int
	rc := &RetryCaller{
		Caller: callerFunc(func(context.Context, string, string) (string, error) {
			calls++
			return "", errors.New("invalid api key")
		}),
		Sleep: func(time.Duration) { t.Fatal("hard errors must not be retried") },
	}

	_, err := rc.Call(context.Background(), "model", "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryCallerSurfacesPersistentEmptyReply(t *testing.T) {
	var calls int
	rc := &RetryCaller{
		Caller: callerFunc(func(context.Context, string, string) (string, error) {
			calls++
			return "  \n", nil
		}),
		Sleep: func(time.Duration) {},
	}

	text, err := rc.Call(context.Background(), "model", "prompt")
	require.NoError(t, err, "a persistently empty reply is the arena's call to score")
	assert.Empty(t, strings.TrimSpace(text))
	assert.Equal(t, 3, calls)
}

func TestRetryCallerGivesUpOnPersistentOverload(t *testing.T) {
	var calls int
	rc := &RetryCaller{
		Caller: callerFunc(func(context.Context, string, string) (string, error) {
			calls++
			return "", stubOverload{}
		}),
		Sleep: func(time.Duration) {},
	}

	_, err := rc.Call(context.Background(), "model", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still failing after 2 retries")
	assert.Equal(t, 3, calls)
}

func TestRetryCallerAttemptsOverride(t *testing.T) {
	var calls int
	rc := &RetryCaller{
		Caller: callerFunc(func(context.Context, string, string) (string, error) {
			calls++
			return "", stubOverload{}
		}),
		Attempts: 1,
		Sleep:    func(time.Duration) {},
	}

	_, err := rc.Call(context.Background(), "model", "prompt")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewAgentNameFallback(t *testing.T) {
	a := NewAgent("gpt-test", "", nil)
	assert.Equal(t, "gpt-test", a.Name)

	b := NewAgent("gpt-test", "Tester", nil)
	assert.Equal(t, "Tester", b.Name)
}
