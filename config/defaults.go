package config

import "github.com/promptmate"

var DefaultConfig Config

func init() {
	DefaultConfig = Config{
		Provider: ProviderConfig{
			BaseURL:     "http://localhost:8080/v1",
			Temperature: 0.2,
			MaxTokens:   16,
		},
		Match: MatchDefaults{
			Variant:       string(promptmate.VariantStrict),
			ClockMs:       promptmate.DefaultClockMs,
			MoveTimeoutMs: promptmate.DefaultMoveTimeoutMs,
			MaxPlies:      promptmate.DefaultMaxPlies,
			Retries:       2,
		},
		Agents: []AgentSpec{
			{ID: "gpt-4o-mini", Name: "Mini"},
			{ID: "gpt-4o", Name: "Four-O"},
		},
	}
}
