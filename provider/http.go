package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Chat talks to an OpenAI-compatible chat-completions endpoint. The agent id
// passed to Call is sent as the model name, so one Chat serves any number of
// agents on the same endpoint.
type Chat struct {
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
	Client      *http.Client
	Logger      *zap.Logger
}

// NewChat builds a client for the endpoint. The trailing slash on baseURL is
// optional.
func NewChat(baseURL, apiKey string, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 2 * time.Minute},
		Logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

// Overloaded reports whether the status is a transient overload worth a
// retry: rate limiting, a gateway hiccup, or the 529 some providers send
// when saturated.
func (e *APIError) Overloaded() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return e.Status == 529
}

func (c *Chat) Call(ctx context.Context, model, prompt string) (string, error) {
	payload := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.WithMessage(err, "chat request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.WithMessage(err, "read chat response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: snippet(data)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", errors.WithMessage(err, "decode chat response")
	}
	if len(decoded.Choices) == 0 {
		// An empty reply is the arena's call to score, not an error here.
		return "", nil
	}

	c.Logger.Debug("chat completion",
		zap.String("model", model), zap.Duration("took", time.Since(start)))
	return decoded.Choices[0].Message.Content, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
