package config

import (
	"encoding/json"
	"io/fs"
	"os"

	"github.com/adrg/xdg"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/promptmate"
)

var cfgFile = "promptmate/config.json"

// AgentSpec names one model in the local roster. The ID is what gets sent to
// the provider as the model name.
type AgentSpec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProviderConfig points at a chat-completions endpoint.
type ProviderConfig struct {
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// MatchDefaults seeds per-match settings that command line flags may override.
type MatchDefaults struct {
	Variant       string `json:"variant"`
	ClockMs       int64  `json:"clock_ms"`
	MoveTimeoutMs int64  `json:"move_timeout_ms"`
	MaxPlies      int    `json:"max_plies"`
	Retries       int    `json:"retries"`
}

type Config struct {
	Provider   ProviderConfig `json:"provider"`
	Match      MatchDefaults  `json:"match"`
	RedisURL   string         `json:"redis_url,omitempty"`
	EnginePath string         `json:"engine_path,omitempty"`
	Agents     []AgentSpec    `json:"agents"`
}

// Load reads the config from the XDG config directory, falling back to
// DefaultConfig when no file exists yet.
func Load() (*Config, error) {
	conf := DefaultConfig
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(absPath, &conf); err != nil {
			return nil, err
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	var errs error
	if c.Provider.BaseURL == "" && c.EnginePath == "" {
		errs = multierror.Append(errs, errors.New("config needs provider.base_url or engine_path"))
	}
	switch promptmate.Variant(c.Match.Variant) {
	case promptmate.VariantStrict, promptmate.VariantChaos, promptmate.VariantTimed:
	default:
		errs = multierror.Append(errs, errors.Errorf("unknown variant %q", c.Match.Variant))
	}
	for _, a := range c.Agents {
		if a.ID == "" {
			errs = multierror.Append(errs, errors.New("agent with empty id in roster"))
		}
	}
	return errs
}

// Save writes the config back to the XDG config directory, creating the file
// on first run.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return errors.WithStack(err)
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(filePath, jsonData, perm))
}

func readCfgFile(filePath string, a interface{}) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithMessagef(json.Unmarshal(raw, a), "parse %s", filePath)
}
