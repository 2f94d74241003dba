package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

// Duration is a time.Duration that also decodes from a bare YAML number,
// read as seconds. Existing config files write `timeout: 60`; duration
// strings like `90s` work too.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the full benchmark configuration loaded from YAML.
type Config struct {
	CandidateModel ModelConfig   `yaml:"candidate_model"`
	Judges         []ModelConfig `yaml:"judges"`

	DatasetsConfigPath string `yaml:"datasets_config_path,omitempty"`
	Module1Path        string `yaml:"module_1_path,omitempty"`
	Module2Path        string `yaml:"module_2_path,omitempty"`
	Module3Path        string `yaml:"module_3_path,omitempty"`
	ResultOutputPath   string `yaml:"result_output_path,omitempty"`
	ENMode             bool   `yaml:"en_mode,omitempty"`

	Weights Weights       `yaml:"weights"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
}

// ModelConfig describes one model endpoint (candidate or judge).
type ModelConfig struct {
	Provider       string   `yaml:"provider,omitempty"` // "openai" (default) or "anthropic"
	APIKey         string   `yaml:"api_key,omitempty"`
	BaseURL        string   `yaml:"base_url,omitempty"`
	ModelName      string   `yaml:"model_name"`
	MaxTokens      int      `yaml:"max_tokens,omitempty"`
	Temperature    float64  `yaml:"temperature,omitempty"`
	TopP           float64  `yaml:"top_p,omitempty"`
	EnableThinking bool     `yaml:"enable_thinking,omitempty"`
	MaxRetries     int      `yaml:"max_retries,omitempty"`
	Concurrency    int      `yaml:"concurrency,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
}

type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite file, ":memory:" allowed
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Validate reports whether the model config is usable at all. A candidate
// failing this check is fatal before any evaluation work starts; a judge
// failing it is dropped with a warning.
func (m *ModelConfig) Validate() error {
	if m == nil {
		return fmt.Errorf("config: nil model config")
	}
	if strings.TrimSpace(m.ModelName) == "" {
		return fmt.Errorf("config: model_name is missing")
	}
	return nil
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	applyModelDefaults(&c.CandidateModel, 4)
	for i := range c.Judges {
		applyModelDefaults(&c.Judges[i], 2)
	}

	if strings.TrimSpace(c.DatasetsConfigPath) == "" {
		c.DatasetsConfigPath = "需要评测的内容.json"
	}
	if strings.TrimSpace(c.Module1Path) == "" {
		c.Module1Path = "data/1专业技术"
	}
	if strings.TrimSpace(c.Module2Path) == "" {
		c.Module2Path = "data/2通用综合"
	}
	if strings.TrimSpace(c.Module3Path) == "" {
		c.Module3Path = "data/3特色场景"
	}
	if strings.TrimSpace(c.ResultOutputPath) == "" {
		c.ResultOutputPath = "results"
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = "results/history.db"
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8080"
	}

	c.Weights.applyDefaults()
}

func applyModelDefaults(m *ModelConfig, concurrency int) {
	if m.MaxTokens <= 0 {
		m.MaxTokens = 32768
	}
	if m.MaxRetries <= 0 {
		m.MaxRetries = 3
	}
	if m.Concurrency <= 0 {
		m.Concurrency = concurrency
	}
	if m.Timeout <= 0 {
		m.Timeout = Duration(60 * time.Second)
	}
}

// applyEnv fills missing API keys from the environment, candidate and judges
// alike, so keys can stay out of checked-in config files.
func (c *Config) applyEnv() {
	fill := func(m *ModelConfig) {
		if strings.TrimSpace(m.APIKey) != "" {
			return
		}
		switch strings.ToLower(strings.TrimSpace(m.Provider)) {
		case "anthropic", "claude":
			if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
				m.APIKey = v
			}
		default:
			if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
				m.APIKey = v
			}
		}
	}

	fill(&c.CandidateModel)
	for i := range c.Judges {
		fill(&c.Judges[i])
	}
}
