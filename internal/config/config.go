package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all workagent configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Tasks   TasksConfig   `toml:"tasks"`
	Archive ArchiveConfig `toml:"archive"`
	LLM     LLMConfig     `toml:"llm"`
	Chat    ChatConfig    `toml:"chat"`
	Memory  MemoryConfig  `toml:"memory"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type TasksConfig struct {
	Path           string  `toml:"path"`            // task document, resolved via store.DefaultPath() when empty
	DecayThreshold float64 `toml:"decay_threshold"` // tasks archived above this factor
}

type ArchiveConfig struct {
	Path string `toml:"path"` // sqlite archive, resolved via archive.DefaultDBPath() when empty
}

type LLMConfig struct {
	Provider     string `toml:"provider"` // "claude-cli", "anthropic", "ollama"
	Model        string `toml:"model"`    // e.g. "haiku", "sonnet"
	OllamaURL    string `toml:"ollama_url"`
	OllamaModel  string `toml:"ollama_model"` // e.g. "llama3.2"
	AnthropicKey string `toml:"anthropic_key"`
}

type ChatConfig struct {
	SystemPromptPath string `toml:"system_prompt_path"` // system.txt template
	PlanPath         string `toml:"plan_path"`          // optional hand-written plan for {plan}; empty → task briefing
	MaxTurns         int    `toml:"max_turns"`          // rotation trigger
	KeepTurns        int    `toml:"keep_turns"`         // turns kept after rotation
}

type MemoryConfig struct {
	StatusReportPath  string `toml:"status_report_path"`
	ArchiveStatusPath string `toml:"archive_status_path"`
	LongTermPath      string `toml:"long_term_path"`
	MaxReportLines    int    `toml:"max_report_lines"`   // rotation trigger
	RotateLines       int    `toml:"rotate_lines"`       // lines moved per rotation
	SummarizeAtWords  int    `toml:"summarize_at_words"` // long-term summarization trigger
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Tasks: TasksConfig{
			DecayThreshold: 1.0,
		},
		LLM: LLMConfig{
			Provider: "claude-cli",
			Model:    "haiku",
		},
		Chat: ChatConfig{
			SystemPromptPath: "system.txt",
			MaxTurns:         75,
			KeepTurns:        50,
		},
		Memory: MemoryConfig{
			StatusReportPath:  "status_report.txt",
			ArchiveStatusPath: "archive_status.txt",
			LongTermPath:      "lt_memory.txt",
			MaxReportLines:    100,
			RotateLines:       10,
			SummarizeAtWords:  1000,
		},
	}
}

// Load reads a TOML config file on top of the defaults. A missing file is
// not an error — the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
