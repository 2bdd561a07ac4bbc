package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 37780 {
		t.Errorf("port = %d, want 37780", cfg.Server.Port)
	}
	if cfg.Tasks.DecayThreshold != 1.0 {
		t.Errorf("decay threshold = %v, want 1.0", cfg.Tasks.DecayThreshold)
	}
	if cfg.Chat.MaxTurns != 75 || cfg.Chat.KeepTurns != 50 {
		t.Errorf("chat window = %d/%d, want 75/50", cfg.Chat.MaxTurns, cfg.Chat.KeepTurns)
	}
	if cfg.Memory.SummarizeAtWords != 1000 {
		t.Errorf("summarize_at_words = %d, want 1000", cfg.Memory.SummarizeAtWords)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "claude-cli" {
		t.Errorf("provider = %q, want default claude-cli", cfg.LLM.Provider)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9000

[llm]
provider = "ollama"
ollama_model = "llama3.2"

[tasks]
decay_threshold = 2.0

[chat]
plan_path = "plan.txt"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q, want default kept", cfg.Server.Bind)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.OllamaModel != "llama3.2" {
		t.Errorf("llm config not applied: %+v", cfg.LLM)
	}
	if cfg.Tasks.DecayThreshold != 2.0 {
		t.Errorf("decay threshold = %v, want 2.0", cfg.Tasks.DecayThreshold)
	}
	if cfg.Chat.PlanPath != "plan.txt" {
		t.Errorf("plan path = %q, want plan.txt", cfg.Chat.PlanPath)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport="), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for bad toml")
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37780" {
		t.Errorf("ListenAddr = %q", got)
	}
}
