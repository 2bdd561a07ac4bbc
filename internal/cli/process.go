package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitmarkprojects/claude-work-agent/internal/config"
	"github.com/gitmarkprojects/claude-work-agent/internal/engine"
	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
	"github.com/gitmarkprojects/claude-work-agent/internal/session"
	"github.com/gitmarkprojects/claude-work-agent/internal/store"
)

var processConfigPath string

var processCmd = &cobra.Command{
	Use:   "process [conversation.json]",
	Short: "Extract tasks from a saved conversation file",
	Long:  "Runs task extraction over an exported conversation JSON file and updates the task document. Useful for backfilling conversations that never went through the server.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processConfigPath, "config", "c", "", "Path to TOML config file")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(processConfigPath)
	if err != nil {
		return err
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}

	hist, err := session.Load(args[0])
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if hist.Len() == 0 {
		return fmt.Errorf("no turns in %s", args[0])
	}

	st, taskPath, err := openStore(cfg)
	if err != nil {
		return err
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure llm: %w", err)
	}

	eng := engine.New(st, llmClient, cfg.Tasks.DecayThreshold)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	before := len(st.Active)
	if err := eng.ProcessConversation(ctx, hist.ContentLines()); err != nil {
		return err
	}

	fmt.Printf("Processed %d turns from %s\n", hist.Len(), args[0])
	fmt.Printf("Tasks: %d active (was %d), %d archived — saved to %s\n",
		len(st.Active), before, len(st.Archived), taskPath)
	return nil
}

// openStore loads the task document named by the config, falling back to the
// default location.
func openStore(cfg config.Config) (*store.Store, string, error) {
	taskPath := cfg.Tasks.Path
	if taskPath == "" {
		var err error
		taskPath, err = store.DefaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve task path: %w", err)
		}
	}
	st := store.New(taskPath)
	if err := st.Load(); err != nil {
		return nil, "", fmt.Errorf("load tasks: %w", err)
	}
	return st, taskPath, nil
}
