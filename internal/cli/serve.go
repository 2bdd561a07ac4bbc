package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitmarkprojects/claude-work-agent/internal/archive"
	"github.com/gitmarkprojects/claude-work-agent/internal/config"
	"github.com/gitmarkprojects/claude-work-agent/internal/engine"
	"github.com/gitmarkprojects/claude-work-agent/internal/llm"
	"github.com/gitmarkprojects/claude-work-agent/internal/memory"
	"github.com/gitmarkprojects/claude-work-agent/internal/server"
	"github.com/gitmarkprojects/claude-work-agent/internal/session"
	"github.com/gitmarkprojects/claude-work-agent/internal/store"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to TOML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	// Check for ANTHROPIC_API_KEY env override
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}

	// Resolve the task document path
	taskPath := cfg.Tasks.Path
	if taskPath == "" {
		taskPath, err = store.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve task path: %w", err)
		}
	}

	st := store.New(taskPath)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	// Resolve the conversation archive path
	dbPath := cfg.Archive.Path
	if dbPath == "" {
		dbPath, err = archive.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve archive path: %w", err)
		}
	}

	db, err := archive.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure llm: %w", err)
	}

	eng := engine.New(st, llmClient, cfg.Tasks.DecayThreshold)

	// Tasks keep decaying while the server is down; settle up before serving.
	if n := eng.Sweep(); n > 0 {
		if err := st.Save(); err != nil {
			return fmt.Errorf("save tasks after decay: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  decay: archived %d stale tasks\n", n)
	}

	rep := memory.New(llmClient, cfg.Memory)

	// Resume the live conversation from disk if one was left behind.
	historyPath := filepath.Join(filepath.Dir(taskPath), "conversation.json")
	hist, err := session.Load(historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: resume conversation: %v (starting fresh)\n", err)
		hist = session.NewHistory()
	}

	srv := server.New(cfg, eng, llmClient, db, rep, hist, VersionString())
	srv.HistoryPath = historyPath

	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "workagent serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  tasks: %s (%d active, %d archived)\n", taskPath, len(st.Active), len(st.Archived))
		fmt.Fprintf(os.Stderr, "  archive: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  llm: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
