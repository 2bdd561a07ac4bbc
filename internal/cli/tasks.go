package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitmarkprojects/claude-work-agent/internal/config"
	"github.com/gitmarkprojects/claude-work-agent/internal/engine"
	"github.com/gitmarkprojects/claude-work-agent/internal/task"
)

var (
	tasksConfigPath  string
	tasksShowAll     bool
	briefingConfPath string
)

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Print the morning briefing",
	RunE:  runBriefing,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tracked tasks",
	RunE:  runTasks,
}

func init() {
	briefingCmd.Flags().StringVarP(&briefingConfPath, "config", "c", "", "Path to TOML config file")
	tasksCmd.Flags().StringVarP(&tasksConfigPath, "config", "c", "", "Path to TOML config file")
	tasksCmd.Flags().BoolVarP(&tasksShowAll, "all", "a", false, "Include archived tasks")
}

func runBriefing(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(briefingConfPath)
	if err != nil {
		return err
	}
	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	// Read-only view: no LLM client, no save.
	eng := engine.New(st, nil, cfg.Tasks.DecayThreshold)
	fmt.Println(eng.MorningBriefing())
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(tasksConfigPath)
	if err != nil {
		return err
	}
	st, taskPath, err := openStore(cfg)
	if err != nil {
		return err
	}

	if len(st.Active) == 0 && (!tasksShowAll || len(st.Archived) == 0) {
		fmt.Printf("No tasks in %s\n", taskPath)
		return nil
	}

	for _, t := range st.Active {
		printTask(t)
	}
	if tasksShowAll && len(st.Archived) > 0 {
		fmt.Printf("\n## Archived (%d)\n", len(st.Archived))
		for _, t := range st.Archived {
			printTask(t)
		}
	}
	return nil
}

func printTask(t *task.Task) {
	fmt.Printf("[P%d] %s  @%s  (%s)\n", t.Priority, t.Description, task.FormatDate(t.NextDate), t.Status)
	if t.Note != "" {
		fmt.Printf("     %s\n", t.Note)
	}
	fmt.Printf("     id=%s last=%s\n", t.ID, task.FormatDate(t.LastInteraction))
}
