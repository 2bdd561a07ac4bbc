package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workagent",
	Short: "Personal work assistant with decaying task memory",
	Long:  "Workagent is a conversational assistant that tracks work tasks, lets stale ones decay into an archive, and keeps a rolling memory of past conversations. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(tasksCmd)
}
