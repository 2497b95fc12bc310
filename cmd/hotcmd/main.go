package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/cmd/hotcmd/commands"
	"github.com/vandanapadala-pg/hotcommands/config"
	"github.com/vandanapadala-pg/hotcommands/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hotcmd",
	Short: "hotcmd - Named, reusable query and tool command templates",
	Long: `hotcmd - Command template engine.

Register parameterized query templates once, invoke them by name with typed
parameters. Three kinds of commands are supported:

  nl2sql     - natural language translated to SQL at invocation time
  direct_sql - the template renders directly to a SQL statement
  tool_call  - the template dispatches to an external tool

Examples:
  hotcmd add top_cells "SELECT * FROM cells WHERE region = {{region:string:required}}" --kind direct_sql
  hotcmd run top_cells region=north
  hotcmd ls --search cells
  hotcmd history top_cells
  hotcmd spaces ls`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOut := false
		if cfg, err := config.Load(); err == nil {
			jsonOut = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonOut); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.UserFlag, "user", "", "Acting user (defaults to $USER)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit JSON instead of tables")

	rootCmd.AddCommand(commands.AddCmd)
	rootCmd.AddCommand(commands.LsCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.EditCmd)
	rootCmd.AddCommand(commands.RmCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.VersionsCmd)
	rootCmd.AddCommand(commands.SpacesCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
