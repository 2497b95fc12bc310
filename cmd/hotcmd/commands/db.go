package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/config"
)

// DbCmd inspects the command database.
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the command database",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Args:  cobra.NoArgs,
	RunE:  runDbStats,
}

var dbPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the database file path",
	Args:  cobra.NoArgs,
	RunE:  runDbPath,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd, dbPathCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	stats := []struct {
		label string
		query string
	}{
		{"Active commands", "SELECT COUNT(*) FROM hot_commands WHERE is_active = 1"},
		{"Deleted commands", "SELECT COUNT(*) FROM hot_commands WHERE is_active = 0"},
		{"Version snapshots", "SELECT COUNT(*) FROM command_versions"},
		{"Executions", "SELECT COUNT(*) FROM executions"},
		{"Successful executions", "SELECT COUNT(*) FROM executions WHERE success = 1"},
		{"Spaces", "SELECT COUNT(*) FROM spaces"},
	}

	rows := pterm.TableData{{"Metric", "Count"}}
	for _, stat := range stats {
		count, err := countQuery(ctx, database, stat.query)
		if err != nil {
			return err
		}
		rows = append(rows, []string{stat.label, fmt.Sprintf("%d", count)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func countQuery(ctx context.Context, database *sql.DB, query string) (int64, error) {
	var count int64
	err := database.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func runDbPath(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := cfg.Database.Path
	if env := os.Getenv("HOTCMD_DB_PATH"); env != "" {
		path = env
	}
	fmt.Println(path)
	return nil
}
