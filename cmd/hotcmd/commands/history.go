package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/display"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// HistoryCmd shows a command's recent executions, or with no argument the
// caller's executions across all commands.
var HistoryCmd = &cobra.Command{
	Use:   "history [name]",
	Short: "Show recent executions of a command, or your own across commands",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var historyLimitFlag int

func init() {
	HistoryCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum records to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	var records []*types.ExecutionRecord
	if len(args) == 0 {
		records, err = engine.InvokerHistory(context.Background(), sctx, historyLimitFlag)
	} else {
		owner, name := splitOwnerName(args[0], sctx)
		records, err = engine.History(context.Background(), sctx, owner, name, historyLimitFlag)
	}
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(records)
	}

	if len(records) == 0 {
		pterm.Info.Println("No executions recorded")
		return nil
	}

	rows := pterm.TableData{{"When", "Invoker", "Params", "Duration", "Outcome"}}
	for _, rec := range records {
		outcome := rec.ResultSummary
		if !rec.Success {
			outcome = "failed: " + rec.ErrorKind
		}
		rows = append(rows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Invoker,
			formatParams(rec.SuppliedParams),
			fmt.Sprintf("%dms", rec.DurationMs),
			outcome,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func formatParams(params map[string]string) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}
	return strings.Join(pairs, " ")
}
