package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RmCmd soft-deletes a command template.
var RmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a command template",
	Long: `Soft-delete a command. The name becomes free for re-creation but
version history and execution records are retained. Pass --purge to
remove the tombstone and its history permanently.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var rmPurgeFlag bool

func init() {
	RmCmd.Flags().BoolVar(&rmPurgeFlag, "purge", false, "Permanently remove a deleted command and its history")
}

func runRm(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	owner, name := splitOwnerName(args[0], sctx)

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if rmPurgeFlag {
		if err := engine.PurgeCommand(ctx, sctx, owner, name); err != nil {
			return err
		}
		pterm.Success.Printfln("Purged %s", name)
		return nil
	}
	if err := engine.DeleteCommand(ctx, sctx, owner, name); err != nil {
		return err
	}
	pterm.Success.Printfln("Deleted %s (history retained, use --purge to remove)", name)
	return nil
}
