package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// VersionsCmd lists a command's version history.
var VersionsCmd = &cobra.Command{
	Use:   "versions <name>",
	Short: "Show a command's version history",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

var versionsShowFlag int

func init() {
	VersionsCmd.Flags().IntVar(&versionsShowFlag, "show", 0, "Print the full template of one version")
}

func runVersions(cmd *cobra.Command, args []string) error {
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
	if versionsShowFlag > 0 {
		snapshot, err := engine.CommandVersion(ctx, sctx, owner, name, versionsShowFlag)
		if err != nil {
			return err
		}
		pterm.DefaultSection.Printfln("%s v%d", name, snapshot.Version)
		fmt.Println(snapshot.TemplateText)
		return nil
	}

	versions, err := engine.CommandVersions(ctx, sctx, owner, name)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		pterm.Info.Println("No versions recorded")
		return nil
	}

	rows := pterm.TableData{{"Version", "Changed By", "When", "Reason", "Template"}}
	for _, ver := range versions {
		rows = append(rows, []string{
			fmt.Sprintf("v%d", ver.Version),
			ver.ChangedBy,
			ver.CreatedAt.Local().Format("2006-01-02 15:04"),
			ver.ChangeReason,
			truncate(ver.TemplateText, 60),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
