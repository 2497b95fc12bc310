package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/display"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// LsCmd lists command templates.
var LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List command templates",
	Long: `List your command templates, optionally including ones other
users have shared.

Examples:
  hotcmd ls
  hotcmd ls --search cells --shared
  hotcmd ls --category reports`,
	RunE: runLs,
}

var (
	lsDomainFlag   string
	lsCategoryFlag string
	lsSearchFlag   string
	lsSharedFlag   bool
	lsLimitFlag    int
)

func init() {
	LsCmd.Flags().StringVar(&lsDomainFlag, "domain", "", "Filter by domain")
	LsCmd.Flags().StringVar(&lsCategoryFlag, "category", "", "Filter by category")
	LsCmd.Flags().StringVar(&lsSearchFlag, "search", "", "Free-text search over name and description")
	LsCmd.Flags().BoolVar(&lsSharedFlag, "shared", false, "Include commands shared by other users")
	LsCmd.Flags().IntVar(&lsLimitFlag, "limit", 0, "Maximum results (default 100)")
}

func runLs(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	defs, err := engine.ListCommands(context.Background(), sctx, types.ListFilter{
		Domain:        lsDomainFlag,
		Category:      lsCategoryFlag,
		Search:        lsSearchFlag,
		IncludeShared: lsSharedFlag,
		Limit:         lsLimitFlag,
	})
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(defs)
	}

	if len(defs) == 0 {
		pterm.Info.Println("No commands found")
		return nil
	}

	data := pterm.TableData{{"Name", "Kind", "Owner", "Version", "Uses", "Description"}}
	for _, def := range defs {
		data = append(data, []string{
			def.Name,
			string(def.Kind),
			def.Owner,
			pterm.Sprintf("v%d", def.Version),
			pterm.Sprintf("%d", def.UsageCount),
			def.Description,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
