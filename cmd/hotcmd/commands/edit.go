package commands

import (
	"context"
	"encoding/json"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/internal/util"
)

// EditCmd updates an existing command template.
var EditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Update a command template",
	Long: `Update fields of a command you own. Every update bumps the
version; pass --base-version to fail instead of overwriting a concurrent
edit.

Examples:
  hotcmd edit top_cells --template "SELECT * FROM cells WHERE region = {{region:string:required}} LIMIT 50"
  hotcmd edit top_cells --description "Busiest cells per region" --base-version 3
  hotcmd edit top_cells --shared`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editTemplateFlag    string
	editDisplayNameFlag string
	editDescriptionFlag string
	editKindFlag        string
	editDomainFlag      string
	editCategoryFlag    string
	editParamsFlag      string
	editSharedFlag      bool
	editPrivateFlag     bool
	editBaseVersionFlag int
	editReasonFlag      string
)

func init() {
	EditCmd.Flags().StringVar(&editTemplateFlag, "template", "", "New template text")
	EditCmd.Flags().StringVar(&editDisplayNameFlag, "display-name", "", "New display name")
	EditCmd.Flags().StringVar(&editDescriptionFlag, "description", "", "New description")
	EditCmd.Flags().StringVar(&editKindFlag, "kind", "", "New kind: nl2sql, direct_sql, or tool_call")
	EditCmd.Flags().StringVar(&editDomainFlag, "domain", "", "New domain")
	EditCmd.Flags().StringVar(&editCategoryFlag, "category", "", "New category")
	EditCmd.Flags().StringVar(&editParamsFlag, "params", "", "New parameter specs as JSON")
	EditCmd.Flags().BoolVar(&editSharedFlag, "shared", false, "Share the command")
	EditCmd.Flags().BoolVar(&editPrivateFlag, "private", false, "Unshare the command")
	EditCmd.Flags().IntVar(&editBaseVersionFlag, "base-version", 0, "Fail if the command has moved past this version")
	EditCmd.Flags().StringVar(&editReasonFlag, "reason", "", "Change reason recorded in version history")
}

func runEdit(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	owner, name := splitOwnerName(args[0], sctx)

	patch := types.UpdatePatch{
		BaseVersion:  editBaseVersionFlag,
		ChangeReason: editReasonFlag,
	}
	if cmd.Flags().Changed("template") {
		patch.TemplateText = &editTemplateFlag
	}
	if cmd.Flags().Changed("display-name") {
		patch.DisplayName = &editDisplayNameFlag
	}
	if cmd.Flags().Changed("description") {
		patch.Description = &editDescriptionFlag
	}
	if cmd.Flags().Changed("kind") {
		patch.Kind = util.Ptr(types.CommandKind(editKindFlag))
	}
	if cmd.Flags().Changed("domain") {
		patch.Domain = &editDomainFlag
	}
	if cmd.Flags().Changed("category") {
		patch.Category = &editCategoryFlag
	}
	if cmd.Flags().Changed("params") {
		var params map[string]types.ParameterSpec
		if err := json.Unmarshal([]byte(editParamsFlag), &params); err != nil {
			return errors.Wrap(err, "parse --params JSON")
		}
		patch.Parameters = params
	}
	if cmd.Flags().Changed("shared") {
		patch.Shared = util.Ptr(editSharedFlag)
	}
	if cmd.Flags().Changed("private") && editPrivateFlag {
		patch.Shared = util.Ptr(false)
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	updated, err := engine.UpdateCommand(context.Background(), sctx, owner, name, patch)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Updated %s to v%d", updated.Name, updated.Version)
	return nil
}
