package commands

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
)

// AddCmd registers a new command template.
var AddCmd = &cobra.Command{
	Use:   "add <name> <template>",
	Short: "Register a new command template",
	Long: `Register a named command template.

Placeholders use {{name}}, {{name:type}}, {{name:type:required}}, or
{{name:type:default=value}}. Types: string, integer, float, date, datetime,
boolean, list.

Examples:
  hotcmd add top_cells "SELECT * FROM cells WHERE region = {{region:string:required}}" --kind direct_sql
  hotcmd add busy_week "show busiest cells in {{region}} this week" --kind nl2sql --domain telemetry
  hotcmd add restart "restart_node {{node:string:required}}" --kind tool_call`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var (
	addKindFlag        string
	addDisplayNameFlag string
	addDescriptionFlag string
	addDomainFlag      string
	addCategoryFlag    string
	addSharedFlag      bool
	addParamsFlag      string
)

func init() {
	AddCmd.Flags().StringVar(&addKindFlag, "kind", string(types.KindDirectQuery), "Command kind: nl2sql, direct_sql, or tool_call")
	AddCmd.Flags().StringVar(&addDisplayNameFlag, "display-name", "", "Human-friendly display name")
	AddCmd.Flags().StringVar(&addDescriptionFlag, "description", "", "What the command does")
	AddCmd.Flags().StringVar(&addDomainFlag, "domain", "", "Schema/domain context handed to the translator")
	AddCmd.Flags().StringVar(&addCategoryFlag, "category", "", "Grouping category for listings")
	AddCmd.Flags().BoolVar(&addSharedFlag, "shared", false, "Make the command visible to other users")
	AddCmd.Flags().StringVar(&addParamsFlag, "params", "", "Parameter specs as JSON, keyed by name")
}

func runAdd(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}

	var params map[string]types.ParameterSpec
	if addParamsFlag != "" {
		if err := json.Unmarshal([]byte(addParamsFlag), &params); err != nil {
			return errors.Wrap(err, "parse --params JSON")
		}
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := engine.RegisterCommand(context.Background(), sctx, &types.CommandDefinition{
		Owner:        sctx.UserID,
		Name:         args[0],
		DisplayName:  addDisplayNameFlag,
		Description:  addDescriptionFlag,
		TemplateText: args[1],
		Kind:         types.CommandKind(strings.ToLower(addKindFlag)),
		Domain:       addDomainFlag,
		Category:     addCategoryFlag,
		Parameters:   params,
		Shared:       addSharedFlag,
	})
	if err != nil {
		return err
	}

	pterm.Success.Printfln("Created %s (v%d, %s)", created.Name, created.Version, created.Kind)
	if len(created.Parameters) > 0 {
		printParameterTable(created.Parameters)
	}
	return nil
}

func printParameterTable(params map[string]types.ParameterSpec) {
	data := pterm.TableData{{"Parameter", "Type", "Required", "Default"}}
	for _, name := range sortedParamNames(params) {
		spec := params[name]
		required := ""
		if spec.Required {
			required = "yes"
		}
		def := ""
		if spec.HasDefault() {
			def = pterm.Sprintf("%v", spec.Default)
		}
		data = append(data, []string{name, string(spec.Type), required, def})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func sortedParamNames(params map[string]types.ParameterSpec) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
