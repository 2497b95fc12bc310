package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/display"
	"github.com/vandanapadala-pg/hotcommands/errors"
	"github.com/vandanapadala-pg/hotcommands/hot/types"
	"github.com/vandanapadala-pg/hotcommands/spaces"
)

// RunCmd invokes a command template.
var RunCmd = &cobra.Command{
	Use:   "run <name> [param=value ...]",
	Short: "Invoke a command template",
	Long: `Invoke a command by name with parameter values.

Parameters are key=value pairs; quote values containing spaces. Use
owner/name to invoke a command another user shared.

Examples:
  hotcmd run top_cells region=north limit=20
  hotcmd run busy_week region="north west"
  hotcmd run bob/shared_cells region=south --save my_report`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var runSaveFlag string

func init() {
	RunCmd.Flags().StringVar(&runSaveFlag, "save", "", "Save the result into a named space")
}

func runRun(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	owner, name := splitOwnerName(args[0], sctx)

	supplied, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	result, err := engine.Invoke(ctx, sctx, owner, name, supplied)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				pterm.Error.Println(issue.Message)
			}
			return errors.New("parameter validation failed")
		}
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		if err := display.OutputJSON(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if runSaveFlag != "" {
		if err := saveResult(ctx, sctx.UserID, runSaveFlag, result); err != nil {
			return err
		}
		pterm.Success.Printfln("Saved result to space %q", runSaveFlag)
	}
	return nil
}

// parseParams splits key=value arguments. Values run through shellquote so
// quoted lists survive: tags='a b c'.
func parseParams(args []string) (map[string]interface{}, error) {
	joined := strings.Join(args, " ")
	words, err := shellquote.Split(joined)
	if err != nil {
		return nil, errors.Wrap(err, "parse parameters")
	}

	supplied := make(map[string]interface{}, len(words))
	for _, word := range words {
		i := strings.IndexByte(word, '=')
		if i <= 0 {
			return nil, errors.Newf("parameter %q is not key=value", word)
		}
		supplied[word[:i]] = word[i+1:]
	}
	return supplied, nil
}

func printResult(result *types.ExecutionResult) {
	switch result.Kind {
	case types.ResultScalar:
		pterm.Printfln("%v", result.Scalar)
	case types.ResultText:
		pterm.Println(result.Text)
	default:
		if result.Rows == nil || len(result.Rows.Values) == 0 {
			pterm.Info.Println("No rows")
			return
		}
		data := pterm.TableData{result.Rows.Columns}
		for _, row := range result.Rows.Values {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = pterm.Sprintf("%v", v)
			}
			data = append(data, cells)
		}
		pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		pterm.Printfln("%d rows (%dms)", len(result.Rows.Values), result.DurationMs)
	}
}

func saveResult(ctx context.Context, userID, spaceName string, result *types.ExecutionResult) error {
	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	store := spaces.NewStore(database)
	if result.Kind == types.ResultText {
		_, err = store.Save(ctx, userID, spaceName, result.Text, spaces.ContentText)
		return err
	}
	content, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}
	_, err = store.Save(ctx, userID, spaceName, string(content), spaces.ContentJSON)
	return err
}
