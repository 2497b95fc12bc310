package commands

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/config"
)

// ConfigCmd inspects and edits configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
	Long: `Configuration is layered: built-in defaults, /etc/hotcmd/config.toml,
~/.hotcmd/config.toml, a hotcmd.toml found in the project tree, then
HOTCMD_* environment variables. "config set" writes to the user file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a value to the user configuration file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	ConfigCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	v := config.GetViper()
	keys := v.AllKeys()
	sort.Strings(keys)

	rows := pterm.TableData{{"Key", "Value"}}
	for _, key := range keys {
		value := v.Get(key)
		if key == "translator.api_key" && value != "" {
			value = "********"
		}
		rows = append(rows, []string{key, fmt.Sprintf("%v", value)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return err
	}
	fmt.Println(config.GetViper().Get(args[0]))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}
	pterm.Success.Printfln("Set %s in %s", args[0], config.UserConfigPath())
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println(config.UserConfigPath())
	return nil
}
