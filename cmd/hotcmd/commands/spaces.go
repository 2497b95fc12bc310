package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/spaces"
)

// SpacesCmd manages saved result spaces.
var SpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Manage saved result spaces",
	Long: `Spaces hold saved invocation results. Save a run's output with
"hotcmd run <name> --save <space>", then read it back or share it here.`,
}

var spacesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your spaces",
	Args:  cobra.NoArgs,
	RunE:  runSpacesLs,
}

var spacesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a space's content",
	Long:  `Print a space's content. Use owner/name to read a space shared with you.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesShow,
}

var spacesSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save stdin into a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesSave,
}

var spacesShareCmd = &cobra.Command{
	Use:   "share <name> [user ...]",
	Short: "Share a space with named users, or everyone when none are given",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpacesShare,
}

var spacesUnshareCmd = &cobra.Command{
	Use:   "unshare <name>",
	Short: "Make a space private again",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesUnshare,
}

var spacesRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpacesRm,
}

var spacesSaveJSONFlag bool

func init() {
	spacesSaveCmd.Flags().BoolVar(&spacesSaveJSONFlag, "json", false, "Store the content as JSON")
	SpacesCmd.AddCommand(spacesLsCmd, spacesShowCmd, spacesSaveCmd, spacesShareCmd, spacesUnshareCmd, spacesRmCmd)
}

func spacesStore() (*spaces.Store, func(), error) {
	database, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	return spaces.NewStore(database), func() { database.Close() }, nil
}

func runSpacesLs(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := store.List(context.Background(), sctx.UserID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		pterm.Info.Println("No spaces saved")
		return nil
	}

	rows := pterm.TableData{{"Name", "Type", "Sharing", "Updated"}}
	for _, space := range list {
		sharing := "private"
		if space.Shared {
			sharing = "everyone"
			if len(space.SharedWith) > 0 {
				sharing = strings.Join(space.SharedWith, ", ")
			}
		}
		rows = append(rows, []string{
			space.Name,
			string(space.ContentType),
			sharing,
			space.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runSpacesShow(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	owner, name := splitOwnerName(args[0], sctx)
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	space, err := store.Get(context.Background(), sctx.UserID, owner, name)
	if err != nil {
		return err
	}
	fmt.Println(space.Content)
	return nil
}

func runSpacesSave(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	contentType := spaces.ContentText
	if spacesSaveJSONFlag {
		contentType = spaces.ContentJSON
	}
	space, err := store.Save(context.Background(), sctx.UserID, args[0], string(content), contentType)
	if err != nil {
		return err
	}
	pterm.Success.Printfln("Saved space %s (%d bytes)", space.Name, len(space.Content))
	return nil
}

func runSpacesShare(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Share(context.Background(), sctx.UserID, args[0], args[1:]); err != nil {
		return err
	}
	if len(args) > 1 {
		pterm.Success.Printfln("Shared %s with %s", args[0], strings.Join(args[1:], ", "))
	} else {
		pterm.Success.Printfln("Shared %s with everyone", args[0])
	}
	return nil
}

func runSpacesUnshare(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Unshare(context.Background(), sctx.UserID, args[0]); err != nil {
		return err
	}
	pterm.Success.Printfln("Made %s private", args[0])
	return nil
}

func runSpacesRm(cmd *cobra.Command, args []string) error {
	sctx, err := securityContext()
	if err != nil {
		return err
	}
	store, cleanup, err := spacesStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Delete(context.Background(), sctx.UserID, args[0]); err != nil {
		return err
	}
	pterm.Success.Printfln("Deleted %s", args[0])
	return nil
}
