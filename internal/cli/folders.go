package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/backoffice/internal/scanitems"
	"github.com/rshade/backoffice/internal/tui"
)

func newFoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folders",
		Aliases: []string{"folder"},
		Short:   "Folder commands",
	}
	cmd.AddCommand(NewFoldersListCmd(), NewFoldersCreateCmd(), NewFoldersDeleteCmd())
	return cmd
}

// folderOutput is the JSON shape of one folder in folders list.
type folderOutput struct {
	scanitems.Folder

	ItemCount int `json:"item_count"`
}

// NewFoldersListCmd creates the folders list command.
func NewFoldersListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List folders with their item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			folders := store.Folders()
			counts := store.FolderCounts()

			if format == outputJSON {
				out := make([]folderOutput, 0, len(folders))
				for _, f := range folders {
					out = append(out, folderOutput{Folder: f, ItemCount: counts[f.ID]})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			cmd.Println(tui.RenderFoldersTable(folders, counts))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table or json (default from config)")
	return cmd
}

// NewFoldersCreateCmd creates the folders create command.
func NewFoldersCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			f, err := store.CreateFolder(args[0])
			if err != nil {
				return err
			}
			logger.Info().Ctx(cmd.Context()).Str("folder_id", f.ID).Str("name", f.Name).Msg("folder created")
			cmd.Printf("Created folder %s (%s)\n", f.Name, f.ID)
			return nil
		},
	}
}

// NewFoldersDeleteCmd creates the folders delete command. Only empty folders
// can be deleted; move or delete their items first.
func NewFoldersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			f, err := store.FindFolder(args[0])
			if err != nil {
				return err
			}
			if err = store.DeleteFolder(f.ID); err != nil {
				return err
			}
			logger.Info().Ctx(cmd.Context()).Str("folder_id", f.ID).Msg("folder deleted")
			cmd.Printf("Deleted folder %s\n", f.Name)
			return nil
		},
	}
}
