package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/backoffice/internal/cli/pagination"
	"github.com/rshade/backoffice/internal/scanitems"
	"github.com/rshade/backoffice/internal/tui"
)

// ErrNoItemsSelected is returned when a bulk command resolves to zero items.
var ErrNoItemsSelected = errors.New("no items selected: pass item IDs or --from-folder")

// itemSorter defines the --sort fields for item listings.
//
//nolint:gochecknoglobals // Immutable lookup table.
var itemSorter = pagination.NewSorter(map[string]pagination.LessFunc[scanitems.Item]{
	"code":    func(a, b scanitems.Item) bool { return a.Code < b.Code },
	"label":   func(a, b scanitems.Item) bool { return a.Label < b.Label },
	"created": func(a, b scanitems.Item) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"updated": func(a, b scanitems.Item) bool { return a.UpdatedAt.Before(b.UpdatedAt) },
})

func newItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Scan item commands",
	}
	cmd.AddCommand(
		NewItemsListCmd(), NewItemsAddCmd(),
		NewItemsMoveCmd(), NewItemsDeleteCmd(),
	)
	return cmd
}

// itemListOutput is the JSON shape of items list.
type itemListOutput struct {
	Items      []scanitems.Item `json:"items"`
	Pagination pagination.Meta  `json:"pagination"`
}

// NewItemsListCmd creates the items list command.
func NewItemsListCmd() *cobra.Command {
	var (
		page    pagination.Params
		folder  string
		unfiled bool
		search  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scan items",
		Example: `  backoffice items list --search qr-00 --page 2 --page-size 25
  backoffice items list --folder "Spring campaign" --sort updated:desc --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			if err = page.Validate(); err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			filter := scanitems.Filter{Unfiled: unfiled, Search: search}
			if folder != "" {
				f, findErr := store.FindFolder(folder)
				if findErr != nil {
					return findErr
				}
				filter.FolderID = f.ID
			}

			items, err := itemSorter.Sort(store.List(filter), page.Sort)
			if err != nil {
				return err
			}

			params := page.WithDefaultPageSize(configPageSize())
			window := pagination.Apply(params, items)
			meta := pagination.NewMeta(params, len(items), len(window))

			if format == outputJSON {
				return writeJSON(cmd.OutOrStdout(), itemListOutput{Items: window, Pagination: meta})
			}

			cmd.Println(tui.RenderItemsTable(window, folderNames(store)))
			if len(items) > 0 {
				cmd.Println(tui.MutedStyle.Render(fmt.Sprintf(
					"Showing %d of %d items (page %d/%d)",
					meta.Returned, meta.TotalItems, meta.CurrentPage, meta.TotalPages)))
			}
			return nil
		},
	}

	page.AddFlags(cmd)
	cmd.Flags().StringVar(&folder, "folder", "", "only items in this folder (ID or name)")
	cmd.Flags().BoolVar(&unfiled, "unfiled", false, "only items outside any folder")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on code or label")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: table or json (default from config)")
	cmd.MarkFlagsMutuallyExclusive("folder", "unfiled")

	return cmd
}

// NewItemsAddCmd creates the items add command.
func NewItemsAddCmd() *cobra.Command {
	var label, folder string

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Register a scan item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			folderID := ""
			if folder != "" {
				f, findErr := store.FindFolder(folder)
				if findErr != nil {
					return findErr
				}
				folderID = f.ID
			}

			it, err := store.Add(strings.TrimSpace(args[0]), label, folderID)
			if err != nil {
				return err
			}
			logger.Info().Ctx(cmd.Context()).Str("item_id", it.ID).Str("code", it.Code).Msg("scan item added")
			cmd.Printf("Added %s (%s)\n", it.Code, it.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "display label")
	cmd.Flags().StringVar(&folder, "folder", "", "folder to file the item under (ID or name)")
	return cmd
}

// bulkFlags are shared by the bulk item commands.
type bulkFlags struct {
	fromFolder string
	delay      string
	failFast   bool
}

func (b *bulkFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.fromFolder, "from-folder", "", "select every item in this folder (ID or name)")
	cmd.Flags().StringVar(&b.delay, "delay", "", "pause between items, e.g. 250ms (default from config)")
	cmd.Flags().BoolVar(&b.failFast, "fail-fast", false, "stop at the first failed item (default from config)")
}

// options resolves flag values against the configuration.
func (b *bulkFlags) options(cmd *cobra.Command, title string) (batchOptions, error) {
	opts := batchOptions{
		Title:       title,
		ItemDelay:   configItemDelay(),
		StopOnError: configStopOnError(),
	}
	if b.delay != "" {
		d, err := parseItemDelay(b.delay)
		if err != nil {
			return batchOptions{}, err
		}
		opts.ItemDelay = d
	}
	if cmd.Flags().Changed("fail-fast") {
		opts.StopOnError = b.failFast
	}
	return opts, nil
}

// selection resolves the items named by args and --from-folder, keeping order
// and dropping duplicates. IDs that do not exist are kept so the run reports them.
type selection struct {
	ids    []string
	labels map[string]string
}

func (b *bulkFlags) selectItems(store *scanitems.Store, args []string) (selection, error) {
	sel := selection{labels: make(map[string]string)}
	seen := make(map[string]bool)

	push := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		sel.ids = append(sel.ids, id)
		if it, err := store.Get(id); err == nil {
			sel.labels[id] = it.Code
		}
	}

	for _, id := range args {
		push(strings.TrimSpace(id))
	}
	if b.fromFolder != "" {
		f, err := store.FindFolder(b.fromFolder)
		if err != nil {
			return selection{}, err
		}
		for _, it := range store.List(scanitems.Filter{FolderID: f.ID}) {
			push(it.ID)
		}
	}

	if len(sel.ids) == 0 {
		return selection{}, ErrNoItemsSelected
	}
	return sel, nil
}

// label returns the display label of id: its code when known.
func (s selection) label(id string) string {
	if code, ok := s.labels[id]; ok {
		return code
	}
	return id
}

// NewItemsMoveCmd creates the items move command.
func NewItemsMoveCmd() *cobra.Command {
	var (
		bulk    bulkFlags
		folder  string
		unfiled bool
	)

	cmd := &cobra.Command{
		Use:   "move [item-id...] (--folder <folder> | --unfile)",
		Short: "Move scan items into a folder, one at a time",
		Example: `  backoffice items move 01J8ZQ... 01J8ZR... --folder "Spring campaign"
  backoffice items move --from-folder inbox --folder archive --delay 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if folder == "" && !unfiled {
				return errors.New("either --folder or --unfile is required")
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}

			targetID, targetName := "", "no folder"
			if folder != "" {
				f, findErr := store.FindFolder(folder)
				if findErr != nil {
					return findErr
				}
				targetID, targetName = f.ID, f.Name
			}

			sel, err := bulk.selectItems(store, args)
			if err != nil {
				return err
			}
			opts, err := bulk.options(cmd, fmt.Sprintf("Moving %d items to %s", len(sel.ids), targetName))
			if err != nil {
				return err
			}

			res, err := runBatch(cmd, opts, sel.ids, sel.label,
				func(_ context.Context, id string) error {
					return store.MoveToFolder(id, targetID)
				})
			if err != nil {
				return err
			}
			return reportBatch(cmd, res)
		},
	}

	bulk.add(cmd)
	cmd.Flags().StringVar(&folder, "folder", "", "destination folder (ID or name)")
	cmd.Flags().BoolVar(&unfiled, "unfile", false, "remove the items from their folder")
	cmd.MarkFlagsMutuallyExclusive("folder", "unfile")
	return cmd
}

// NewItemsDeleteCmd creates the items delete command.
func NewItemsDeleteCmd() *cobra.Command {
	var (
		bulk  bulkFlags
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete [item-id...]",
		Short: "Delete scan items, one at a time",
		Example: `  backoffice items delete 01J8ZQ... 01J8ZR...
  backoffice items delete --from-folder "Old campaign" --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			sel, err := bulk.selectItems(store, args)
			if err != nil {
				return err
			}

			if !force {
				question := fmt.Sprintf("Delete %d scan items? This cannot be undone.", len(sel.ids))
				answer := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), question)
				if !answer.Accepted {
					cmd.Println("Aborted.")
					return nil
				}
			}

			opts, err := bulk.options(cmd, fmt.Sprintf("Deleting %d items", len(sel.ids)))
			if err != nil {
				return err
			}

			res, err := runBatch(cmd, opts, sel.ids, sel.label,
				func(_ context.Context, id string) error {
					return store.Delete(id)
				})
			if err != nil {
				return err
			}
			return reportBatch(cmd, res)
		},
	}

	bulk.add(cmd)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
