package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/backoffice/internal/config"
	"github.com/rshade/backoffice/internal/scanitems"
)

// Output formats accepted by --output.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// openStore opens the scan-item store named by --store, or the configured one.
func openStore(cmd *cobra.Command) (*scanitems.Store, error) {
	path, _ := cmd.Flags().GetString("store")
	if path == "" {
		var err error
		path, err = config.GetGlobalConfig().StorePath()
		if err != nil {
			return nil, fmt.Errorf("resolving store path: %w", err)
		}
	}

	store, err := scanitems.Open(path)
	switch {
	case errors.Is(err, scanitems.ErrStoreCorrupted):
		return nil, fmt.Errorf("%w (inspect or move %s aside to start fresh)", err, path)
	case err != nil:
		return nil, err
	}

	logger.Debug().Ctx(cmd.Context()).Str("path", path).Int("items", store.Count()).Msg("opened scan item store")
	return store, nil
}

// resolveOutputFormat returns the --output value or the configured default.
func resolveOutputFormat(flagValue string) (string, error) {
	format := flagValue
	if format == "" {
		format = config.GetGlobalConfig().Output.DefaultFormat
	}
	format = strings.ToLower(format)
	if format != outputTable && format != outputJSON {
		return "", fmt.Errorf("%w: got %q", config.ErrInvalidOutputFormat, format)
	}
	return format, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// folderNames maps folder IDs to names for display.
func folderNames(store *scanitems.Store) map[string]string {
	names := make(map[string]string)
	for _, f := range store.Folders() {
		names[f.ID] = f.Name
	}
	return names
}
