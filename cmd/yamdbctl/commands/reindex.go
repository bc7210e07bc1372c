package commands

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/yamdb/yamdb-server/internal/di/providers"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the title search index from the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(injector do.Injector) error {
			storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
			indexHandle := do.MustInvoke[*providers.SearchIndexHandle](injector)
			if indexHandle.SearchIndex == nil {
				return errors.New("search is disabled (search.enabled is false)")
			}

			n, err := indexHandle.Reindex(cmd.Context(), storeHandle.Store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d titles.\n", n)
			return nil
		})
	},
}
