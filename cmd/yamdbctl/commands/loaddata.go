package commands

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/yamdb/yamdb-server/internal/di/providers"
	"github.com/yamdb/yamdb-server/internal/fixtures"
	"github.com/yamdb/yamdb-server/internal/logger"
	"github.com/yamdb/yamdb-server/internal/service"
)

var loadDataCmd = &cobra.Command{
	Use:   "loaddata <file.yaml>",
	Short: "Load categories, genres, users, titles, reviews and comments from YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		//#nosec G304 -- path is supplied by the operator
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		data, err := fixtures.Decode(file)
		if err != nil {
			return err
		}

		return withContainer(func(injector do.Injector) error {
			storeHandle := do.MustInvoke[*providers.StoreHandle](injector)
			// Attaches the index to the store so loaded titles become searchable.
			_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
			log := do.MustInvoke[*logger.Logger](injector)

			loader := fixtures.NewLoader(fixtures.Services{
				Users:      do.MustInvoke[*service.UserService](injector),
				Categories: do.MustInvoke[*service.CategoryService](injector),
				Genres:     do.MustInvoke[*service.GenreService](injector),
				Titles:     do.MustInvoke[*service.TitleService](injector),
				Reviews:    do.MustInvoke[*service.ReviewService](injector),
				Comments:   do.MustInvoke[*service.CommentService](injector),
			}, storeHandle.Store, log.Logger)

			sum, err := loader.Load(cmd.Context(), data)
			fmt.Fprintf(cmd.OutOrStdout(),
				"Loaded %d categories, %d genres, %d users, %d titles, %d reviews, %d comments.\n",
				sum.Categories, sum.Genres, sum.Users, sum.Titles, sum.Reviews, sum.Comments)
			if err != nil {
				return describe(err)
			}
			return nil
		})
	},
}
