package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/service"
)

var (
	superuserName  string
	superuserEmail string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an administrator that passes every permission check",
	Long: `Create a superuser account. The account signs in like any other:
POST /api/v1/auth/signup with the same username and email mails a confirmation
code, which /api/v1/auth/token exchanges for a bearer token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(injector do.Injector) error {
			users := do.MustInvoke[*service.UserService](injector)

			u, err := users.CreateSuperuser(cmd.Context(), superuserName, superuserEmail)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q created.\n", u.Username)
			return nil
		})
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuserName, "username", "", "Username of the new superuser")
	createSuperuserCmd.Flags().StringVar(&superuserEmail, "email", "", "Email address of the new superuser")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
}

// describe flattens field errors into a single line per field.
func describe(err error) error {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) || len(domainErr.Fields()) == 0 {
		return err
	}
	fields := domainErr.Fields()
	lines := make([]string, 0, len(fields))
	for _, name := range fields.Names() {
		lines = append(lines, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], "; ")))
	}
	return errors.New(strings.Join(lines, "\n"))
}
