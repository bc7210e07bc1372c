// Package commands implements the yamdbctl subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/yamdb/yamdb-server/internal/di"
)

var (
	// Global flags, forwarded to the configuration loader.
	configPath string
	dataDir    string
	dbPath     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "Administer a YaMDb server",
	Long: `yamdbctl works directly on the database and search index of a YaMDb server.
It reads the same configuration as the server: defaults, a YAML file,
YAMDB_* environment variables and the flags below.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the database, token key and search index")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(createSuperuserCmd, loadDataCmd, reindexCmd)
}

// configArgs turns the global flags into server-style arguments.
func configArgs() []string {
	var args []string
	for flag, value := range map[string]string{
		"--config":    configPath,
		"--data-dir":  dataDir,
		"--db-path":   dbPath,
		"--log-level": logLevel,
	} {
		if value != "" {
			args = append(args, flag, value)
		}
	}
	return args
}

// withContainer builds a container, runs fn and shuts the container down.
// Only what fn invokes is started; the HTTP server never is.
func withContainer(fn func(injector do.Injector) error) (err error) {
	injector := di.NewContainer(configArgs())
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
		if report := injector.Shutdown(); report != nil && !report.Succeed && err == nil {
			err = report
		}
	}()
	return fn(injector)
}
