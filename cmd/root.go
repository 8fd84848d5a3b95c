package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd crea el comando raíz de la aplicación
func NewRootCmd(logLevel *slog.LevelVar) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image-update-checker",
		Short: "Check container images for newer published versions",
		Long: `image-update-checker inspects container image references and reports
newer semantic version tags published in their registries.

References come from the command line, from docker-compose files or from
containers running on the local Docker daemon. Results can be printed as
console text, JSON or HTML, sent via Telegram and recorded in a local
history database. The check command exits with a non-zero code when
updates or failures are found, so CI pipelines can gate on freshness.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelName, _ := cmd.Flags().GetString("log-level")
			return applyLogLevel(logLevel, levelName)
		},
	}

	// Agregar subcomandos
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newTestCmd())

	// Flags globales
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// applyLogLevel ajusta el nivel de logging global una vez parseados los flags
func applyLogLevel(logLevel *slog.LevelVar, name string) error {
	if logLevel == nil {
		return nil
	}

	switch strings.ToLower(name) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", name)
	}

	return nil
}
