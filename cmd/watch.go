package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/image-update-checker/internal/checker"
	"github.com/user/image-update-checker/internal/config"
	"github.com/user/image-update-checker/internal/history"
	"github.com/user/image-update-checker/internal/scheduler"
	"github.com/user/image-update-checker/pkg/version"
)

// newWatchCmd crea el comando watch
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run checks periodically on a cron schedule",
		Long: `Run image update checks on a cron schedule and send notifications when
updates are found. The command blocks until interrupted (SIGINT/SIGTERM).

The schedule uses the standard five-field cron syntax, for example
'0 8 * * *' for every day at 08:00.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().StringP("schedule", "s", "", "Cron expression (defaults to watch.schedule from configuration)")
	cmd.Flags().StringArrayP("image-url", "i", nil, "Image reference to check (repeatable, values may be space separated)")
	cmd.Flags().String("github-token", "", "GitHub token for ghcr.io repositories")
	cmd.Flags().String("constraint", "", "Semver constraint applied to reported versions (e.g. '< 2.0.0')")
	cmd.Flags().Bool("containers", false, "Check images of containers running on the local Docker daemon")
	cmd.Flags().String("compose-path", "", "Directory to scan for docker-compose files")
	cmd.Flags().BoolP("recursive", "r", true, "Scan compose directories recursively")
	cmd.Flags().BoolP("notify", "n", true, "Send notifications for found updates")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	// Obtener configuración
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Obtener flags
	schedule, _ := cmd.Flags().GetString("schedule")
	imageURLs, _ := cmd.Flags().GetStringArray("image-url")
	githubToken, _ := cmd.Flags().GetString("github-token")
	constraint, _ := cmd.Flags().GetString("constraint")
	containers, _ := cmd.Flags().GetBool("containers")
	composePath, _ := cmd.Flags().GetString("compose-path")
	notify, _ := cmd.Flags().GetBool("notify")

	if schedule == "" {
		schedule = cfg.Watch.Schedule
	}
	if schedule == "" {
		return fmt.Errorf("no schedule configured: use --schedule or set watch.schedule")
	}

	refs := splitReferences(imageURLs)

	if len(refs) == 0 && !containers && composePath == "" {
		return fmt.Errorf("nothing to watch: provide --image-url, --containers or --compose-path")
	}

	if constraint != "" {
		if err := version.ValidateConstraint(constraint); err != nil {
			return fmt.Errorf("invalid constraint %q: %w", constraint, err)
		}
	}

	if githubToken != "" {
		cfg.Registry.GitHubToken = githubToken
	}

	composeCfg := cfg.Compose
	if cmd.Flags().Changed("recursive") {
		recursive, _ := cmd.Flags().GetBool("recursive")
		composeCfg.Recursive = recursive
	}

	ctx := cmd.Context()

	// Servicios compartidos entre ejecuciones para que la caché de tags
	// sobreviva de una comprobación a la siguiente
	lister, closeCache := createTagLister(cfg, false)
	defer closeCache()

	checkSvc := checker.NewService(lister, logger)
	notifySvc := createNotificationService(cfg)
	opts := checker.Options{Constraint: constraint}

	sources := checkSources{
		refs:        refs,
		containers:  containers,
		composePath: composePath,
		composeCfg:  composeCfg,
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.Path, logger)
		if err != nil {
			logger.Warn("History store unavailable", "path", cfg.History.Path, "error", err)
		} else {
			defer store.Close()
		}
	}

	task := func() {
		logger.Info("Scheduled check starting")

		result, err := runSources(ctx, checkSvc, sources, opts, logger)
		if err != nil {
			logger.Error("Scheduled check failed", "error", err)
			return
		}

		if store != nil {
			if err := store.SaveResult(result); err != nil {
				logger.Warn("Failed to record check history", "error", err)
			}
		}

		if notify && notifySvc.HasClients() {
			if err := notifySvc.NotifyCheckResult(ctx, *result); err != nil {
				logger.Error("Failed to send notifications", "error", err)
			}
		}

		logger.Info("Scheduled check completed",
			"references", len(result.Reports),
			"updates", result.TotalUpdates(),
			"failures", len(result.FailedReferences()),
			"summary", result.Summary())
	}

	sched := scheduler.New(logger)
	if err := sched.Start(schedule, task); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if notify && !notifySvc.HasClients() {
		logger.Warn("Notifications enabled but no clients configured")
	}

	if next := sched.NextRun(); next != nil {
		logger.Info("Watch mode started", "schedule", schedule, "next_run", next.Format(time.RFC3339))
	}

	// Bloquear hasta recibir una señal de parada
	<-ctx.Done()

	logger.Info("Shutting down watch mode")
	sched.Stop()

	return nil
}
