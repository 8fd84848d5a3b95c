package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/image-update-checker/internal/cache"
	"github.com/user/image-update-checker/internal/checker"
	"github.com/user/image-update-checker/internal/compose"
	"github.com/user/image-update-checker/internal/config"
	"github.com/user/image-update-checker/internal/docker"
	"github.com/user/image-update-checker/internal/history"
	"github.com/user/image-update-checker/internal/notifier"
	"github.com/user/image-update-checker/internal/registry"
	"github.com/user/image-update-checker/internal/report"
	"github.com/user/image-update-checker/pkg/types"
	"github.com/user/image-update-checker/pkg/version"
)

// Output format constants
const (
	formatHTML = "html"
	formatJSON = "json"
)

// newCheckCmd crea el comando check
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check image references for newer published versions",
		Long: `Check container image references against their registries and report
newer non-prerelease semantic version tags.

References come from --image-url flags, from containers running on the
local Docker daemon (--containers) or from docker-compose files found
under --compose-path. The command exits with a non-zero code when any
reference has updates available or failed to process.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	cmd.Flags().StringArrayP("image-url", "i", nil, "Image reference to check (repeatable, values may be space separated)")
	cmd.Flags().String("github-token", "", "GitHub token for ghcr.io repositories")
	cmd.Flags().String("constraint", "", "Semver constraint applied to reported versions (e.g. '< 2.0.0')")
	cmd.Flags().Bool("containers", false, "Check images of containers running on the local Docker daemon")
	cmd.Flags().String("compose-path", "", "Directory to scan for docker-compose files")
	cmd.Flags().BoolP("recursive", "r", true, "Scan compose directories recursively")
	cmd.Flags().BoolP("notify", "n", false, "Send notifications for found updates")
	cmd.Flags().StringP("output", "o", "console", "Output format (console, json, html)")
	cmd.Flags().String("output-file", "", "Write output to file instead of stdout")
	cmd.Flags().Bool("no-cache", false, "Bypass the tag list cache for this run")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	// Obtener configuración
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Obtener flags
	imageURLs, _ := cmd.Flags().GetStringArray("image-url")
	githubToken, _ := cmd.Flags().GetString("github-token")
	constraint, _ := cmd.Flags().GetString("constraint")
	containers, _ := cmd.Flags().GetBool("containers")
	composePath, _ := cmd.Flags().GetString("compose-path")
	notify, _ := cmd.Flags().GetBool("notify")
	outputFormat, _ := cmd.Flags().GetString("output")
	outputFile, _ := cmd.Flags().GetString("output-file")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	refs := splitReferences(imageURLs)

	if len(refs) == 0 && !containers && composePath == "" {
		return fmt.Errorf("nothing to check: provide --image-url, --containers or --compose-path")
	}

	// Validar el constraint antes de tocar la red
	if constraint != "" {
		if err := version.ValidateConstraint(constraint); err != nil {
			return fmt.Errorf("invalid constraint %q: %w", constraint, err)
		}
	}

	// El flag tiene prioridad sobre el entorno y el archivo de configuración
	if githubToken != "" {
		cfg.Registry.GitHubToken = githubToken
	}

	composeCfg := cfg.Compose
	if cmd.Flags().Changed("recursive") {
		recursive, _ := cmd.Flags().GetBool("recursive")
		composeCfg.Recursive = recursive
	}

	ctx := cmd.Context()

	lister, closeCache := createTagLister(cfg, noCache)
	defer closeCache()

	checkSvc := checker.NewService(lister, logger)
	opts := checker.Options{Constraint: constraint}

	sources := checkSources{
		refs:        refs,
		containers:  containers,
		composePath: composePath,
		composeCfg:  composeCfg,
	}

	result, err := runSources(ctx, checkSvc, sources, opts, logger)
	if err != nil {
		return err
	}

	// Mostrar resultados según el formato solicitado
	reportSvc := createReportService()
	writtenFile, err := outputResult(cmd, *result, outputFormat, outputFile, reportSvc)
	if err != nil {
		return fmt.Errorf("failed to output result: %w", err)
	}

	// Enviar notificaciones si está habilitado
	notifySvc := createNotificationService(cfg)
	if notify && notifySvc.HasClients() {
		if err := notifySvc.NotifyCheckResult(ctx, *result); err != nil {
			logger.Error("Failed to send notifications", "error", err)
			// No retornamos error aquí, la comprobación fue exitosa
		} else {
			logger.Info("Notifications sent successfully")
		}

		// Adjuntar el informe generado cuando se escribió a disco
		if writtenFile != "" && result.HasUpdates() {
			caption := fmt.Sprintf("Image update report (%s)", result.CheckedAt.Format("2006-01-02 15:04"))
			if err := notifySvc.NotifyReportFile(ctx, writtenFile, filepath.Base(writtenFile), caption); err != nil {
				logger.Error("Failed to send report file", "error", err)
			}
		}
	} else if notify && !notifySvc.HasClients() {
		logger.Warn("Notification requested but no clients configured")
	}

	// Registrar la comprobación en el histórico
	if cfg.History.Enabled {
		saveHistory(cfg, result, logger)
	}

	logger.Info("Check completed",
		"references", len(result.Reports),
		"updates", result.TotalUpdates(),
		"failures", len(result.FailedReferences()),
		"duration", result.Duration)

	return resultError(result)
}

// checkSources agrupa las fuentes de referencias de una comprobación
type checkSources struct {
	refs        []string
	containers  bool
	composePath string
	composeCfg  types.ComposeConfig
}

// runSources ejecuta la comprobación sobre todas las fuentes solicitadas y
// fusiona los resultados
func runSources(ctx context.Context, checkSvc *checker.Service, sources checkSources, opts checker.Options, logger *slog.Logger) (*types.CheckResult, error) {
	result := &types.CheckResult{CheckedAt: time.Now().UTC()}

	if len(sources.refs) > 0 {
		result.Merge(checkSvc.CheckReferences(ctx, sources.refs, opts))
	}

	if sources.containers {
		images, err := collectDaemonImages(ctx, logger)
		if err != nil {
			return nil, err
		}
		result.Merge(checkSvc.CheckImages(ctx, images, opts))
	}

	if sources.composePath != "" {
		images, err := collectComposeImages(ctx, sources.composePath, sources.composeCfg, logger)
		if err != nil {
			return nil, err
		}
		result.Merge(checkSvc.CheckImages(ctx, images, opts))
	}

	return result, nil
}

// splitReferences separa valores con espacios para aceptar tanto flags
// repetidos como listas en un solo flag
func splitReferences(values []string) []string {
	var refs []string
	for _, value := range values {
		refs = append(refs, strings.Fields(value)...)
	}
	return refs
}

// collectDaemonImages obtiene las imágenes de los contenedores en ejecución
func collectDaemonImages(ctx context.Context, logger *slog.Logger) ([]types.ImageReference, error) {
	dockerClient, err := docker.NewClient(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer dockerClient.Close()

	if err := dockerClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	images, err := dockerClient.ScanRunningContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning running containers: %w", err)
	}

	if len(images) == 0 {
		logger.Warn("No running containers found")
	}

	return images, nil
}

// collectComposeImages obtiene las imágenes declaradas en archivos compose
func collectComposeImages(ctx context.Context, path string, composeCfg types.ComposeConfig, logger *slog.Logger) ([]types.ImageReference, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}

	scanner := compose.NewScanner()
	images, files, err := scanner.ScanDirectory(ctx, path, composeCfg)
	if err != nil {
		return nil, fmt.Errorf("scanning compose files: %w", err)
	}

	logger.Info("Compose files scanned", "files", len(files), "images", len(images))
	if len(files) == 0 {
		logger.Warn("No compose files found", "path", path)
	}

	return images, nil
}

// createTagLister construye el cliente de registros, envuelto en caché salvo
// que esté deshabilitada. Devuelve también la función de cierre de la caché.
func createTagLister(cfg *types.Config, noCache bool) (types.TagLister, func()) {
	client := registry.NewClient(registry.Options{
		Timeout:     time.Duration(cfg.Registry.Timeout) * time.Second,
		PageSize:    cfg.Registry.PageSize,
		MaxPages:    cfg.Registry.MaxPages,
		GitHubToken: cfg.Registry.GitHubToken,
	})

	if noCache || !cfg.Cache.Enabled {
		return client, func() {}
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.DefaultTTL = time.Duration(cfg.Cache.TTL) * time.Minute
	tagCache := cache.NewTagCache(cacheCfg)

	return cache.NewCachedTagLister(client, tagCache), tagCache.Close
}

func createReportService() *reportService {
	jsonFormatter := &report.JSONFormatter{}
	htmlFormatter := &report.HTMLFormatter{}

	return &reportService{
		jsonFormatter: jsonFormatter,
		htmlFormatter: htmlFormatter,
	}
}

func createNotificationService(cfg *types.Config) *notifier.NotificationService {
	notifySvc := notifier.NewNotificationService()

	// Agregar cliente de Telegram si está configurado
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		telegramClient := notifier.NewTelegramClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		notifySvc.AddClient(telegramClient)
	}

	return notifySvc
}

// saveHistory registra el resultado en el histórico; un fallo aquí nunca
// tumba la comprobación
func saveHistory(cfg *types.Config, result *types.CheckResult, logger *slog.Logger) {
	store, err := history.NewStore(cfg.History.Path, logger)
	if err != nil {
		logger.Warn("History store unavailable", "path", cfg.History.Path, "error", err)
		return
	}
	defer store.Close()

	if err := store.SaveResult(result); err != nil {
		logger.Warn("Failed to record check history", "error", err)
	}
}

// outputResult escribe el resultado en el formato pedido y devuelve la ruta
// del archivo generado, vacía cuando se escribió a stdout
func outputResult(cmd *cobra.Command, result types.CheckResult, format, outputFile string, reportSvc *reportService) (string, error) {
	var formatter types.ReportFormatter
	var ext string

	switch strings.ToLower(format) {
	case formatJSON:
		formatter = reportSvc.jsonFormatter
		ext = ".json"
	case formatHTML:
		formatter = reportSvc.htmlFormatter
		ext = ".html"
	default:
		// Formato console - mostrar resumen
		return "", outputConsole(cmd, result)
	}

	output, err := formatter.Format(result)
	if err != nil {
		return "", err
	}

	if outputFile != "" {
		// Asegurar que tenga la extensión correcta
		if !strings.HasSuffix(outputFile, ext) {
			outputFile += ext
		}

		if err := os.WriteFile(outputFile, []byte(output), 0600); err != nil {
			return "", fmt.Errorf("failed to write output file: %w", err)
		}

		cmd.Printf("Results written to %s\n", outputFile)
		return outputFile, nil
	}

	cmd.Println(output)
	return "", nil
}

func outputConsole(cmd *cobra.Command, result types.CheckResult) error {
	cmd.Printf("Checked at: %s\n", result.CheckedAt.Format("2006-01-02 15:04:05 MST"))
	cmd.Printf("References checked: %d\n", len(result.Reports))
	cmd.Printf("Up to date: %d\n", result.UpToDateCount())

	if updated := result.UpdatedReferences(); len(updated) > 0 {
		cmd.Printf("\nAvailable Updates (%d):\n", len(updated))
		for _, item := range updated {
			cmd.Printf("  %s (%s -> %s) [%s]\n",
				item.Reference,
				item.Image.Tag,
				item.LatestTag,
				item.UpdateType)
			if len(item.NewerTags) > 1 {
				cmd.Printf("      newer tags: %s\n", strings.Join(item.NewerTags, ", "))
			}
		}
	}

	if failed := result.FailedReferences(); len(failed) > 0 {
		cmd.Printf("\nErrors (%d):\n", len(failed))
		for _, item := range failed {
			cmd.Printf("  - %s: %s\n", item.Reference, item.Error)
		}
	}

	cmd.Printf("\n%s\n", result.Summary())

	return nil
}

// resultError traduce el resultado al contrato de salida del comando: error
// no nulo cuando hay actualizaciones disponibles o referencias fallidas
func resultError(result *types.CheckResult) error {
	updates := result.TotalUpdates()
	failures := len(result.FailedReferences())

	switch {
	case updates > 0 && failures > 0:
		return fmt.Errorf("found %d newer versions and %d failed references", updates, failures)
	case updates > 0:
		return fmt.Errorf("found %d newer versions", updates)
	case failures > 0:
		return fmt.Errorf("%d references failed to check", failures)
	default:
		return nil
	}
}

// reportService es un helper para manejar los formateadores
type reportService struct {
	jsonFormatter *report.JSONFormatter
	htmlFormatter *report.HTMLFormatter
}
