package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/image-update-checker/internal/config"
	"github.com/user/image-update-checker/internal/notifier"
	"github.com/user/image-update-checker/internal/registry"
	"github.com/user/image-update-checker/pkg/types"
)

// newTestCmd crea el comando test
func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity to services",
		Long: `Test connectivity to configured services including the Telegram bot
and container image registries.`,
		RunE: runTest,
	}

	cmd.Flags().Bool("telegram", false, "Test Telegram bot connectivity")
	cmd.Flags().Bool("registries", false, "Test registry connectivity")
	cmd.Flags().Bool("all", false, "Test all services")

	return cmd
}

func runTest(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	telegram, _ := cmd.Flags().GetBool("telegram")
	registries, _ := cmd.Flags().GetBool("registries")
	all, _ := cmd.Flags().GetBool("all")

	if all || telegram {
		if err := testTelegram(cmd, cfg); err != nil {
			logger.Error("Telegram test failed", "error", err)
		}
	}

	if all || registries {
		if err := testRegistries(cmd, cfg); err != nil {
			logger.Error("Registry test failed", "error", err)
		}
	}

	if !telegram && !registries && !all {
		cmd.Println("Use --telegram, --registries, or --all flags to specify what to test")
		cmd.Println("\nAvailable test options:")
		cmd.Println("  --telegram    Test Telegram bot connectivity")
		cmd.Println("  --registries  Test registry connectivity")
		cmd.Println("  --all         Test all services")
	}

	return nil
}

func testTelegram(cmd *cobra.Command, cfg *types.Config) error {
	cmd.Println("🔄 Testing Telegram connectivity...")

	if !cfg.Telegram.Enabled {
		cmd.Println("⚠️  Telegram is disabled in configuration")
		return nil
	}

	if cfg.Telegram.BotToken == "" {
		cmd.Println("❌ Telegram bot token is not configured")
		return fmt.Errorf("telegram bot token is required")
	}

	if cfg.Telegram.ChatID == "" {
		cmd.Println("❌ Telegram chat ID is not configured")
		return fmt.Errorf("telegram chat ID is required")
	}

	// Crear cliente de Telegram
	client := notifier.NewTelegramClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	// Crear un contexto con timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Intentar enviar un mensaje de prueba
	testMessage := fmt.Sprintf("🧪 <b>Image Update Checker Test</b>\n\nTest message sent at %s\n\n✅ Bot connectivity successful!",
		time.Now().Format("2006-01-02 15:04:05"))

	err := client.SendNotification(ctx, testMessage)
	if err != nil {
		cmd.Printf("❌ Telegram test failed: %v\n", err)
		cmd.Println("💡 Make sure your bot token and chat ID are correct")
		cmd.Println("💡 You can get a bot token from @BotFather on Telegram")
		return err
	}

	cmd.Println("✅ Telegram bot connectivity successful")
	cmd.Println("📨 Test message sent to configured chat")
	return nil
}

func testRegistries(cmd *cobra.Command, cfg *types.Config) error {
	cmd.Println("🔄 Testing registry connectivity...")

	// Una sola página basta para probar conectividad y autenticación
	client := registry.NewClient(registry.Options{
		Timeout:     time.Duration(cfg.Registry.Timeout) * time.Second,
		PageSize:    cfg.Registry.PageSize,
		MaxPages:    1,
		GitHubToken: cfg.Registry.GitHubToken,
	})

	type target struct {
		name  string
		image types.ImageReference
	}

	targets := []target{
		{
			name: "Docker Hub",
			image: types.ImageReference{
				Registry:   types.DefaultRegistry,
				Repository: "library/alpine",
				Tag:        "latest",
			},
		},
		{
			name: "ECR Public",
			image: types.ImageReference{
				Registry:   "public.ecr.aws",
				Repository: "nginx/nginx",
				Tag:        "latest",
			},
		},
	}

	// GHCR necesita token, solo se prueba cuando hay uno configurado
	if cfg.Registry.GitHubToken != "" {
		targets = append(targets, target{
			name: "GitHub Container Registry",
			image: types.ImageReference{
				Registry:   "ghcr.io",
				Repository: "home-assistant/home-assistant",
				Tag:        "latest",
			},
		})
	}

	// Crear contexto con timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, tgt := range targets {
		cmd.Printf("🔍 Testing %s...\n", tgt.name)

		tags, err := client.ListTags(ctx, tgt.image)
		if err != nil {
			cmd.Printf("❌ %s test failed: %v\n", tgt.name, err)
			continue
		}

		cmd.Printf("✅ %s connectivity successful\n", tgt.name)
		cmd.Printf("📦 Found %d tags for test image\n", len(tags))
	}

	if cfg.Registry.GitHubToken == "" {
		cmd.Println("💡 GitHub Container Registry requires a token")
		cmd.Println("💡 Set GITHUB_TOKEN or 'config set registry.github_token <token>' to test it")
	}

	return nil
}
