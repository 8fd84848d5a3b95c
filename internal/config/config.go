package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
	yaml "gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir   = ".image-update-checker"
	DefaultConfigFile  = "config.yaml"
	DefaultHistoryFile = "history.db"
)

// Load carga la configuración desde archivo y variables de entorno
func Load(configPath string) (*types.Config, error) {
	cfg := DefaultConfig()

	// Si no se especifica path, usar el directorio home del usuario
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap("config.Load", err)
		}
		configPath = filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFile)
	}

	// Cargar desde archivo si existe
	if err := loadFromFile(cfg, configPath); err != nil {
		// Si el archivo no existe, no es un error - usar configuración por defecto
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf("config.Load", err, "loading config file %s", configPath)
		}
	}

	// Sobrescribir con variables de entorno
	loadFromEnv(cfg)

	// El histórico va junto al archivo de configuración salvo que se indique otro path
	if cfg.History.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap("config.Load", err)
		}
		cfg.History.Path = filepath.Join(homeDir, DefaultConfigDir, DefaultHistoryFile)
	}

	// Validar configuración
	if err := validate(cfg); err != nil {
		return nil, errors.Wrap("config.Load", err)
	}

	return cfg, nil
}

// DefaultConfig devuelve la configuración por defecto
func DefaultConfig() *types.Config {
	return &types.Config{
		Registry: types.RegistryConfig{
			Timeout:  30,
			MaxPages: 3,
			PageSize: 100,
		},
		Compose: types.ComposeConfig{
			Recursive: true,
			Patterns: []string{
				"docker-compose.yml",
				"docker-compose.*.yml",
				"compose.yml",
			},
		},
		Cache: types.CacheConfig{
			Enabled: true,
			TTL:     15,
		},
		Telegram: types.TelegramConfig{
			Enabled: false,
		},
		History: types.HistoryConfig{
			Enabled: true,
		},
		Watch: types.WatchConfig{
			Schedule: "0 8 * * *",
		},
	}
}

// loadFromFile carga la configuración desde un archivo YAML
func loadFromFile(cfg *types.Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf("config.loadFromFile", err, "parsing YAML file %s", filePath)
	}

	return nil
}

// loadFromEnv carga configuración desde variables de entorno
func loadFromEnv(cfg *types.Config) {
	// Telegram configuration
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		cfg.Telegram.ChatID = chatID
	}
	if enabled := os.Getenv("TELEGRAM_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Telegram.Enabled = val
		}
	}

	// Token de GitHub para repositorios de ghcr.io
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.Registry.GitHubToken = token
	}

	// Registry configuration
	if timeout := os.Getenv("REGISTRY_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil && val > 0 {
			cfg.Registry.Timeout = val
		}
	}
	if pages := os.Getenv("REGISTRY_MAX_PAGES"); pages != "" {
		if val, err := strconv.Atoi(pages); err == nil && val > 0 {
			cfg.Registry.MaxPages = val
		}
	}
	if size := os.Getenv("REGISTRY_PAGE_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.Registry.PageSize = val
		}
	}

	// Compose configuration
	if recursive := os.Getenv("COMPOSE_RECURSIVE"); recursive != "" {
		if val, err := strconv.ParseBool(recursive); err == nil {
			cfg.Compose.Recursive = val
		}
	}
	if patterns := os.Getenv("COMPOSE_PATTERNS"); patterns != "" {
		cfg.Compose.Patterns = strings.Split(patterns, ",")
		// Trim whitespace from patterns
		for i, pattern := range cfg.Compose.Patterns {
			cfg.Compose.Patterns[i] = strings.TrimSpace(pattern)
		}
	}

	// Cache configuration
	if enabled := os.Getenv("CACHE_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Cache.Enabled = val
		}
	}
	if ttl := os.Getenv("CACHE_TTL"); ttl != "" {
		if val, err := strconv.Atoi(ttl); err == nil && val > 0 {
			cfg.Cache.TTL = val
		}
	}

	// History configuration
	if enabled := os.Getenv("HISTORY_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.History.Enabled = val
		}
	}
	if path := os.Getenv("HISTORY_PATH"); path != "" {
		cfg.History.Path = path
	}

	// Watch configuration
	if schedule := os.Getenv("WATCH_SCHEDULE"); schedule != "" {
		cfg.Watch.Schedule = schedule
	}
}

func validate(cfg *types.Config) error {
	// Validar configuración de Telegram si está habilitada
	if cfg.Telegram.Enabled {
		if cfg.Telegram.BotToken == "" {
			return errors.New("config.validate", "telegram bot token is required when telegram is enabled")
		}
		if cfg.Telegram.ChatID == "" {
			return errors.New("config.validate", "telegram chat ID is required when telegram is enabled")
		}
	}

	// Validar parámetros del registro
	if cfg.Registry.Timeout <= 0 {
		return errors.New("config.validate", "registry timeout must be positive")
	}
	if cfg.Registry.MaxPages <= 0 {
		return errors.New("config.validate", "registry max pages must be positive")
	}
	if cfg.Registry.PageSize <= 0 {
		return errors.New("config.validate", "registry page size must be positive")
	}

	// Validar patrones de escaneo
	if len(cfg.Compose.Patterns) == 0 {
		return errors.New("config.validate", "at least one compose pattern is required")
	}

	// Validar caché
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return errors.New("config.validate", "cache TTL must be positive when cache is enabled")
	}

	return nil
}

// Save guarda la configuración en un archivo
func Save(cfg *types.Config, configPath string) error {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap("config.Save", err)
		}
		configDir := filepath.Join(homeDir, DefaultConfigDir)
		if err := os.MkdirAll(configDir, 0750); err != nil {
			return errors.Wrapf("config.Save", err, "creating config directory %s", configDir)
		}
		configPath = filepath.Join(configDir, DefaultConfigFile)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap("config.Save", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.Wrapf("config.Save", err, "writing config file %s", configPath)
	}

	return nil
}
