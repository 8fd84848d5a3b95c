package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/image-update-checker/pkg/errors"
	"github.com/user/image-update-checker/pkg/types"
)

// Configuration keys and values constants
const (
	// Configuration section keys
	keyTelegram    = "telegram"
	keyRegistry    = "registry"
	keyCompose     = "compose"
	keyCache       = "cache"
	keyHistory     = "history"
	keyWatch       = "watch"
	keyEnabled     = "enabled"
	keyTimeout     = "timeout"
	keyBotToken    = "bot_token"
	keyChatID      = "chat_id"
	keyMaxPages    = "max_pages"
	keyPageSize    = "page_size"
	keyGitHubToken = "github_token"
	keyRecursive   = "recursive"
	keyPatterns    = "patterns"
	keyTTL         = "ttl"
	keyPath        = "path"
	keySchedule    = "schedule"

	// Configuration values
	valueTrue = "true"
)

// GetConfigPath devuelve la ruta del archivo de configuración
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap("config.GetConfigPath", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFile), nil
}

// EnsureConfigDir crea el directorio de configuración si no existe
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap("config.EnsureConfigDir", err)
	}

	configDir := filepath.Join(homeDir, DefaultConfigDir)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return errors.Wrapf("config.EnsureConfigDir", err, "creating directory %s", configDir)
	}

	return nil
}

// SetValue establece un valor en la configuración usando notación de puntos
func SetValue(cfg *types.Config, key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return errors.Newf("config.SetValue", "invalid key format: %s", key)
	}

	switch parts[0] {
	case keyTelegram:
		return setTelegramValue(cfg, parts[1:], value)
	case keyRegistry:
		return setRegistryValue(cfg, parts[1:], value)
	case keyCompose:
		return setComposeValue(cfg, parts[1:], value)
	case keyCache:
		return setCacheValue(cfg, parts[1:], value)
	case keyHistory:
		return setHistoryValue(cfg, parts[1:], value)
	case keyWatch:
		return setWatchValue(cfg, parts[1:], value)
	default:
		return errors.Newf("config.SetValue", "unknown config section: %s", parts[0])
	}
}

// GetValue obtiene un valor de la configuración usando notación de puntos
func GetValue(cfg *types.Config, key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return "", errors.Newf("config.GetValue", "invalid key format: %s", key)
	}

	switch parts[0] {
	case keyTelegram:
		return getTelegramValue(cfg, parts[1:])
	case keyRegistry:
		return getRegistryValue(cfg, parts[1:])
	case keyCompose:
		return getComposeValue(cfg, parts[1:])
	case keyCache:
		return getCacheValue(cfg, parts[1:])
	case keyHistory:
		return getHistoryValue(cfg, parts[1:])
	case keyWatch:
		return getWatchValue(cfg, parts[1:])
	default:
		return "", errors.Newf("config.GetValue", "unknown config section: %s", parts[0])
	}
}

func setTelegramValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setTelegramValue", "missing telegram field")
	}

	switch parts[0] {
	case keyBotToken:
		cfg.Telegram.BotToken = value
	case keyChatID:
		cfg.Telegram.ChatID = value
	case keyEnabled:
		enabled := strings.ToLower(value) == valueTrue
		cfg.Telegram.Enabled = enabled
	default:
		return errors.Newf("config.setTelegramValue", "unknown telegram field: %s", parts[0])
	}

	return nil
}

func getTelegramValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getTelegramValue", "missing telegram field")
	}

	switch parts[0] {
	case keyBotToken:
		return cfg.Telegram.BotToken, nil
	case keyChatID:
		return cfg.Telegram.ChatID, nil
	case keyEnabled:
		return fmt.Sprintf("%t", cfg.Telegram.Enabled), nil
	default:
		return "", errors.Newf("config.getTelegramValue", "unknown telegram field: %s", parts[0])
	}
}

func setRegistryValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setRegistryValue", "missing registry field")
	}

	switch parts[0] {
	case keyTimeout:
		var timeout int
		if _, err := fmt.Sscanf(value, "%d", &timeout); err != nil {
			return errors.Wrapf("config.setRegistryValue", err, "invalid timeout value: %s", value)
		}
		cfg.Registry.Timeout = timeout
	case keyMaxPages:
		var pages int
		if _, err := fmt.Sscanf(value, "%d", &pages); err != nil {
			return errors.Wrapf("config.setRegistryValue", err, "invalid max pages value: %s", value)
		}
		cfg.Registry.MaxPages = pages
	case keyPageSize:
		var size int
		if _, err := fmt.Sscanf(value, "%d", &size); err != nil {
			return errors.Wrapf("config.setRegistryValue", err, "invalid page size value: %s", value)
		}
		cfg.Registry.PageSize = size
	case keyGitHubToken:
		cfg.Registry.GitHubToken = value
	default:
		return errors.Newf("config.setRegistryValue", "unknown registry field: %s", parts[0])
	}

	return nil
}

func getRegistryValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getRegistryValue", "missing registry field")
	}

	switch parts[0] {
	case keyTimeout:
		return fmt.Sprintf("%d", cfg.Registry.Timeout), nil
	case keyMaxPages:
		return fmt.Sprintf("%d", cfg.Registry.MaxPages), nil
	case keyPageSize:
		return fmt.Sprintf("%d", cfg.Registry.PageSize), nil
	case keyGitHubToken:
		// No mostrar el token completo por seguridad
		if cfg.Registry.GitHubToken == "" {
			return "", nil
		}
		return "[REDACTED]", nil
	default:
		return "", errors.Newf("config.getRegistryValue", "unknown registry field: %s", parts[0])
	}
}

func setComposeValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setComposeValue", "missing compose field")
	}

	switch parts[0] {
	case keyRecursive:
		enabled := strings.ToLower(value) == valueTrue
		cfg.Compose.Recursive = enabled
	case keyPatterns:
		// Split comma-separated patterns
		patterns := strings.Split(value, ",")
		for i, pattern := range patterns {
			patterns[i] = strings.TrimSpace(pattern)
		}
		cfg.Compose.Patterns = patterns
	default:
		return errors.Newf("config.setComposeValue", "unknown compose field: %s", parts[0])
	}

	return nil
}

func getComposeValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getComposeValue", "missing compose field")
	}

	switch parts[0] {
	case keyRecursive:
		return fmt.Sprintf("%t", cfg.Compose.Recursive), nil
	case keyPatterns:
		return strings.Join(cfg.Compose.Patterns, ", "), nil
	default:
		return "", errors.Newf("config.getComposeValue", "unknown compose field: %s", parts[0])
	}
}

func setCacheValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setCacheValue", "missing cache field")
	}

	switch parts[0] {
	case keyEnabled:
		enabled := strings.ToLower(value) == valueTrue
		cfg.Cache.Enabled = enabled
	case keyTTL:
		var ttl int
		if _, err := fmt.Sscanf(value, "%d", &ttl); err != nil {
			return errors.Wrapf("config.setCacheValue", err, "invalid TTL value: %s", value)
		}
		cfg.Cache.TTL = ttl
	default:
		return errors.Newf("config.setCacheValue", "unknown cache field: %s", parts[0])
	}

	return nil
}

func getCacheValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getCacheValue", "missing cache field")
	}

	switch parts[0] {
	case keyEnabled:
		return fmt.Sprintf("%t", cfg.Cache.Enabled), nil
	case keyTTL:
		return fmt.Sprintf("%d", cfg.Cache.TTL), nil
	default:
		return "", errors.Newf("config.getCacheValue", "unknown cache field: %s", parts[0])
	}
}

func setHistoryValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setHistoryValue", "missing history field")
	}

	switch parts[0] {
	case keyEnabled:
		enabled := strings.ToLower(value) == valueTrue
		cfg.History.Enabled = enabled
	case keyPath:
		cfg.History.Path = value
	default:
		return errors.Newf("config.setHistoryValue", "unknown history field: %s", parts[0])
	}

	return nil
}

func getHistoryValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getHistoryValue", "missing history field")
	}

	switch parts[0] {
	case keyEnabled:
		return fmt.Sprintf("%t", cfg.History.Enabled), nil
	case keyPath:
		return cfg.History.Path, nil
	default:
		return "", errors.Newf("config.getHistoryValue", "unknown history field: %s", parts[0])
	}
}

func setWatchValue(cfg *types.Config, parts []string, value string) error {
	if len(parts) == 0 {
		return errors.New("config.setWatchValue", "missing watch field")
	}

	switch parts[0] {
	case keySchedule:
		cfg.Watch.Schedule = value
	default:
		return errors.Newf("config.setWatchValue", "unknown watch field: %s", parts[0])
	}

	return nil
}

func getWatchValue(cfg *types.Config, parts []string) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("config.getWatchValue", "missing watch field")
	}

	switch parts[0] {
	case keySchedule:
		return cfg.Watch.Schedule, nil
	default:
		return "", errors.Newf("config.getWatchValue", "unknown watch field: %s", parts[0])
	}
}
