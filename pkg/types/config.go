package types

// RegistryConfig representa la configuración del cliente de registros
type RegistryConfig struct {
	Timeout     int    `yaml:"timeout" json:"timeout"` // en segundos
	MaxPages    int    `yaml:"max_pages" json:"max_pages"`
	PageSize    int    `yaml:"page_size" json:"page_size"`
	GitHubToken string `yaml:"github_token" json:"github_token" env:"GITHUB_TOKEN"`
}

// ComposeConfig representa la configuración del escaneo de archivos compose
type ComposeConfig struct {
	Recursive bool     `yaml:"recursive" json:"recursive"`
	Patterns  []string `yaml:"patterns" json:"patterns"`
}

// CacheConfig configuración de la caché de tags
type CacheConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	TTL     int  `yaml:"ttl" json:"ttl"` // en minutos
}

// TelegramConfig configuración para notificaciones Telegram
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" json:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" json:"chat_id" env:"TELEGRAM_CHAT_ID"`
	Enabled  bool   `yaml:"enabled" json:"enabled" env:"TELEGRAM_ENABLED"`
}

// HistoryConfig configuración del histórico de comprobaciones
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"HISTORY_ENABLED"`
	Path    string `yaml:"path" json:"path" env:"HISTORY_PATH"`
}

// WatchConfig configuración del modo de comprobación periódica
type WatchConfig struct {
	Schedule string `yaml:"schedule" json:"schedule" env:"WATCH_SCHEDULE"`
}

// Config representa la configuración completa de la aplicación
type Config struct {
	Registry RegistryConfig `yaml:"registry" json:"registry"`
	Compose  ComposeConfig  `yaml:"compose" json:"compose"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
}
