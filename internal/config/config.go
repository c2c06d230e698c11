package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервера генерации историй.
type Config struct {
	// Настройки HTTP сервера
	ServerPort         int      `envconfig:"SERVER_PORT" default:"8080"`
	ServerReadTimeout  int      `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	ServerWriteTimeout int      `envconfig:"SERVER_WRITE_TIMEOUT" default:"120"`
	ServerIdleTimeout  int      `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`

	// Настройки логгера
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки AI (планировщик и писатель)
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"` // openai | ollama
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.mistral.ai/v1"`
	AIModel       string        `envconfig:"AI_MODEL" default:"mistral-large-latest"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AIAPIKey      string        `envconfig:"AI_API_KEY"`
	PlannerEnable bool          `envconfig:"PLANNER_ENABLE" default:"true"`

	// Настройки ElevenLabs (нарратор и звуковой дизайнер)
	ElevenLabsAPIKey   string        `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsBaseURL  string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsTimeout  time.Duration `envconfig:"ELEVENLABS_TIMEOUT" default:"30s"`
	DefaultVoiceID     string        `envconfig:"DEFAULT_VOICE_ID" default:"FGY2WhTYpPnrIDTdsKH5"`
	SfxDurationSeconds float64       `envconfig:"SFX_DURATION_SECONDS" default:"10"`

	// Настройки Gemini (иллюстратор)
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-exp"`
	GeminiTimeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"sandman_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`

	// Настройки Redis (кэш результатов)
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Ключи проверяются при создании клиентов, а не здесь:
	// ollama ключа не требует, а ElevenLabs/Gemini опциональны (degrade).
	if cfg.AIClientType != "openai" && cfg.AIClientType != "ollama" {
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.AIClientType)
	}

	return &cfg, nil
}
