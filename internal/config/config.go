package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Database
	DBHost    string `envconfig:"DB_HOST" required:"true"`
	DBPort    string `envconfig:"DB_PORT" default:"5432"`
	DBUser    string `envconfig:"DB_USER" required:"true"`
	DBName    string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode string `envconfig:"DB_SSL_MODE" default:"disable"`
	// Secret field, loaded outside envconfig.
	DBPassword string

	// Hosted AI API
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:""`
	// Secret field.
	OpenAIAPIKey string

	// Admin session
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	// Secret fields: bcrypt hash of the admin password and the JWT
	// signing secret.
	AdminPasswordHash string
	JWTSecret         string

	// Rate limiting. The memory backend is per-process; use redis when
	// running more than one replica.
	RateLimitBackend string `envconfig:"RATE_LIMIT_BACKEND" default:"memory"`
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB          int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword    string

	// Optional broker for prompt change events; empty disables publishing.
	RabbitMQURL string `envconfig:"RABBITMQ_URL" default:""`

	// Site content
	ResumePath     string `envconfig:"RESUME_PATH" default:"resume.md"`
	BlogCategories string `envconfig:"BLOG_CATEGORIES" default:"engineering,notes,projects"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// placeholderValues are secret values that clearly never left an example
// env file. Startup refuses them so a forgotten default cannot reach
// production.
var placeholderValues = map[string]struct{}{
	"changeme":     {},
	"change-me":    {},
	"secret":       {},
	"password":     {},
	"placeholder":  {},
	"your-api-key": {},
	"xxx":          {},
	"todo":         {},
}

// LoadConfig loads configuration from the environment, with an optional
// .env file for development.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: could not load %s: %v", envFilePath, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks secret presence and rejects placeholder values.
func (c *Config) Validate() error {
	secrets := map[string]string{
		"DB_PASSWORD":         c.DBPassword,
		"OPENAI_API_KEY":      c.OpenAIAPIKey,
		"ADMIN_PASSWORD_HASH": c.AdminPasswordHash,
		"JWT_SECRET":          c.JWTSecret,
	}
	for name, value := range secrets {
		if value == "" {
			return fmt.Errorf("required secret %s is not set", name)
		}
		if _, bad := placeholderValues[strings.ToLower(value)]; bad {
			return fmt.Errorf("secret %s still holds a placeholder value", name)
		}
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash, not a plain password")
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_BACKEND %q, expected memory or redis", c.RateLimitBackend)
	}
	return nil
}

// GetAllowedOrigins splits the CORS origins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// GetBlogCategories splits the configured category list.
func (c *Config) GetBlogCategories() []string {
	parts := strings.Split(c.BlogCategories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DatabaseDSN assembles the pgx connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
