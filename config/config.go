package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort     string
	ServerHost     string
	AllowedOrigins []string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	MigrationsDir string

	// Redis configuration. Redis is optional; rate limits and drafts are
	// disabled without it.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Text-generation service (any OpenAI-compatible endpoint)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float32

	PipelineMaxAttempts   int
	RecipeCreationPerHour int

	// Failure archive
	S3BucketName string
	AWSRegion    string

	LogMode         string
	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelSampleRatio float64
}

// secretKeys may come from Docker secrets when the environment variable is unset.
var secretKeys = []string{"db_user", "db_password", "jwt_secret", "redis_password", "llm_api_key"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "recipeforge")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "recipeforge.db")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LLM_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("LLM_MODEL", "llama3-70b-8192")
	v.SetDefault("LLM_TEMPERATURE", 0)
	v.SetDefault("PIPELINE_MAX_ATTEMPTS", 3)
	v.SetDefault("RECIPE_CREATION_PER_HOUR", 20)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SAMPLER_RATIO", 0.1)
}

// LoadConfig creates a new Config from environment variables and secrets
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load is LoadConfig with an optional config file (yaml, json, toml or .env)
// whose values sit below environment variables.
func Load(configFile string) (*Config, error) {
	env := GetEnvironment()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	switch env {
	case CI:
		if err := loadCISecrets(v); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test, Production:
		loadDockerSecrets(v)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if env == Development || env == Test {
		v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	}

	ttl, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		Environment:           env,
		ServerPort:            v.GetString("SERVER_PORT"),
		ServerHost:            v.GetString("SERVER_HOST"),
		AllowedOrigins:        splitList(v.GetString("ALLOWED_ORIGINS")),
		DBDriver:              strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:                v.GetString("DB_HOST"),
		DBPort:                v.GetString("DB_PORT"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		DBName:                v.GetString("DB_NAME"),
		DBSSLMode:             v.GetString("DB_SSL_MODE"),
		SQLitePath:            v.GetString("SQLITE_PATH"),
		MigrationsDir:         v.GetString("MIGRATIONS_DIR"),
		RedisHost:             v.GetString("REDIS_HOST"),
		RedisPort:             v.GetString("REDIS_PORT"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		RedisURL:              v.GetString("REDIS_URL"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		JWTTTL:                ttl,
		LLMBaseURL:            v.GetString("LLM_BASE_URL"),
		LLMAPIKey:             v.GetString("LLM_API_KEY"),
		LLMModel:              v.GetString("LLM_MODEL"),
		LLMTemperature:        float32(v.GetFloat64("LLM_TEMPERATURE")),
		PipelineMaxAttempts:   v.GetInt("PIPELINE_MAX_ATTEMPTS"),
		RecipeCreationPerHour: v.GetInt("RECIPE_CREATION_PER_HOUR"),
		S3BucketName:          v.GetString("S3_BUCKET_NAME"),
		AWSRegion:             v.GetString("AWS_REGION"),
		LogMode:               v.GetString("LOG_MODE"),
		OTelEnabled:           v.GetBool("OTEL_ENABLED"),
		OTelEndpoint:          v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelInsecure:          v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTelSampleRatio:       v.GetFloat64("OTEL_SAMPLER_RATIO"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// loadCISecrets reads sensitive values from the TEST_* variables GitHub Actions provides
func loadCISecrets(v *viper.Viper) error {
	password := os.Getenv("TEST_DB_PASSWORD")
	if password == "" && v.GetString("DB_DRIVER") == "postgres" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	v.Set("DB_PASSWORD", password)
	v.Set("JWT_SECRET", os.Getenv("TEST_JWT_SECRET"))
	v.Set("REDIS_PASSWORD", os.Getenv("TEST_REDIS_PASSWORD"))
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		v.Set("REDIS_URL", url)
	}
	return nil
}

// loadDockerSecrets fills sensitive values that the environment left empty
func loadDockerSecrets(v *viper.Viper) {
	for _, name := range secretKeys {
		key := strings.ToUpper(name)
		if v.GetString(key) != "" {
			continue
		}
		if secret := readSecret(name); secret != "" {
			v.Set(key, secret)
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
