package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ve := range e {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration against the requirements of its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}

	switch cfg.DBDriver {
	case "postgres":
		for field, value := range map[string]string{
			"DB_HOST": cfg.DBHost,
			"DB_PORT": cfg.DBPort,
			"DB_USER": cfg.DBUser,
			"DB_NAME": cfg.DBName,
		} {
			if value == "" {
				errs = append(errs, ValidationError{field, "is required for the postgres driver"})
			}
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite driver"})
		}
		if cfg.Environment == Production {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not supported in production"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unknown driver %q", cfg.DBDriver)})
	}

	if cfg.PipelineMaxAttempts < 1 {
		errs = append(errs, ValidationError{"PIPELINE_MAX_ATTEMPTS", "must be at least 1"})
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, ValidationError{"JWT_TTL", "must be positive"})
	}

	// Sensitive values are mandatory outside local development
	if cfg.Environment == Production || cfg.Environment == CI {
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"JWT_SECRET", "jwt_secret is required"})
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "db_password is required"})
		}
	}
	if cfg.Environment == Production && cfg.LLMAPIKey == "" {
		errs = append(errs, ValidationError{"LLM_API_KEY", "llm_api_key is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
