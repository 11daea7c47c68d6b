package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks the configuration against the requirements of the
// current environment. Development and test run fine on defaults;
// production refuses to start with placeholder secrets.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.ServerPort == "" {
		errors = append(errors, "SERVER_PORT must not be empty")
	}
	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBName == "" {
		errors = append(errors, "database host, port and name are required")
	}

	if IsProduction() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == "dev-secret-change-me" {
			errors = append(errors, "JWT_SECRET must be set in production")
		}
		if cfg.DBPassword == "" || cfg.DBPassword == "postgres" {
			errors = append(errors, "DB_PASSWORD must be set in production")
		}
		if cfg.DBSSLMode == "disable" {
			errors = append(errors, "DB_SSL_MODE must not be disable in production")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}
