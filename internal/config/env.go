package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileVar names an env file that wins over the --env flag.
const EnvFileVar = "REACJILATOR_ENV_FILE"

// LoadEnvFile loads a .env file into the process environment, overriding
// variables already set. It returns the path it loaded.
func LoadEnvFile(requested, defaultPath string) (string, error) {
	if defaultPath == "" {
		defaultPath = ".env"
	}

	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		if err := godotenv.Overload(custom); err == nil {
			return custom, nil
		}
	}

	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = defaultPath
	}
	if err := godotenv.Overload(requested); err == nil {
		return requested, nil
	}

	base := filepath.Base(requested)
	if base != "" && base != requested {
		if err := godotenv.Overload(base); err == nil {
			return base, nil
		}
	}

	if requested != defaultPath {
		if err := godotenv.Overload(defaultPath); err == nil {
			return defaultPath, nil
		}
	}

	return "", fmt.Errorf("failed to load env file from %s", requested)
}
