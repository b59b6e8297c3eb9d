package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no file is named.
const DefaultEnvFile = ".env"

// LoadDotEnv copies variables from a dotenv file into the environment. A
// missing file is skipped. Variables already set in the environment win.
func LoadDotEnv(path string) error {
	return loadDotEnv(path, false)
}

// MustLoadDotEnv is LoadDotEnv for a file the operator named on the
// command line, so a missing file is an error.
func MustLoadDotEnv(path string) error {
	return loadDotEnv(path, true)
}

func loadDotEnv(path string, required bool) error {
	if path == "" {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s from %s: %w", key, path, err)
		}
	}
	return nil
}

// LoadConfig reads the optional dotenv file at envPath, then the
// environment.
func LoadConfig(envPath string) (AppConfig, error) {
	if err := LoadDotEnv(envPath); err != nil {
		return AppConfig{}, err
	}
	envCfg, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, fmt.Errorf("load environment: %w", err)
	}
	return envCfg.ToAppConfig(), nil
}
