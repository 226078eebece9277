package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL  string
	TokenFile   string
	Env         string
	HTTPTimeout time.Duration
}

func Load() (*Config, error) {
	baseURL := os.Getenv("BANK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}

	tokenFile := os.Getenv("BANKFRONT_TOKEN_FILE")
	if tokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory for token file: %w", err)
		}
		tokenFile = filepath.Join(home, ".bankfront", "token")
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	timeout := 15 * time.Second
	if raw := os.Getenv("HTTP_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS value %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}

	return &Config{
		APIBaseURL:  baseURL,
		TokenFile:   tokenFile,
		Env:         env,
		HTTPTimeout: timeout,
	}, nil
}
