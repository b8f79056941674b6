package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/webhook"
)

// Config captures everything patio needs at startup.
type Config struct {
	BaseURL        string
	Token          string
	StorageOrigin  string
	StoragePrefix  string
	LogPath        string
	LogLevel       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	MaxImageBytes  int64
}

// EnvPrefix is prepended to every environment override, e.g. PATIO_TOKEN.
const EnvPrefix = "PATIO"

const (
	defaultConfigPath     = "~/.config/patio/config.toml"
	defaultLogPath        = "~/.local/state/patio/patio.log"
	defaultLogLevel       = "info"
	defaultPollSeconds    = 15
	defaultTimeoutSeconds = 30
	defaultMaxImageBytes  = 10 << 20
)

// raw mirrors the TOML file. The same struct receives environment
// overrides, so a variable only replaces the file value when it is set.
type raw struct {
	BaseURL               string `toml:"base_url" envconfig:"BASE_URL"`
	Token                 string `toml:"token" envconfig:"TOKEN"`
	StorageOrigin         string `toml:"storage_origin" envconfig:"STORAGE_ORIGIN"`
	StoragePrefix         string `toml:"storage_prefix" envconfig:"STORAGE_PREFIX"`
	LogPath               string `toml:"log_path" envconfig:"LOG_PATH"`
	LogLevel              string `toml:"log_level" envconfig:"LOG_LEVEL"`
	PollSeconds           int    `toml:"poll_seconds" envconfig:"POLL_SECONDS"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" envconfig:"REQUEST_TIMEOUT_SECONDS"`
	MaxImageBytes         int64  `toml:"max_image_bytes" envconfig:"MAX_IMAGE_BYTES"`
}

// Load reads the config file, applies PATIO_* environment overrides, and
// fills defaults for anything left empty. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var r raw
	if err := readFile(resolved, &r); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process(EnvPrefix, &r); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return r.resolve(), nil
}

// LoadDotEnv exports the variables in the given .env files (".env" when none
// are given) into the process environment. Missing files are skipped and
// variables that are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func readFile(path string, dest *raw) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (r raw) resolve() Config {
	cfg := Config{
		BaseURL:        orDefault(r.BaseURL, webhook.DefaultBaseURL),
		Token:          strings.TrimSpace(r.Token),
		StorageOrigin:  strings.TrimRight(orDefault(r.StorageOrigin, imagecodec.DefaultOrigin), "/"),
		StoragePrefix:  strings.Trim(orDefault(r.StoragePrefix, imagecodec.DefaultPrefix), "/"),
		LogPath:        mustExpand(orDefault(r.LogPath, defaultLogPath)),
		LogLevel:       strings.ToLower(orDefault(r.LogLevel, defaultLogLevel)),
		PollInterval:   seconds(r.PollSeconds, defaultPollSeconds),
		RequestTimeout: seconds(r.RequestTimeoutSeconds, defaultTimeoutSeconds),
		MaxImageBytes:  r.MaxImageBytes,
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	return cfg
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
