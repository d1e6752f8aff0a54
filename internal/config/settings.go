package config

import (
	"errors"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultAPIBaseURL = "http://127.0.0.1:8000"

const (
	defaultRunPollSeconds    = 2
	defaultActivePollSeconds = 5
)

type Config struct {
	API     APIConfig     `toml:"api"`
	Logging LoggingConfig `toml:"logging"`
	Store   StoreConfig   `toml:"store"`
	Poll    PollConfig    `toml:"poll"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type StoreConfig struct {
	Backend string `toml:"backend"`
}

type PollConfig struct {
	RunIntervalSeconds    int `toml:"run_interval_seconds"`
	ActiveIntervalSeconds int `toml:"active_interval_seconds"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: defaultAPIBaseURL,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Poll: PollConfig{
			RunIntervalSeconds:    defaultRunPollSeconds,
			ActiveIntervalSeconds: defaultActivePollSeconds,
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFromPath(path)
}

func (c Config) APIBaseURL() string {
	url := strings.TrimSpace(c.API.BaseURL)
	if url == "" {
		return defaultAPIBaseURL
	}
	return strings.TrimRight(url, "/")
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c Config) StoreBackend() string {
	return strings.ToLower(strings.TrimSpace(c.Store.Backend))
}

// RunPollInterval is the refresh interval for a single watched run
// while it stays active.
func (c Config) RunPollInterval() time.Duration {
	seconds := c.Poll.RunIntervalSeconds
	if seconds <= 0 {
		seconds = defaultRunPollSeconds
	}
	return time.Duration(seconds) * time.Second
}

// ActivePollInterval is the fixed refresh interval for the global
// active-run listing.
func (c Config) ActivePollInterval() time.Duration {
	seconds := c.Poll.ActiveIntervalSeconds
	if seconds <= 0 {
		seconds = defaultActivePollSeconds
	}
	return time.Duration(seconds) * time.Second
}

func loadFromPath(path string) (Config, error) {
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}
