package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"bridge/internal/config"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	ConfigPath string              `json:"config_path" toml:"config_path"`
	API        configAPIOutput     `json:"api" toml:"api"`
	Logging    configLoggingOutput `json:"logging" toml:"logging"`
	Store      configStoreOutput   `json:"store" toml:"store"`
	Poll       configPollOutput    `json:"poll" toml:"poll"`
}

type configAPIOutput struct {
	BaseURL string `json:"base_url" toml:"base_url"`
}

type configLoggingOutput struct {
	Level string `json:"level" toml:"level"`
}

type configStoreOutput struct {
	Backend string `json:"backend" toml:"backend"`
}

type configPollOutput struct {
	RunIntervalSeconds    int `json:"run_interval_seconds" toml:"run_interval_seconds"`
	ActiveIntervalSeconds int `json:"active_interval_seconds" toml:"active_interval_seconds"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	if len(args) > 0 && args[0] == "token" {
		return c.storeToken(args[1:])
	}

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if !*defaults {
		cfg, err = config.Load()
		if err != nil {
			return err
		}
	}
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	payload := configOutput{
		ConfigPath: path,
		API:        configAPIOutput{BaseURL: cfg.APIBaseURL()},
		Logging:    configLoggingOutput{Level: cfg.LogLevel()},
		Store:      configStoreOutput{Backend: effectiveBackend(cfg)},
		Poll: configPollOutput{
			RunIntervalSeconds:    int(cfg.RunPollInterval().Seconds()),
			ActiveIntervalSeconds: int(cfg.ActivePollInterval().Seconds()),
		},
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func (c *ConfigCommand) storeToken(args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errors.New("usage: bridge config token <value>")
	}
	path, err := config.TokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(args[0])+"\n"), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "token written to %s\n", path)
	return nil
}

func effectiveBackend(cfg config.Config) string {
	backend := cfg.StoreBackend()
	if backend == "" {
		return "bbolt"
	}
	return backend
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}
