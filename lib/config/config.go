// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEPLOYWATCH_"

// Message types accepted by MatrixConfig.MessageType.
const (
	MessageTypeText   = "m.text"
	MessageTypeNotice = "m.notice"
)

// Config is the deploywatch daemon configuration.
type Config struct {
	// Channel is the Matrix room (ID or alias) the monitor announces
	// to and answers status queries in.
	Channel string `yaml:"channel" env:"CHANNEL"`

	// DeployTTL is how long a deploy may go without progress before
	// it is dropped.
	DeployTTL time.Duration `yaml:"deploy_ttl" env:"DEPLOY_TTL"`

	// MinHosts is the smallest deploy whose progress milestones are
	// announced.
	MinHosts int `yaml:"min_hosts" env:"MIN_HOSTS"`

	// Timezone renders start times in topics and status lines. An
	// IANA name such as "America/Los_Angeles"; default UTC.
	Timezone string `yaml:"timezone" env:"TIMEZONE"`

	Matrix MatrixConfig `yaml:"matrix" envPrefix:"MATRIX_"`
	Listen ListenConfig `yaml:"listen" envPrefix:"LISTEN_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// MatrixConfig configures the connection to the homeserver.
type MatrixConfig struct {
	HomeserverURL string `yaml:"homeserver_url" env:"HOMESERVER_URL"`
	UserID        string `yaml:"user_id" env:"USER_ID"`

	// AccessTokenFile holds the bot's access token. The token may
	// instead be given directly in DEPLOYWATCH_MATRIX_ACCESS_TOKEN,
	// which is never read from the file.
	AccessTokenFile string `yaml:"access_token_file" env:"ACCESS_TOKEN_FILE"`
	AccessToken     string `yaml:"-" env:"ACCESS_TOKEN,unset"`

	// Tag is the bot's name in the topics it sets ("<tag> ...") and
	// in addressed commands ("tag: status").
	Tag string `yaml:"tag" env:"TAG"`

	// MessageType is m.text or m.notice.
	MessageType string `yaml:"message_type" env:"MESSAGE_TYPE"`

	// SendInterval and SendBurst pace outgoing events.
	SendInterval time.Duration `yaml:"send_interval" env:"SEND_INTERVAL"`
	SendBurst    int           `yaml:"send_burst" env:"SEND_BURST"`
}

// ListenConfig configures the event transports. Either may be empty
// to disable it, but not both.
type ListenConfig struct {
	// HTTP is the TCP address of the form-encoded HTTP listener.
	HTTP string `yaml:"http" env:"HTTP"`

	// Socket is the path of the CBOR service socket used by deployctl.
	Socket string `yaml:"socket" env:"SOCKET"`
}

// LogConfig configures lib/logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the values a config file starts from.
func Default() *Config {
	return &Config{
		DeployTTL: 30 * time.Minute,
		MinHosts:  8,
		Timezone:  "UTC",
		Matrix: MatrixConfig{
			Tag:          "deploywatch",
			MessageType:  MessageTypeText,
			SendInterval: 500 * time.Millisecond,
			SendBurst:    5,
		},
		Listen: ListenConfig{
			Socket: "${XDG_RUNTIME_DIR:-/run}/deploywatch.sock",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the file named by DEPLOYWATCH_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvPrefix + "CONFIG")
	if path == "" {
		return nil, fmt.Errorf("%sCONFIG environment variable not set; "+
			"set it to the path of your deploywatch.yaml, or use --config", EnvPrefix)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, then applies environment
// overrides and variable expansion.
func LoadFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.expandVariables()
	return config, nil
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment overrides: %w", err)
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Matrix.AccessTokenFile = expandVars(c.Matrix.AccessTokenFile)
	c.Listen.Socket = expandVars(c.Listen.Socket)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors, reporting all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Channel == "" {
		errs = append(errs, errors.New("channel is required"))
	}
	if c.DeployTTL <= 0 {
		errs = append(errs, fmt.Errorf("deploy_ttl must be positive, got %s", c.DeployTTL))
	}
	if c.MinHosts < 0 {
		errs = append(errs, fmt.Errorf("min_hosts must not be negative, got %d", c.MinHosts))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, errors.New("matrix.homeserver_url is required"))
	} else if parsed, err := url.Parse(c.Matrix.HomeserverURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url %q is not an absolute URL", c.Matrix.HomeserverURL))
	}
	if !strings.HasPrefix(c.Matrix.UserID, "@") {
		errs = append(errs, fmt.Errorf("matrix.user_id must be a Matrix user ID (@user:server), got %q", c.Matrix.UserID))
	}
	if c.Matrix.AccessToken == "" && c.Matrix.AccessTokenFile == "" {
		errs = append(errs, errors.New("matrix.access_token_file is required (or set "+EnvPrefix+"MATRIX_ACCESS_TOKEN)"))
	}
	if c.Matrix.Tag == "" || strings.ContainsAny(c.Matrix.Tag, "<> ") {
		errs = append(errs, fmt.Errorf("matrix.tag must be a non-empty word, got %q", c.Matrix.Tag))
	}
	if c.Matrix.MessageType != MessageTypeText && c.Matrix.MessageType != MessageTypeNotice {
		errs = append(errs, fmt.Errorf("matrix.message_type must be %s or %s, got %q", MessageTypeText, MessageTypeNotice, c.Matrix.MessageType))
	}
	if c.Matrix.SendInterval < 0 {
		errs = append(errs, fmt.Errorf("matrix.send_interval must not be negative, got %s", c.Matrix.SendInterval))
	}
	if c.Matrix.SendBurst < 1 {
		errs = append(errs, fmt.Errorf("matrix.send_burst must be at least 1, got %d", c.Matrix.SendBurst))
	}

	if c.Listen.HTTP == "" && c.Listen.Socket == "" {
		errs = append(errs, errors.New("at least one of listen.http and listen.socket is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Location resolves Timezone. An empty Timezone is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return location, nil
}

// ReadAccessToken returns the Matrix access token, preferring the
// environment over AccessTokenFile.
func (c *Config) ReadAccessToken() (string, error) {
	if c.Matrix.AccessToken != "" {
		return c.Matrix.AccessToken, nil
	}
	data, err := os.ReadFile(c.Matrix.AccessTokenFile)
	if err != nil {
		return "", fmt.Errorf("config: reading access token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("config: access token file %s is empty", c.Matrix.AccessTokenFile)
	}
	return token, nil
}
