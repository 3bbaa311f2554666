/*
SPDX-FileCopyrightText: 2025 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultRelayPort      = 587
	DefaultKeyringService = "relaynotify"
)

// Relay describes the SMTP submission endpoint.
type Relay struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	// Password is never stored inline unless Value is set; see SecretSource.
	Password           SecretSource `yaml:"password,omitempty"`
	InsecureSkipVerify bool         `yaml:"insecureSkipVerify,omitempty"`
	// SSL forces implicit TLS. Port 465 implies it.
	SSL       bool   `yaml:"ssl,omitempty"`
	LocalName string `yaml:"localName,omitempty"`
}

// SecretSource lists the places the relay secret may come from. The first
// non-empty one wins, in the order Value, Env, File, Keyring.
type SecretSource struct {
	Value   string      `yaml:"value,omitempty"`
	Env     string      `yaml:"env,omitempty"`
	File    string      `yaml:"file,omitempty"`
	Keyring *KeyringRef `yaml:"keyring,omitempty"`
}

type KeyringRef struct {
	Service string `yaml:"service,omitempty"`
	User    string `yaml:"user,omitempty"`
}

// IsZero reports whether no source is configured.
func (s SecretSource) IsZero() bool {
	return s.Value == "" && s.Env == "" && s.File == "" && s.Keyring == nil
}

type Sender struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name,omitempty"`
}

// Message is the fixed notification sent to every recipient.
type Message struct {
	Subject  string `yaml:"subject"`
	Body     string `yaml:"body,omitempty"`
	BodyFile string `yaml:"bodyFile,omitempty"`
}

type Config struct {
	Relay      Relay    `yaml:"relay"`
	Sender     Sender   `yaml:"sender"`
	Message    Message  `yaml:"message"`
	Recipients []string `yaml:"recipients"`

	// Fields filled from relay.username follow it when the environment
	// overrides the username later.
	senderFromUsername      bool
	keyringUserFromUsername bool
}

// Load reads the configuration file at path and resolves a relative
// message.bodyFile against the config file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trying to open relaynotify config file %s: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}
	if cfg.Message.BodyFile != "" && cfg.Message.Body == "" {
		bodyPath := cfg.Message.BodyFile
		if !filepath.IsAbs(bodyPath) {
			bodyPath = filepath.Join(filepath.Dir(path), bodyPath)
		}
		body, err := os.ReadFile(bodyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body file: %w", err)
		}
		cfg.Message.Body = string(body)
	}
	return cfg, nil
}

// Parse decodes YAML content and applies defaults.
func Parse(content []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(content, &cfg); err != nil {
		return nil, err
	}
	cfg.Defaults()
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) Defaults() {
	if c.Relay.Port == 0 {
		c.Relay.Port = DefaultRelayPort
	}
	if c.Relay.Port == 465 {
		c.Relay.SSL = true
	}
	if k := c.Relay.Password.Keyring; k != nil {
		if k.Service == "" {
			k.Service = DefaultKeyringService
		}
		if k.User == "" || c.keyringUserFromUsername {
			k.User = c.Relay.Username
			c.keyringUserFromUsername = true
		}
	}
	if c.Sender.Address == "" || c.senderFromUsername {
		c.Sender.Address = c.Relay.Username
		c.senderFromUsername = true
	}
}

// ApplyEnv overrides relay and sender settings from RELAYNOTIFY_* variables.
func (c *Config) ApplyEnv() error {
	c.Relay.Host = getEnvString("RELAYNOTIFY_HOST", c.Relay.Host)
	c.Relay.Username = getEnvString("RELAYNOTIFY_USERNAME", c.Relay.Username)
	if v := getEnvString("RELAYNOTIFY_SENDER", ""); v != "" {
		c.Sender.Address = v
		c.senderFromUsername = false
	}
	if v, ok := os.LookupEnv("RELAYNOTIFY_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RELAYNOTIFY_PORT %q: %w", v, err)
		}
		c.Relay.Port = port
	}
	c.Defaults()
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Relay.Host) == "" {
		errs = append(errs, errors.New("relay.host is required"))
	}
	if c.Relay.Port < 1 || c.Relay.Port > 65535 {
		errs = append(errs, fmt.Errorf("relay.port %d out of range", c.Relay.Port))
	}
	if c.Relay.Username != "" && c.Relay.Password.IsZero() {
		errs = append(errs, errors.New("relay.password must name a secret source when relay.username is set"))
	}
	if strings.TrimSpace(c.Message.Subject) == "" {
		errs = append(errs, errors.New("message.subject is required"))
	}
	if _, err := mail.ParseAddress(c.Sender.Address); err != nil {
		errs = append(errs, fmt.Errorf("sender.address %q: %w", c.Sender.Address, err))
	}
	if c.Message.Body == "" && c.Message.BodyFile == "" {
		errs = append(errs, errors.New("message.body or message.bodyFile is required"))
	}
	for i, r := range c.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			errs = append(errs, fmt.Errorf("recipients[%d] %q: %w", i, r, err))
		}
	}
	return errors.Join(errs...)
}

// Example returns a starter configuration for `config init`.
func Example() Config {
	cfg := Config{
		Relay: Relay{
			Host:     "smtp.example.com",
			Port:     DefaultRelayPort,
			Username: "notifications@example.com",
			Password: SecretSource{Env: "RELAYNOTIFY_PASSWORD"},
		},
		Sender: Sender{Address: "notifications@example.com", Name: "Administration Team"},
		Message: Message{
			Subject: "Account Password Reset Successful",
			Body:    "Your password has been successfully reset.\n\nPlease change it immediately upon logging in.\n",
		},
		Recipients: []string{"user@example.com"},
	}
	cfg.Defaults()
	return cfg
}

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
