package oracle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxTokens          = 1024
	defaultSystemTemplatePath = "etc/prompts/oracle_system.tmpl"
	defaultUserTemplatePath   = "etc/prompts/oracle_user.tmpl"

	envAPIKey  = "ORACLE_API_KEY"
	envBaseURL = "ORACLE_BASE_URL"
)

// LoadConfig reads an oracle Config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open oracle config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	var raw struct {
		BaseURL            string `yaml:"base_url"`
		APIKey             string `yaml:"api_key"`
		Model              string `yaml:"model"`
		MaxTokens          int    `yaml:"max_tokens"`
		SystemTemplatePath string `yaml:"system_template_path"`
		UserTemplatePath   string `yaml:"user_template_path"`
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read oracle config: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal oracle config: %w", err)
	}

	cfg := &Config{
		BaseURL:            raw.BaseURL,
		APIKey:              raw.APIKey,
		Model:               raw.Model,
		MaxTokens:           raw.MaxTokens,
		SystemTemplatePath: raw.SystemTemplatePath,
		UserTemplatePath:   raw.UserTemplatePath,
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if strings.TrimSpace(c.SystemTemplatePath) == "" {
		c.SystemTemplatePath = defaultSystemTemplatePath
	}
	if strings.TrimSpace(c.UserTemplatePath) == "" {
		c.UserTemplatePath = defaultUserTemplatePath
	}
}

func (c *Config) applyEnvOverrides() {
	c.BaseURL = expandAndOverride(c.BaseURL, envBaseURL)
	c.APIKey = expandAndOverride(c.APIKey, envAPIKey)
	if raw := os.Getenv("ORACLE_MAX_TOKENS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			c.MaxTokens = v
		}
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("oracle config: base_url is required")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("oracle config: api_key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("oracle config: model is required")
	}
	return nil
}

func expandAndOverride(current, envKey string) string {
	current = os.ExpandEnv(current)
	if envVal := os.Getenv(envKey); envVal != "" {
		return envVal
	}
	return current
}
