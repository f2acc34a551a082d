package notify

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const envWebhookURL = "NOTIFY_WEBHOOK_URL"

// LoadConfig reads a notifier Config from a YAML file. An empty
// webhook_url within that file is valid: it simply keeps notifications
// disabled, since the webhook is documented as optional in spec.md §6.
// Omitting the section file entirely (confkit.Section.File == "") skips
// this loader altogether; see confkit.Section.Hydrate.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notify config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	var raw struct {
		WebhookURL string `yaml:"webhook_url"`
		Username   string `yaml:"username"`
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read notify config: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal notify config: %w", err)
	}

	cfg := &Config{WebhookURL: raw.WebhookURL, Username: raw.Username}
	cfg.applyEnvOverrides()
	if cfg.Username == "" {
		cfg.Username = "TradeSmart"
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.WebhookURL = os.ExpandEnv(c.WebhookURL)
	if envVal := os.Getenv(envWebhookURL); envVal != "" {
		c.WebhookURL = envVal
	}
}
