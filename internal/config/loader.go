package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, expands, and validates configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	expanded, err := expandEnvVars(string(data))
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", absPath, err)
	}

	return cfg, nil
}

// expandEnvVars substitutes ${VAR} references with environment values.
// An unset variable is an error rather than an empty string: a missing
// webhook secret must fail loudly at startup, not silently at verify time.
func expandEnvVars(raw string) (string, error) {
	var missing []string
	expanded := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unset environment variable(s) referenced in config: %s",
			strings.Join(missing, ", "))
	}
	return expanded, nil
}

// Validate checks the configuration for startup-fatal problems.
func (c *Config) Validate() error {
	if c.GitHub.AppID <= 0 {
		return fmt.Errorf("github.app_id is required and must be positive")
	}

	hasInline := c.GitHub.PrivateKey != ""
	hasPath := c.GitHub.PrivateKeyPath != ""
	if !hasInline && !hasPath {
		return fmt.Errorf("one of github.private_key or github.private_key_path is required")
	}
	if hasInline && hasPath {
		return fmt.Errorf("github.private_key and github.private_key_path are mutually exclusive")
	}

	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("github.webhook_secret is required")
	}
	if c.GitHub.APIBaseURL == "" {
		return fmt.Errorf("github.api_base_url must not be empty")
	}
	if c.GitHub.ExchangeTimeout <= 0 {
		return fmt.Errorf("github.exchange_timeout must be positive")
	}

	if c.Webhook.Listen == "" {
		return fmt.Errorf("webhook.listen is required")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path must start with '/', got %q", c.Webhook.Path)
	}

	return nil
}
