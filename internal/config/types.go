package config

import "time"

// Config represents the complete portcullis configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	GitHub   GitHubConfig   `yaml:"github"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Handlers HandlersConfig `yaml:"handlers,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// GitHubConfig defines the GitHub App credentials and token-exchange settings.
// PrivateKey and WebhookSecret are secrets: they must never be logged or
// echoed back in any response or error message.
type GitHubConfig struct {
	// AppID is the numeric identifier of the GitHub App.
	AppID int64 `yaml:"app_id"`

	// PrivateKey is the app's RSA signing key as an inline PEM string.
	// Escaped "\n" sequences are normalized to real newlines on load, so the
	// key can be supplied via a single-line environment variable.
	PrivateKey string `yaml:"private_key,omitempty"`

	// PrivateKeyPath points at a PEM file; mutually exclusive with PrivateKey.
	PrivateKeyPath string `yaml:"private_key_path,omitempty"`

	// WebhookSecret is the shared secret for webhook signature verification.
	WebhookSecret string `yaml:"webhook_secret"`

	// APIBaseURL is the GitHub API root (override for GHES or tests).
	APIBaseURL string `yaml:"api_base_url"`

	// ExchangeTimeout bounds the installation token exchange network call.
	ExchangeTimeout time.Duration `yaml:"exchange_timeout"`

	// RetryTransient enables a single bounded retry of the token exchange
	// when it fails with a transient (network/5xx) error.
	RetryTransient bool `yaml:"retry_transient"`
}

// WebhookConfig defines the inbound webhook listener.
type WebhookConfig struct {
	Listen      string `yaml:"listen"`
	Path        string `yaml:"path"`
	MaxBodySize string `yaml:"max_body_size,omitempty"`
}

// HandlersConfig configures the built-in event handlers.
type HandlersConfig struct {
	// IssueLabel is the label applied to newly opened issues. Empty disables
	// the built-in handler.
	IssueLabel string `yaml:"issue_label,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "portcullis",
			LogLevel:  "info",
			LogFormat: "json",
		},
		GitHub: GitHubConfig{
			APIBaseURL:      "https://api.github.com",
			ExchangeTimeout: 5 * time.Second,
			RetryTransient:  false,
		},
		Webhook: WebhookConfig{
			Listen: "127.0.0.1:8080",
			Path:   "/event_handler",
		},
	}
}
