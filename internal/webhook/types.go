package webhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattjoyce/portcullis/internal/config"
	"github.com/mattjoyce/portcullis/internal/pipeline"
)

// EventProcessor runs one delivery through the authentication pipeline.
type EventProcessor interface {
	Process(ctx context.Context, req pipeline.Request) error
}

// Config holds webhook server configuration.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string

	// Path is the URL path events are POSTed to (e.g. "/event_handler").
	Path string

	// MaxBodySize is the maximum allowed request body size in bytes.
	MaxBodySize int64
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultMaxBodySize caps request bodies at 1 MB unless configured.
const DefaultMaxBodySize = 1048576

// FromConfig converts the loaded config.WebhookConfig, parsing the size
// string ("1MB", "512KB", or plain bytes).
func FromConfig(wc config.WebhookConfig) (Config, error) {
	maxBodySize, err := parseMaxBodySize(wc.MaxBodySize)
	if err != nil {
		return Config{}, fmt.Errorf("invalid webhook.max_body_size %q: %w", wc.MaxBodySize, err)
	}

	return Config{
		Listen:      wc.Listen,
		Path:        wc.Path,
		MaxBodySize: maxBodySize,
	}, nil
}

func parseMaxBodySize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
