package bootstrap

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	appconfig "github.com/wolfman30/healthcare-client/internal/config"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// BuildMetrics registers the client metrics on reg. A nil reg disables them.
func BuildMetrics(reg prometheus.Registerer) *metrics.GatewayMetrics {
	if reg == nil {
		return nil
	}
	return metrics.NewGatewayMetrics(reg)
}

// BuildGateway wires the booking API client from config.
func BuildGateway(cfg *appconfig.Config, logger *logging.Logger, m *metrics.GatewayMetrics) (*gateway.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: API_BASE_URL is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := gateway.NewClient(cfg.APIBaseURL, logger,
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithPaths(cfg.Paths),
		gateway.WithMetrics(m),
	)
	logger.Info("booking API configured", "base_url", cfg.APIBaseURL, "timeout", cfg.HTTPTimeout)
	return client, nil
}
