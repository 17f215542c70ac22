package command

import (
	"fmt"

	"github.com/theUltimateZoltan/Realms/internal/metrics"
)

type MetricsConfig struct {
	// Port serves /metrics when set. Zero disables the endpoint.
	Port int `json:"port"`
}

func (c *MetricsConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("metrics port %d out of range", c.Port)
	}
	return nil
}

func (c *MetricsConfig) buildServer(m *metrics.Metrics) *metrics.Server {
	if c.Port == 0 {
		return nil
	}
	return metrics.NewServer(m, c.Port)
}
