package config

import (
	"fmt"
	"net"

	"github.com/spf13/viper"
)

type ServeConfig struct {
	Addr             string
	EnablePrometheus bool
	PrometheusAddr   string
}

func (c ServeConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Addr, err)
	}
	if c.EnablePrometheus {
		if _, _, err := net.SplitHostPort(c.PrometheusAddr); err != nil {
			return fmt.Errorf("invalid Prometheus address %q: %w", c.PrometheusAddr, err)
		}
		if c.PrometheusAddr == c.Addr {
			return fmt.Errorf("API and Prometheus servers cannot share address %s", c.Addr)
		}
	}
	return nil
}

func LoadServeConfigFromCLI() ServeConfig {
	return ServeConfig{
		Addr:             viper.GetString("addr"),
		EnablePrometheus: viper.GetBool("enable-prometheus"),
		PrometheusAddr:   viper.GetString("prometheus-addr"),
	}
}
