package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type DemoConfig struct {
	Data        []string
	TamperIndex int
	TamperData  string
}

// Tampering reports whether a tamper step was requested.
func (c DemoConfig) Tampering() bool {
	return c.TamperIndex >= 0
}

func (c DemoConfig) Validate() error {
	if len(c.Data) == 0 {
		return fmt.Errorf("at least one --data value is required")
	}
	for i, d := range c.Data {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("--data value %d is empty", i)
		}
	}
	if c.Tampering() && strings.TrimSpace(c.TamperData) == "" {
		return fmt.Errorf("--tamper-data is required with --tamper-index")
	}
	return nil
}

func LoadDemoConfigFromCLI() DemoConfig {
	return DemoConfig{
		Data:        viper.GetStringSlice("data"),
		TamperIndex: viper.GetInt("tamper-index"),
		TamperData:  viper.GetString("tamper-data"),
	}
}
