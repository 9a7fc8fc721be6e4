package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ExportConfig selects where a finished chain is written. Empty paths
// disable the matching format.
type ExportConfig struct {
	JSONOut string
	TSVOut  string
}

func (c ExportConfig) Validate() error {
	for _, dir := range []string{c.JSONOut, c.TSVOut} {
		if dir == "" {
			continue
		}
		fi, err := os.Stat(dir)
		if err == nil && !fi.IsDir() {
			return fmt.Errorf("output path %s exists and is not a directory", dir)
		}
	}
	return nil
}

func LoadExportConfigFromCLI() ExportConfig {
	return ExportConfig{
		JSONOut: viper.GetString("json-out"),
		TSVOut:  viper.GetString("tsv-out"),
	}
}
