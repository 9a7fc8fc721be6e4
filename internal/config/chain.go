package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/manifest-network/powchain/internal/session"
)

type ChainConfig struct {
	Difficulty int
	BatchSize  int
	Rehash     bool
}

func (c ChainConfig) Validate() error {
	if c.Difficulty < session.MinDifficulty || c.Difficulty > session.MaxDifficulty {
		return fmt.Errorf("invalid difficulty: %d. Valid difficulties are: %d-%d", c.Difficulty, session.MinDifficulty, session.MaxDifficulty)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("invalid batch size: %d. Batch size must be positive", c.BatchSize)
	}
	return nil
}

func LoadChainConfigFromCLI() ChainConfig {
	return ChainConfig{
		Difficulty: viper.GetInt("difficulty"),
		BatchSize:  viper.GetInt("batch-size"),
		Rehash:     viper.GetBool("rehash"),
	}
}
