package powchain

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-network/powchain/internal/chain"
)

var HashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute a block hash from raw fields",
	Long: `Compute SHA-256 over index, previous hash, timestamp, data and nonce concatenated
with no separators, to cross-check blocks produced elsewhere.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		index, err := flags.GetUint64("index")
		if err != nil {
			return err
		}
		previousHash, err := flags.GetString("previous-hash")
		if err != nil {
			return err
		}
		timestamp, err := flags.GetInt64("timestamp")
		if err != nil {
			return err
		}
		data, err := flags.GetString("block-data")
		if err != nil {
			return err
		}
		nonce, err := flags.GetUint64("nonce")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), chain.HashFields(index, previousHash, timestamp, data, nonce))
		return nil
	},
}

func init() {
	HashCmd.Flags().Uint64("index", 0, "Block index")
	HashCmd.Flags().String("previous-hash", chain.GenesisPreviousHash, "Hash of the previous block")
	HashCmd.Flags().Int64("timestamp", 0, "Block timestamp in milliseconds since epoch")
	HashCmd.Flags().String("block-data", "", "Block data")
	HashCmd.Flags().Uint64("nonce", 0, "Block nonce")
	HashCmd.MarkFlagRequired("timestamp")
}
