package powchain

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/models"
	"github.com/manifest-network/powchain/internal/output"
	"github.com/manifest-network/powchain/internal/render"
)

var VerifyCmd = &cobra.Command{
	Use:   "verify [chain.json | export-dir]",
	Short: "Verify an exported chain",
	Long:  `Recompute every hash and link of a chain exported with "demo --json-out".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exported, err := output.ReadChainJSON(args[0])
		if err != nil {
			return fmt.Errorf("failed to load chain: %w", err)
		}

		c := chain.FromSnapshot(exported.Blocks, exported.Difficulty)
		in := c.Inspect()
		state := models.ChainState{
			Blocks:     in.Blocks,
			Difficulty: in.Difficulty,
			Valid:      in.Valid,
			Reports:    in.Reports,
		}
		if state.Valid != exported.Valid {
			slog.Warn("Exported validity does not match recomputed validity", "exported", exported.Valid, "recomputed", state.Valid)
		}

		table, err := render.ChainTable(state)
		if err != nil {
			return fmt.Errorf("failed to render chain: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		fmt.Fprintln(cmd.OutOrStdout(), render.Summary(state))

		if !state.Valid {
			invalid := 0
			for _, r := range state.Reports {
				if r.Status != models.StatusValid {
					invalid++
				}
			}
			return fmt.Errorf("chain is invalid: %d of %d blocks failed verification", invalid, len(state.Blocks))
		}
		return nil
	},
}
