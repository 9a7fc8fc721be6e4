package powchain

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/config"
	"github.com/manifest-network/powchain/internal/models"
	"github.com/manifest-network/powchain/internal/output"
	"github.com/manifest-network/powchain/internal/render"
	"github.com/manifest-network/powchain/internal/session"
)

var DemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Mine a few blocks, optionally tamper with one, and print the chain",
	Long: `Mine every --data value into a fresh chain, then optionally overwrite the data
of one block to show how verification flags it and every block after it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		chainCfg, err := loadChainConfig()
		if err != nil {
			return err
		}
		demoCfg := config.LoadDemoConfigFromCLI()
		if err := demoCfg.Validate(); err != nil {
			return fmt.Errorf("invalid demo configuration: %w", err)
		}

		handlers, err := outputHandlers()
		if err != nil {
			return err
		}
		defer func() {
			for _, h := range handlers {
				if err := h.Close(); err != nil {
					slog.Error("Failed to close output handler", "error", err)
				}
			}
		}()

		ctx, cancel := handleInterrupt(cmd.Context())
		defer cancel()

		state, err := runDemo(ctx, cmd.ErrOrStderr(), chainCfg, demoCfg)
		if err != nil {
			return err
		}

		table, err := render.ChainTable(state)
		if err != nil {
			return fmt.Errorf("failed to render chain: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), table)
		fmt.Fprintln(cmd.OutOrStdout(), render.Summary(state))

		for _, h := range handlers {
			if err := h.WriteChain(ctx, state); err != nil {
				return fmt.Errorf("failed to export chain: %w", err)
			}
		}
		return nil
	},
}

func init() {
	DemoCmd.Flags().StringSlice("data", []string{"Alice pays Bob 10"}, "Data of each block to mine, in order")
	DemoCmd.Flags().Int("tamper-index", -1, "Index of the block to tamper with after mining")
	DemoCmd.Flags().String("tamper-data", "", "Replacement data for the tampered block")
	DemoCmd.Flags().StringP("json-out", "o", "", "Export the final chain as JSON into this directory")
	DemoCmd.Flags().String("tsv-out", "", "Export the final chain as TSV into this directory")
	DemoCmd.MarkFlagsRequiredTogether("tamper-index", "tamper-data")

	if err := viper.BindPFlags(DemoCmd.Flags()); err != nil {
		slog.Error("Failed to bind DemoCmd flags", "error", err)
	}
}

// runDemo mines cfg.Data in order, applies the optional tamper step and
// returns the resulting state.
func runDemo(ctx context.Context, progressOut io.Writer, chainCfg config.ChainConfig, demoCfg config.DemoConfig) (models.ChainState, error) {
	bar := progressbar.NewOptions(
		len(demoCfg.Data),
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Mining blocks..."),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	if err := bar.RenderBlank(); err != nil {
		return models.ChainState{}, fmt.Errorf("failed to render progress bar: %w", err)
	}

	c := chain.New(chainCfg.Difficulty,
		chain.WithBatchSize(chainCfg.BatchSize),
		chain.WithProgress(func(index, attempts uint64, done bool) {
			if done {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
				return
			}
			bar.Describe(fmt.Sprintf("Mining block %d (%d hashes)...", index, attempts))
		}),
	)
	sess := session.New(c)

	slog.Info("Starting demo", "blocks", len(demoCfg.Data), "difficulty", chainCfg.Difficulty)
	for _, data := range demoCfg.Data {
		if _, err := sess.Append(ctx, data); err != nil {
			return models.ChainState{}, fmt.Errorf("failed to append block: %w", err)
		}
	}
	if err := bar.Finish(); err != nil {
		return models.ChainState{}, fmt.Errorf("failed to finish progress bar: %w", err)
	}

	if demoCfg.Tampering() {
		applied, err := sess.Tamper(uint64(demoCfg.TamperIndex), demoCfg.TamperData, tamperMode(chainCfg))
		if err != nil {
			return models.ChainState{}, fmt.Errorf("failed to tamper with block: %w", err)
		}
		if !applied {
			slog.Warn("Tamper index out of range, chain unchanged", "index", demoCfg.TamperIndex, "length", c.Len())
		}
	}

	return sess.State(), nil
}

// outputHandlers opens the export handlers selected by --json-out and --tsv-out.
func outputHandlers() ([]output.OutputHandler, error) {
	cfg := config.LoadExportConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid export configuration: %w", err)
	}

	var handlers []output.OutputHandler
	if cfg.JSONOut != "" {
		h, err := output.NewJSONOutputHandler(cfg.JSONOut)
		if err != nil {
			return nil, fmt.Errorf("failed to create JSON output handler: %w", err)
		}
		handlers = append(handlers, h)
	}
	if cfg.TSVOut != "" {
		h, err := output.NewTSVOutputHandler(cfg.TSVOut)
		if err != nil {
			return nil, fmt.Errorf("failed to create TSV output handler: %w", err)
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}
