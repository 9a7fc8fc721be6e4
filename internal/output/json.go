package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/manifest-network/powchain/internal/models"
)

const (
	chainJSON = "chain.json"
	blockDir  = "block"
)

type JSONOutputHandler struct {
	outDir   string
	blockDir string
}

func NewJSONOutputHandler(outDir string) (*JSONOutputHandler, error) {
	blocks := filepath.Join(outDir, blockDir)
	if err := os.MkdirAll(blocks, 0755); err != nil {
		return nil, errors.WithMessage(err, "failed to create blocks directory")
	}

	return &JSONOutputHandler{
		outDir:   outDir,
		blockDir: blocks,
	}, nil
}

// WriteChain writes the full state to chain.json and every block to its own
// file under block/.
func (h *JSONOutputHandler) WriteChain(ctx context.Context, state models.ChainState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "failed to marshal chain state")
	}
	if err := os.WriteFile(filepath.Join(h.outDir, chainJSON), data, 0644); err != nil {
		return errors.WithMessage(err, "failed to write chain file")
	}

	for _, block := range state.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.writeBlock(block); err != nil {
			return fmt.Errorf("failed to write block %d: %w", block.Index, err)
		}
	}

	slog.Debug("Chain written", "format", "json", "dir", h.outDir, "blocks", len(state.Blocks))
	return nil
}

func (h *JSONOutputHandler) writeBlock(block models.Block) error {
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}
	fileName := fmt.Sprintf("block_%010d.json", block.Index)
	return os.WriteFile(filepath.Join(h.blockDir, fileName), data, 0644)
}

func (h *JSONOutputHandler) Close() error {
	return nil
}

// ReadChainJSON loads a chain state previously written by JSONOutputHandler.
// path may point to chain.json or to the directory holding it.
func ReadChainJSON(path string) (models.ChainState, error) {
	var state models.ChainState

	info, err := os.Stat(path)
	if err != nil {
		return state, errors.WithMessage(err, "failed to stat chain file")
	}
	if info.IsDir() {
		path = filepath.Join(path, chainJSON)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return state, errors.WithMessage(err, "failed to read chain file")
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, errors.WithMessage(err, "failed to unmarshal chain file")
	}
	return state, nil
}
