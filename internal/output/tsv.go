package output

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/manifest-network/powchain/internal/models"
)

const blocksTSV = "blocks.tsv"

// TSVOutputHandler writes one line per block:
// index, timestamp, nonce, previousHash, hash, status, data (JSON quoted).
type TSVOutputHandler struct {
	blockFile   *os.File
	blockWriter *bufio.Writer
}

func NewTSVOutputHandler(outDir string) (*TSVOutputHandler, error) {
	err := os.MkdirAll(outDir, 0755)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create output directory")
	}

	blockFile, err := os.Create(filepath.Join(outDir, blocksTSV))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create blocks TSV file")
	}

	return &TSVOutputHandler{
		blockFile:   blockFile,
		blockWriter: bufio.NewWriter(blockFile),
	}, nil
}

func (h *TSVOutputHandler) WriteChain(ctx context.Context, state models.ChainState) error {
	statuses := make(map[uint64]models.BlockStatus, len(state.Reports))
	for _, r := range state.Reports {
		statuses[r.Index] = r.Status
	}

	for _, block := range state.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Data is free text, quote it so tabs and newlines stay on one line.
		data, err := json.Marshal(block.Data)
		if err != nil {
			return errors.WithMessage(err, "failed to quote block data")
		}

		line := fmt.Sprintf("%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			block.Index, block.Timestamp, block.Nonce, block.PreviousHash, block.Hash, statuses[block.Index], data)
		if _, err := h.blockWriter.WriteString(line); err != nil {
			return errors.WithMessage(err, "failed to write to blocks TSV file")
		}
	}

	slog.Debug("Chain written", "format", "tsv", "file", h.blockFile.Name(), "blocks", len(state.Blocks))
	return nil
}

func (h *TSVOutputHandler) Close() error {
	if err := h.blockWriter.Flush(); err != nil {
		return errors.WithMessage(err, "failed to flush blocks TSV file")
	}
	return h.blockFile.Close()
}
