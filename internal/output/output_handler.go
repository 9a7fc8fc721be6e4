package output

import (
	"context"

	"github.com/manifest-network/powchain/internal/models"
)

// OutputHandler exports chain snapshots. Exports are one-way: nothing reads
// them back into a running session.
type OutputHandler interface {
	WriteChain(ctx context.Context, state models.ChainState) error
	Close() error
}
