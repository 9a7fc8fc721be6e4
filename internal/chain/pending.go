package chain

import "github.com/manifest-network/powchain/internal/models"

// Pending is the completion handle of an asynchronous append.
type Pending struct {
	done  chan struct{}
	block models.Block
}

// Done is closed once the block is mined and appended.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the append completes and returns the block snapshot.
func (p *Pending) Wait() models.Block {
	<-p.done
	return p.block
}
