package chain

import "github.com/manifest-network/powchain/internal/models"

// Inspection is a view of the chain taken under a single read lock.
type Inspection struct {
	Blocks     []models.Block
	Reports    []models.BlockReport
	Difficulty int
	Valid      bool
}

// Verify reports the state of every block. Genesis is reported valid, as it
// is skipped by IsValid. Once a block is not valid, every later block is at
// least downstream-invalid.
func (c *Chain) Verify() []models.BlockReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verify()
}

// Inspect returns blocks, reports and validity from the same chain state.
func (c *Chain) Inspect() Inspection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	in := Inspection{
		Blocks:     make([]models.Block, len(c.blocks)),
		Reports:    c.verify(),
		Difficulty: c.difficulty,
		Valid:      true,
	}
	for i, b := range c.blocks {
		in.Blocks[i] = b.Snapshot()
	}
	for _, r := range in.Reports {
		if r.Status != models.StatusValid {
			in.Valid = false
			break
		}
	}
	return in
}

func (c *Chain) verify() []models.BlockReport {
	reports := make([]models.BlockReport, len(c.blocks))
	broken := false
	for i, b := range c.blocks {
		r := models.BlockReport{
			Index:      b.index,
			HashIntact: true,
			LinkIntact: true,
			Edits:      b.edits,
			Status:     models.StatusValid,
		}
		if i > 0 {
			r.HashIntact = b.HashIntact()
			r.LinkIntact = b.previousHash == c.blocks[i-1].hash
		}

		switch {
		case !r.HashIntact:
			r.Status = models.StatusTampered
		case !r.LinkIntact || broken:
			r.Status = models.StatusDownstreamInvalid
		}
		if r.Status != models.StatusValid {
			broken = true
		}
		reports[i] = r
	}
	return reports
}
