package chain

import "runtime"

// DefaultBatchSize is the number of hash attempts made before yielding.
const DefaultBatchSize = 5000

// ProgressFunc is called at every batch checkpoint and once more when mining
// completes. attempts counts hashes evaluated so far for the block.
type ProgressFunc func(index uint64, attempts uint64, done bool)

// Miner runs the proof-of-work search in bounded batches, yielding the
// processor between them.
type Miner struct {
	BatchSize int
	Progress  ProgressFunc
}

var DefaultMiner = Miner{BatchSize: DefaultBatchSize}

// Mine resets the nonce and searches upward until the block hash meets the
// difficulty. It always runs to completion.
func (m Miner) Mine(b *Block, difficulty int) {
	batch := m.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	b.nonce = 0
	var attempts uint64
	for {
		for i := 0; i < batch; i++ {
			b.hash = b.ComputeHash()
			attempts++
			if meetsDifficulty(b.hash, difficulty) {
				m.report(b.index, attempts, true)
				return
			}
			b.nonce++
		}
		m.report(b.index, attempts, false)
		runtime.Gosched()
	}
}

func (m Miner) report(index, attempts uint64, done bool) {
	if m.Progress != nil {
		m.Progress(index, attempts, done)
	}
}
