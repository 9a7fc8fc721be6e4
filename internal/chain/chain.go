package chain

import (
	"log/slog"
	"sync"
	"time"

	"github.com/manifest-network/powchain/internal/models"
)

// TamperMode selects how Tamper treats the block hash.
type TamperMode int

const (
	// TamperDataOnly overwrites data and leaves the hash stale, so the block
	// fails its own hash check.
	TamperDataOnly TamperMode = iota
	// TamperRehash overwrites data and recomputes the hash, so the block is
	// self-consistent and only its successor's link breaks.
	TamperRehash
)

func (m TamperMode) String() string {
	if m == TamperRehash {
		return "rehash"
	}
	return "data-only"
}

// Chain is an ordered, append-only sequence of blocks.
type Chain struct {
	mu         sync.RWMutex
	blocks     []*Block
	difficulty int

	miner Miner
	now   func() time.Time
}

type Option func(*Chain)

// WithBatchSize sets the number of hash attempts per mining slice.
func WithBatchSize(n int) Option {
	return func(c *Chain) { c.miner.BatchSize = n }
}

// WithProgress installs a mining progress hook.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Chain) { c.miner.Progress = fn }
}

// WithClock overrides the clock used for block timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New creates a chain holding only the genesis block. Difficulty is not
// validated; values <= 0 make mining succeed on the first attempt.
func New(difficulty int, opts ...Option) *Chain {
	c := &Chain{
		difficulty: difficulty,
		miner:      DefaultMiner,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	genesis := NewBlock(0, GenesisData, GenesisPreviousHash, c.now().UnixMilli())
	c.blocks = []*Block{genesis}
	return c
}

// FromSnapshot builds a chain from exported block snapshots without
// re-mining or rehashing anything.
func FromSnapshot(blocks []models.Block, difficulty int, opts ...Option) *Chain {
	c := &Chain{
		difficulty: difficulty,
		miner:      DefaultMiner,
		now:        time.Now,
		blocks:     make([]*Block, 0, len(blocks)),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, b := range blocks {
		c.blocks = append(c.blocks, RestoreBlock(b))
	}
	return c
}

// Latest returns a snapshot of the last block, or false if the chain is
// empty.
func (c *Chain) Latest() (models.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.latest()
	if !ok {
		return models.Block{}, false
	}
	return b.Snapshot(), true
}

func (c *Chain) latest() (*Block, bool) {
	if len(c.blocks) == 0 {
		return nil, false
	}
	return c.blocks[len(c.blocks)-1], true
}

// Append mines a new block on top of the current tail, appends it and
// returns its snapshot. The chain lock is not held while mining; callers
// must not run two writers at once.
func (c *Chain) Append(data string) models.Block {
	c.mu.RLock()
	index, previousHash := uint64(0), GenesisPreviousHash
	if prev, ok := c.latest(); ok {
		index, previousHash = prev.index+1, prev.hash
	}
	difficulty := c.difficulty
	c.mu.RUnlock()

	b := NewBlock(index, data, previousHash, c.now().UnixMilli())
	start := time.Now()
	c.miner.Mine(b, difficulty)
	slog.Debug("Block mined", "index", b.index, "nonce", b.nonce, "difficulty", difficulty, "elapsed", time.Since(start))

	// b is not reachable by Tamper until it is appended.
	snap := b.Snapshot()
	c.mu.Lock()
	c.blocks = append(c.blocks, b)
	c.mu.Unlock()
	return snap
}

// AppendAsync runs Append on its own goroutine.
func (c *Chain) AppendAsync(data string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		p.block = c.Append(data)
		close(p.done)
	}()
	return p
}

// Tamper overwrites the data of the block at index. It returns false and
// does nothing if the index does not exist.
func (c *Chain) Tamper(index uint64, data string, mode TamperMode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index >= uint64(len(c.blocks)) {
		return false
	}
	c.blocks[index].applyTamper(data, mode == TamperRehash)
	slog.Debug("Block tampered", "index", index, "mode", mode.String())
	return true
}

// IsValid checks every block after genesis against its own hash and its
// predecessor's hash.
func (c *Chain) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := 1; i < len(c.blocks); i++ {
		curr, prev := c.blocks[i], c.blocks[i-1]
		if !curr.HashIntact() {
			return false
		}
		if curr.previousHash != prev.hash {
			return false
		}
	}
	return true
}

// SetDifficulty changes the difficulty for future appends only.
func (c *Chain) SetDifficulty(d int) {
	c.mu.Lock()
	c.difficulty = d
	c.mu.Unlock()
}

func (c *Chain) Difficulty() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.difficulty
}

func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Block returns a snapshot of the block at index.
func (c *Chain) Block(index uint64) (models.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index >= uint64(len(c.blocks)) {
		return models.Block{}, false
	}
	return c.blocks[index].Snapshot(), true
}

// Snapshot returns the blocks in chain order.
func (c *Chain) Snapshot() []models.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Block, len(c.blocks))
	for i, b := range c.blocks {
		out[i] = b.Snapshot()
	}
	return out
}
