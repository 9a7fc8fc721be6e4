package chain_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/models"
)

func fixedClock() time.Time {
	return time.UnixMilli(fixedMillis)
}

// newTestChain returns a difficulty-1 chain with the given data appended.
func newTestChain(t *testing.T, data ...string) *chain.Chain {
	t.Helper()
	c := chain.New(1, chain.WithClock(fixedClock))
	for _, d := range data {
		c.Append(d)
	}
	require.True(t, c.IsValid())
	return c
}

func TestNewChainGenesis(t *testing.T) {
	for _, difficulty := range []int{-1, 0, 1, 4} {
		c := chain.New(difficulty, chain.WithClock(fixedClock))

		require.Equal(t, 1, c.Len())
		assert.Equal(t, difficulty, c.Difficulty())
		assert.True(t, c.IsValid())

		genesis, ok := c.Latest()
		require.True(t, ok)
		assert.Equal(t, models.Block{
			Index:        0,
			Timestamp:    fixedMillis,
			Data:         chain.GenesisData,
			PreviousHash: "0",
			Nonce:        0,
			Hash:         genesisHash,
		}, genesis)
	}
}

func TestLatestOnEmptyChain(t *testing.T) {
	c := chain.FromSnapshot(nil, 2)
	b, ok := c.Latest()
	assert.False(t, ok)
	assert.Zero(t, b)
	assert.True(t, c.IsValid())
	assert.Empty(t, c.Verify())

	// An empty chain grows from a fresh index 0.
	appended := c.Append("first")
	assert.Equal(t, uint64(0), appended.Index)
	assert.Equal(t, "0", appended.PreviousHash)
}

func TestAppend(t *testing.T) {
	c := chain.New(2, chain.WithClock(fixedClock))

	b := c.Append("Alice pays Bob 10")
	assert.Equal(t, uint64(1), b.Index)
	assert.Equal(t, genesisHash, b.PreviousHash)
	assert.True(t, strings.HasPrefix(b.Hash, "00"))
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.IsValid())

	b2 := c.Append("Bob pays Carol 5")
	assert.Equal(t, uint64(2), b2.Index)
	assert.Equal(t, b.Hash, b2.PreviousHash)
	assert.True(t, c.IsValid())
}

func TestAppendAsync(t *testing.T) {
	c := chain.New(2, chain.WithClock(fixedClock), chain.WithBatchSize(10))

	p := c.AppendAsync("Alice pays Bob 10")
	block := p.Wait()

	select {
	case <-p.Done():
	default:
		t.Fatal("Done must be closed after Wait returns")
	}
	assert.Equal(t, uint64(1), block.Index)
	assert.Equal(t, 2, c.Len())

	last, ok := c.Block(1)
	require.True(t, ok)
	assert.Equal(t, block, last)
}

func TestAppendNeverExposesUnminedBlock(t *testing.T) {
	var once sync.Once
	checked := make(chan struct{})

	var c *chain.Chain
	c = chain.New(3, chain.WithClock(fixedClock), chain.WithBatchSize(1),
		chain.WithProgress(func(index, attempts uint64, done bool) {
			once.Do(func() {
				// Mid-search the chain must still hold only genesis.
				assert.Equal(t, 1, c.Len())
				assert.Len(t, c.Snapshot(), 1)
				close(checked)
			})
		}))

	c.Append("slow block")
	<-checked
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.IsValid())
}

func TestTamperWithoutRehash(t *testing.T) {
	c := newTestChain(t, "one", "two")
	before, _ := c.Block(1)

	applied := c.Tamper(1, "tampered", chain.TamperDataOnly)
	require.True(t, applied)

	after, _ := c.Block(1)
	assert.Equal(t, "tampered", after.Data)
	assert.Equal(t, before.Hash, after.Hash)
	assert.Equal(t, before.Nonce, after.Nonce)
	assert.False(t, c.IsValid())

	reports := c.Verify()
	require.Len(t, reports, 3)
	assert.Equal(t, models.StatusValid, reports[0].Status)

	assert.False(t, reports[1].HashIntact)
	assert.True(t, reports[1].LinkIntact)
	assert.Equal(t, models.StatusTampered, reports[1].Status)
	assert.Equal(t, uint(1), reports[1].Edits)

	// Block 2 still links to the stored (stale) hash of block 1; it is
	// invalid because its ancestor is.
	assert.True(t, reports[2].HashIntact)
	assert.True(t, reports[2].LinkIntact)
	assert.Equal(t, models.StatusDownstreamInvalid, reports[2].Status)
	assert.Zero(t, reports[2].Edits)
}

func TestTamperWithRehash(t *testing.T) {
	c := newTestChain(t, "one", "two")
	before, _ := c.Block(1)

	require.True(t, c.Tamper(1, "tampered", chain.TamperRehash))

	after, _ := c.Block(1)
	assert.NotEqual(t, before.Hash, after.Hash)
	assert.Equal(t, before.Nonce, after.Nonce)
	assert.Equal(t, before.PreviousHash, after.PreviousHash)
	assert.False(t, c.IsValid())

	reports := c.Verify()
	require.Len(t, reports, 3)
	assert.True(t, reports[1].HashIntact)
	assert.True(t, reports[1].LinkIntact)
	assert.Equal(t, models.StatusValid, reports[1].Status)
	assert.Equal(t, uint(1), reports[1].Edits)

	assert.True(t, reports[2].HashIntact)
	assert.False(t, reports[2].LinkIntact)
	assert.Equal(t, models.StatusDownstreamInvalid, reports[2].Status)
}

func TestReturnedBlocksAreDetached(t *testing.T) {
	c := chain.New(1, chain.WithClock(fixedClock))
	appended := c.Append("original")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			latest, ok := c.Latest()
			assert.True(t, ok)
			assert.Equal(t, uint64(1), latest.Index)
		}
	}()
	for i := 0; i < 100; i++ {
		c.Tamper(1, "changed", chain.TamperRehash)
	}
	wg.Wait()

	assert.Equal(t, "original", appended.Data)
	latest, _ := c.Latest()
	assert.Equal(t, "changed", latest.Data)
	assert.NotEqual(t, appended.Hash, latest.Hash)
}

func TestCascadingInvalidation(t *testing.T) {
	c := newTestChain(t, "a", "b", "c", "d", "e")
	require.True(t, c.Tamper(2, "evil", chain.TamperRehash))

	reports := c.Verify()
	for _, r := range reports[:3] {
		assert.Equal(t, models.StatusValid, r.Status, "block %d", r.Index)
	}
	for _, r := range reports[3:] {
		assert.Equal(t, models.StatusDownstreamInvalid, r.Status, "block %d", r.Index)
	}
	// Only the direct successor has a broken link.
	assert.False(t, reports[3].LinkIntact)
	assert.True(t, reports[4].LinkIntact)
	assert.True(t, reports[5].LinkIntact)
}

func TestTamperOutOfRange(t *testing.T) {
	c := newTestChain(t, "one")
	before := c.Snapshot()

	assert.False(t, c.Tamper(2, "nope", chain.TamperDataOnly))
	assert.False(t, c.Tamper(1<<40, "nope", chain.TamperRehash))

	assert.Equal(t, before, c.Snapshot())
	assert.True(t, c.IsValid())
}

func TestTamperGenesis(t *testing.T) {
	c := newTestChain(t, "one")
	require.True(t, c.Tamper(0, "new genesis", chain.TamperDataOnly))
	// Genesis is not checked against its own hash.
	assert.True(t, c.IsValid())

	require.True(t, c.Tamper(0, "new genesis", chain.TamperRehash))
	assert.False(t, c.IsValid())
	assert.Equal(t, models.StatusDownstreamInvalid, c.Verify()[1].Status)
}

func TestIsValidIdempotent(t *testing.T) {
	c := newTestChain(t, "one", "two")
	for i := 0; i < 3; i++ {
		assert.True(t, c.IsValid())
	}
	c.Tamper(1, "x", chain.TamperDataOnly)
	for i := 0; i < 3; i++ {
		assert.False(t, c.IsValid())
	}
}

func TestSetDifficultyNotRetroactive(t *testing.T) {
	c := chain.New(1, chain.WithClock(fixedClock))
	first := c.Append("first")

	c.SetDifficulty(3)
	assert.Equal(t, 3, c.Difficulty())

	b, _ := c.Block(1)
	assert.Equal(t, first, b)
	assert.True(t, c.IsValid())

	second := c.Append("second")
	assert.True(t, strings.HasPrefix(second.Hash, "000"))
}

func TestFromSnapshot(t *testing.T) {
	src := newTestChain(t, "one", "two")
	src.Tamper(2, "changed", chain.TamperDataOnly)

	copied := chain.FromSnapshot(src.Snapshot(), src.Difficulty())
	assert.Equal(t, src.Snapshot(), copied.Snapshot())
	assert.Equal(t, src.IsValid(), copied.IsValid())

	// Edit counters are not part of the snapshot.
	assert.Zero(t, copied.Verify()[2].Edits)
	assert.Equal(t, models.StatusTampered, copied.Verify()[2].Status)
}

func TestAliceScenario(t *testing.T) {
	c := chain.New(2)

	b := c.Append("Alice pays Bob 10")
	assert.True(t, strings.HasPrefix(b.Hash, "00"))
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.IsValid())

	require.True(t, c.Tamper(1, "Alice pays Bob 999", chain.TamperDataOnly))
	assert.False(t, c.IsValid())
}
