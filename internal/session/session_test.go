package session_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/models"
	"github.com/manifest-network/powchain/internal/session"
)

type recordingObserver struct {
	mu       sync.Mutex
	started  []uint64
	finished []models.Block
}

func (o *recordingObserver) MiningStarted(index uint64, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, index)
}

func (o *recordingObserver) MiningFinished(block models.Block, _ int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, block)
}

func TestAppend(t *testing.T) {
	obs := &recordingObserver{}
	s := session.New(chain.New(2), session.WithObserver(obs))

	state := s.State()
	assert.Nil(t, state.LastMineMs)
	assert.False(t, state.Mining)

	block, err := s.Append(context.Background(), "Alice pays Bob 10")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), block.Index)
	assert.True(t, strings.HasPrefix(block.Hash, "00"))

	state = s.State()
	require.Len(t, state.Blocks, 2)
	require.Len(t, state.Reports, 2)
	assert.Equal(t, block, state.Blocks[1])
	assert.True(t, state.Valid)
	assert.False(t, state.Mining)
	require.NotNil(t, state.LastMineMs)
	assert.GreaterOrEqual(t, *state.LastMineMs, int64(0))

	assert.Equal(t, []uint64{1}, obs.started)
	assert.Equal(t, []models.Block{block}, obs.finished)
}

func TestAppendRejectsBlankData(t *testing.T) {
	s := session.New(chain.New(1))
	_, err := s.Append(context.Background(), "   ")
	assert.ErrorIs(t, err, session.ErrEmptyData)
	assert.Equal(t, 1, s.Chain().Len())
}

func TestAppendWithDoneContext(t *testing.T) {
	s := session.New(chain.New(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, "never mined")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Chain().Len())
}

func TestAppendMiningOutlivesCaller(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	var once sync.Once

	c := chain.New(2, chain.WithBatchSize(1), chain.WithProgress(func(uint64, uint64, bool) {
		once.Do(func() {
			cancel()
			<-returned
		})
	}))
	s := session.New(c)

	_, err := s.Append(ctx, "keeps going")
	close(returned)
	require.ErrorIs(t, err, context.Canceled)

	assert.Eventually(t, func() bool {
		return s.Chain().Len() == 2 && !s.Mining()
	}, 5*time.Second, 10*time.Millisecond)

	// The next writer waits for the abandoned append to finish.
	applied, err := s.Tamper(1, "after", chain.TamperDataOnly)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, s.Valid())
}

func TestTamper(t *testing.T) {
	s := session.New(chain.New(1))
	for _, d := range []string{"one", "two"} {
		_, err := s.Append(context.Background(), d)
		require.NoError(t, err)
	}

	applied, err := s.Tamper(5, "missing", chain.TamperDataOnly)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, s.Valid())

	_, err = s.Tamper(1, "", chain.TamperDataOnly)
	assert.ErrorIs(t, err, session.ErrEmptyData)

	applied, err = s.Tamper(1, "changed", chain.TamperRehash)
	require.NoError(t, err)
	assert.True(t, applied)

	state := s.State()
	assert.False(t, state.Valid)
	assert.Equal(t, models.StatusValid, state.Reports[1].Status)
	assert.Equal(t, models.StatusDownstreamInvalid, state.Reports[2].Status)
}

func TestSetDifficulty(t *testing.T) {
	s := session.New(chain.New(2))

	for _, d := range []int{0, -1, 5} {
		assert.ErrorIs(t, s.SetDifficulty(d), session.ErrDifficultyOutOfRange)
	}
	assert.Equal(t, 2, s.Difficulty())

	require.NoError(t, s.SetDifficulty(1))
	assert.Equal(t, 1, s.Difficulty())
	assert.Equal(t, 1, s.State().Difficulty)
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	s := session.New(chain.New(1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(context.Background(), "block")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state := s.State()
	assert.Len(t, state.Blocks, 9)
	assert.True(t, state.Valid)
	for i, b := range state.Blocks {
		assert.Equal(t, uint64(i), b.Index)
	}
}
