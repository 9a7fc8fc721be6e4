package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/models"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

var (
	ErrDifficultyOutOfRange = fmt.Errorf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)
	ErrEmptyData            = errors.New("block data must not be empty")
)

// Observer is notified about mining activity.
type Observer interface {
	MiningStarted(index uint64, difficulty int)
	MiningFinished(block models.Block, difficulty int, elapsed time.Duration)
}

// Session owns one chain and serializes all writers to it. Readers may call
// State at any time.
type Session struct {
	chain *chain.Chain

	// writer is held for the whole lifetime of an append, including mining
	// that outlives a cancelled caller.
	writer sync.Mutex

	mining     atomic.Bool
	lastMineMs atomic.Int64
	hasMined   atomic.Bool

	observers []Observer
}

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// New wraps c. The chain must not be written to except through the session.
func New(c *chain.Chain, opts ...Option) *Session {
	s := &Session{chain: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chain returns the underlying chain for read-only use.
func (s *Session) Chain() *chain.Chain {
	return s.chain
}

// Append mines a block holding data and appends it. If ctx ends first the
// error is returned, but mining is not interrupted and the block is still
// appended once found.
func (s *Session) Append(ctx context.Context, data string) (models.Block, error) {
	if strings.TrimSpace(data) == "" {
		return models.Block{}, ErrEmptyData
	}

	select {
	case <-ctx.Done():
		return models.Block{}, ctx.Err()
	default:
	}

	s.writer.Lock()
	difficulty := s.chain.Difficulty()
	index := uint64(s.chain.Len())
	s.mining.Store(true)
	for _, o := range s.observers {
		o.MiningStarted(index, difficulty)
	}

	start := time.Now()
	pending := s.chain.AppendAsync(data)
	result := make(chan models.Block, 1)
	go func() {
		block := pending.Wait()
		elapsed := time.Since(start)
		s.lastMineMs.Store(elapsed.Milliseconds())
		s.hasMined.Store(true)
		s.mining.Store(false)
		for _, o := range s.observers {
			o.MiningFinished(block, difficulty, elapsed)
		}
		s.writer.Unlock()
		slog.Info("Block appended", "index", block.Index, "nonce", block.Nonce, "difficulty", difficulty, "elapsed", elapsed)
		result <- block
	}()

	select {
	case block := <-result:
		return block, nil
	case <-ctx.Done():
		slog.Warn("Caller stopped waiting, mining continues", "index", index)
		return models.Block{}, ctx.Err()
	}
}

// Tamper overwrites a block's data. It reports false when index does not
// exist.
func (s *Session) Tamper(index uint64, data string, mode chain.TamperMode) (bool, error) {
	if strings.TrimSpace(data) == "" {
		return false, ErrEmptyData
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	applied := s.chain.Tamper(index, data, mode)
	if applied {
		slog.Info("Block tampered", "index", index, "mode", mode.String(), "valid", s.chain.IsValid())
	}
	return applied, nil
}

// SetDifficulty changes the difficulty of future appends.
func (s *Session) SetDifficulty(d int) error {
	if d < MinDifficulty || d > MaxDifficulty {
		return ErrDifficultyOutOfRange
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	s.chain.SetDifficulty(d)
	slog.Info("Difficulty changed", "difficulty", d)
	return nil
}

func (s *Session) Difficulty() int {
	return s.chain.Difficulty()
}

func (s *Session) Valid() bool {
	return s.chain.IsValid()
}

func (s *Session) Mining() bool {
	return s.mining.Load()
}

// State returns the chain as seen by a presentation layer.
func (s *Session) State() models.ChainState {
	in := s.chain.Inspect()
	state := models.ChainState{
		Blocks:     in.Blocks,
		Difficulty: in.Difficulty,
		Valid:      in.Valid,
		Mining:     s.mining.Load(),
		Reports:    in.Reports,
	}
	if s.hasMined.Load() {
		ms := s.lastMineMs.Load()
		state.LastMineMs = &ms
	}
	return state
}
