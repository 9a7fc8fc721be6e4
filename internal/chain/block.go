package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/manifest-network/powchain/internal/models"
)

const (
	GenesisData         = "Genesis Block"
	GenesisPreviousHash = "0"
)

// Block is a single chain entry. Fields are only changed by mining and by
// the chain's tamper path.
type Block struct {
	index        uint64
	timestamp    int64
	data         string
	previousHash string
	nonce        uint64
	hash         string
	edits        uint
}

// NewBlock creates a block with nonce 0 and the hash of its initial fields.
func NewBlock(index uint64, data, previousHash string, timestamp int64) *Block {
	b := &Block{
		index:        index,
		timestamp:    timestamp,
		data:         data,
		previousHash: previousHash,
	}
	b.hash = b.ComputeHash()
	return b
}

// RestoreBlock rebuilds a block verbatim from a snapshot. The stored hash is
// kept as is so that a forged or stale snapshot stays detectable.
func RestoreBlock(s models.Block) *Block {
	return &Block{
		index:        s.Index,
		timestamp:    s.Timestamp,
		data:         s.Data,
		previousHash: s.PreviousHash,
		nonce:        s.Nonce,
		hash:         s.Hash,
	}
}

// HashFields returns the lowercase hex SHA-256 of
// index‖previousHash‖timestamp‖data‖nonce, each in its decimal or string
// form with no separators.
func HashFields(index uint64, previousHash string, timestamp int64, data string, nonce uint64) string {
	buf := make([]byte, 0, 64+len(previousHash)+len(data))
	buf = strconv.AppendUint(buf, index, 10)
	buf = append(buf, previousHash...)
	buf = strconv.AppendInt(buf, timestamp, 10)
	buf = append(buf, data...)
	buf = strconv.AppendUint(buf, nonce, 10)

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// ComputeHash recomputes the hash from the block's current fields.
func (b *Block) ComputeHash() string {
	return HashFields(b.index, b.previousHash, b.timestamp, b.data, b.nonce)
}

// Mine searches nonces from 0 until the hash has difficulty leading zeros.
func (b *Block) Mine(difficulty int) {
	DefaultMiner.Mine(b, difficulty)
}

// HashIntact reports whether the stored hash matches the block's fields.
func (b *Block) HashIntact() bool {
	return b.hash == b.ComputeHash()
}

func (b *Block) Index() uint64        { return b.index }
func (b *Block) Timestamp() int64     { return b.timestamp }
func (b *Block) Data() string         { return b.data }
func (b *Block) PreviousHash() string { return b.previousHash }
func (b *Block) Nonce() uint64        { return b.nonce }
func (b *Block) Hash() string         { return b.hash }

// Edits returns how many times the block's data was tampered with.
func (b *Block) Edits() uint { return b.edits }

// Snapshot returns a plain copy of the six block fields.
func (b *Block) Snapshot() models.Block {
	return models.Block{
		Index:        b.index,
		Timestamp:    b.timestamp,
		Data:         b.data,
		PreviousHash: b.previousHash,
		Nonce:        b.nonce,
		Hash:         b.hash,
	}
}

// applyTamper is the only place where a block's data changes after creation.
// With rehash the hash is recomputed from the new data, leaving nonce and
// previousHash untouched; without it the stored hash goes stale.
func (b *Block) applyTamper(data string, rehash bool) {
	b.data = data
	b.edits++
	if rehash {
		b.hash = b.ComputeHash()
	}
}

// meetsDifficulty is a hex-string prefix check, not a numeric comparison.
func meetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(hash) {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == difficulty
}
