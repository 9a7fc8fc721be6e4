package models

// Block is the plain snapshot of a chain block handed to consumers.
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    int64  `json:"timestamp"`
	Data         string `json:"data"`
	PreviousHash string `json:"previousHash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
}

// BlockStatus classifies a block for display.
type BlockStatus string

const (
	StatusValid             BlockStatus = "valid"
	StatusTampered          BlockStatus = "tampered"
	StatusDownstreamInvalid BlockStatus = "downstream-invalid"
)

// BlockReport is the per-block outcome of a chain verification.
type BlockReport struct {
	Index      uint64      `json:"index"`
	HashIntact bool        `json:"hashIntact"`
	LinkIntact bool        `json:"linkIntact"`
	Edits      uint        `json:"edits"`
	Status     BlockStatus `json:"status"`
}

// ChainState is everything a presentation layer needs to draw the chain.
type ChainState struct {
	Blocks     []Block       `json:"blocks"`
	Difficulty int           `json:"difficulty"`
	Valid      bool          `json:"valid"`
	Mining     bool          `json:"mining"`
	LastMineMs *int64        `json:"lastMineMs"`
	Reports    []BlockReport `json:"reports"`
}
