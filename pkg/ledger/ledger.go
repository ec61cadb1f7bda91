// Package ledger implements the in-memory append-only chain that anchors
// DID registrations: one RWMutex serializes the handful of state
// transitions, write methods take the exclusive lock, read methods take
// the shared one.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/merkle"
	"github.com/kysee/bbsdid/pkg/wire"
)

// Transaction is a DID registration: the canonical encodings of a DID's
// two points, opaque to the ledger itself.
type Transaction struct {
	U string `json:"u"`
	V string `json:"v"`
}

// BlockHeader is hashed via sha256 over its canonical JSON encoding.
type BlockHeader struct {
	Height     uint64 `json:"height"`
	PrevHash   string `json:"prev_hash"`
	MerkleRoot string `json:"merkle_root"`
	Timestamp  int64  `json:"timestamp"`
}

// Block is a header plus the ordered transactions it covers.
type Block struct {
	BlockHeader  `json:"header"`
	Transactions []Transaction `json:"transactions"`
}

// Hash returns sha256(canonical_json(header)) as lowercase hex.
func (b Block) Hash() string {
	canon, err := wire.CanonicalJSON(b.BlockHeader)
	if err != nil {
		// BlockHeader is a plain struct of strings/ints; it cannot fail to
		// marshal, so this path is unreachable in practice.
		panic(fmt.Sprintf("ledger: hash header: %v", err))
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

// SPVResult is the membership proof returned by SPV for a matched
// transaction.
type SPVResult struct {
	Transaction Transaction     `json:"transaction"`
	BlockHeight uint64          `json:"block_height"`
	MerkleRoot  string          `json:"merkle_root"`
	TxIndex     int             `json:"tx_index"`
	MerkleProof []merkle.ProofElem `json:"merkle_proof"`
	Timestamp   int64           `json:"timestamp"`
}

// Info is an immutable snapshot of the ledger's top-level state.
type Info struct {
	Height         uint64 `json:"height"`
	PendingCount   int    `json:"pending_count"`
	LatestBlockHash string `json:"latest_block_hash"`
}

// Ledger is the append-only chain plus its pending transaction buffer.
// Submit and Mine take the exclusive lock; SPV, Chain and Info take the
// shared one.
type Ledger struct {
	mu      sync.RWMutex
	chain   []Block
	pending []Transaction
}

// New builds a ledger with its genesis block already mined: height 0,
// an all-zero prev_hash, and the single placeholder transaction
// {u:"genesis", v:"genesis"}.
func New() *Ledger {
	genesisTx := []Transaction{{U: "genesis", V: "genesis"}}
	root, err := merkleRoot(genesisTx)
	if err != nil {
		panic(fmt.Sprintf("ledger: genesis merkle root: %v", err))
	}
	genesis := Block{
		BlockHeader: BlockHeader{
			Height:     0,
			PrevHash:   zeroHash64(),
			MerkleRoot: root,
			Timestamp:  0,
		},
		Transactions: genesisTx,
	}
	return &Ledger{chain: []Block{genesis}}
}

func zeroHash64() string {
	return hex.EncodeToString(make([]byte, sha256.Size))
}

func merkleRoot(txs []Transaction) (string, error) {
	leaves := make([]string, len(txs))
	for i, tx := range txs {
		h, err := merkle.LeafHash(tx)
		if err != nil {
			return "", err
		}
		leaves[i] = h
	}
	return merkle.Root(leaves), nil
}

// Submit appends a transaction to the pending buffer with no
// deduplication and returns its index within the buffer and the new
// pending count.
func (l *Ledger) Submit(u, v string) (index int, pendingCount int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, Transaction{U: u, V: v})
	return len(l.pending) - 1, len(l.pending)
}

// Mine fails with LedgerEmpty if the pending buffer is empty; otherwise
// it snapshots the buffer, builds the next block, appends it to the
// chain, and drains the buffer.
func (l *Ledger) Mine() (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil, apierrors.New(apierrors.LedgerEmpty, "cannot mine an empty transaction buffer")
	}

	txs := l.pending
	l.pending = nil

	last := l.chain[len(l.chain)-1]
	root, err := merkleRoot(txs)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.InputMalformed, "failed to compute merkle root", err)
	}

	block := Block{
		BlockHeader: BlockHeader{
			Height:     last.Height + 1,
			PrevHash:   last.Hash(),
			MerkleRoot: root,
			Timestamp:  time.Now().Unix(),
		},
		Transactions: txs,
	}
	l.chain = append(l.chain, block)
	return &block, nil
}

// SPV locates a transaction by exact (u,v) match in the block at height
// and, if found, returns its inclusion proof. An invalid height or a
// non-matching (u,v) both report ok=false.
func (l *Ledger) SPV(height uint64, u, v string) (*SPVResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if height >= uint64(len(l.chain)) {
		return nil, false
	}
	block := l.chain[height]

	idx := -1
	for i, tx := range block.Transactions {
		if tx.U == u && tx.V == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	leaves := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		h, err := merkle.LeafHash(tx)
		if err != nil {
			return nil, false
		}
		leaves[i] = h
	}
	proof := merkle.Proof(leaves, idx)

	return &SPVResult{
		Transaction: block.Transactions[idx],
		BlockHeight: block.Height,
		MerkleRoot:  block.MerkleRoot,
		TxIndex:     idx,
		MerkleProof: proof,
		Timestamp:   block.Timestamp,
	}, true
}

// Chain returns an immutable snapshot of every mined block.
func (l *Ledger) Chain() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Block, len(l.chain))
	copy(out, l.chain)
	return out
}

// Info returns a snapshot of the ledger's current height and buffer size.
func (l *Ledger) Info() Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	last := l.chain[len(l.chain)-1]
	return Info{
		Height:          last.Height,
		PendingCount:    len(l.pending),
		LatestBlockHash: last.Hash(),
	}
}
