package ledger

import (
	"encoding/hex"
	"testing"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/merkle"
	"github.com/stretchr/testify/require"
)

func TestGenesisBlock(t *testing.T) {
	l := New()
	chain := l.Chain()
	require.Len(t, chain, 1)

	genesis := chain[0]
	require.Equal(t, uint64(0), genesis.Height)
	require.Equal(t, hex.EncodeToString(make([]byte, 32)), genesis.PrevHash)
	require.Equal(t, []Transaction{{U: "genesis", V: "genesis"}}, genesis.Transactions)
}

func TestMineEmptyBufferFails(t *testing.T) {
	l := New()
	_, err := l.Mine()
	require.Error(t, err)

	var apiErr *apierrors.Error
	require.True(t, apierrors.As(err, &apiErr))
	require.Equal(t, apierrors.LedgerEmpty, apiErr.Kind)
	require.Len(t, l.Chain(), 1)
}

func TestSubmitAndMineChainIntegrity(t *testing.T) {
	l := New()

	pairs := [][2]string{
		{"Alice", "Bob"},
		{"Bob", "Charlie"},
		{"Charlie", "David"},
		{"David", "Eve"},
	}
	for i, p := range pairs {
		idx, count := l.Submit(p[0], p[1])
		require.Equal(t, i, idx)
		require.Equal(t, i+1, count)
	}

	block, err := l.Mine()
	require.NoError(t, err)
	require.Equal(t, uint64(1), block.Height)

	chain := l.Chain()
	require.Len(t, chain, 2)
	require.Equal(t, chain[0].Hash(), chain[1].PrevHash)

	leaves := make([]string, len(chain[1].Transactions))
	for i, tx := range chain[1].Transactions {
		h, err := merkle.LeafHash(tx)
		require.NoError(t, err)
		leaves[i] = h
	}
	require.Equal(t, merkle.Root(leaves), chain[1].MerkleRoot)

	require.Equal(t, 0, l.Info().PendingCount)
}

func TestSPVFindsTransactionAndVerifies(t *testing.T) {
	l := New()
	l.Submit("Alice", "Bob")
	l.Submit("Bob", "Charlie")
	l.Submit("Charlie", "David")
	l.Submit("David", "Eve")
	_, err := l.Mine()
	require.NoError(t, err)

	result, ok := l.SPV(1, "Bob", "Charlie")
	require.True(t, ok)
	require.Equal(t, uint64(1), result.BlockHeight)

	leafHash, err := merkle.LeafHash(Transaction{U: "Bob", V: "Charlie"})
	require.NoError(t, err)
	require.True(t, merkle.Verify(leafHash, result.MerkleRoot, result.MerkleProof))
}

func TestSPVMissesUnknownTransaction(t *testing.T) {
	l := New()
	l.Submit("Alice", "Bob")
	_, err := l.Mine()
	require.NoError(t, err)

	_, ok := l.SPV(1, "Nobody", "Nowhere")
	require.False(t, ok)
}

func TestSPVRejectsInvalidHeight(t *testing.T) {
	l := New()
	_, ok := l.SPV(99, "a", "b")
	require.False(t, ok)
}
