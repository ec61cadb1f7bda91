package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	s, err := RandomScalar()
	require.NoError(t, err)

	got := ScalarFromBytes(s.Bytes())
	require.True(t, s.Equal(got))
}

func TestScalarArithmetic(t *testing.T) {
	a, err := RandomScalar()
	require.NoError(t, err)
	b, err := RandomScalar()
	require.NoError(t, err)

	sum := a.Add(b)
	require.True(t, sum.Sub(b).Equal(a))

	inv := a.Inverse()
	require.True(t, a.Mul(inv).Equal(ScalarFromUint64(1)))

	require.True(t, ScalarFromUint64(0).IsZero())
	require.False(t, a.IsZero())
}

func TestG1ExpAndMul(t *testing.T) {
	g := G1Generator()
	two := ScalarFromUint64(2)

	doubled := g.Exp(two)
	require.True(t, doubled.Equal(g.Mul(g)))

	require.True(t, g.Mul(g.Inv()).IsInfinity())
}

func TestG1JSONRoundTrip(t *testing.T) {
	g, err := RandomG1()
	require.NoError(t, err)

	data, err := g.MarshalJSON()
	require.NoError(t, err)

	var got G1
	require.NoError(t, got.UnmarshalJSON(data))
	require.True(t, g.Equal(got))
}

func TestHashToScalarDeterministic(t *testing.T) {
	a := HashToScalar([]byte("alice"))
	b := HashToScalar([]byte("alice"))
	c := HashToScalar([]byte("bob"))

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestHashToG1Deterministic(t *testing.T) {
	a, err := HashToG1([]byte("seed"))
	require.NoError(t, err)
	b, err := HashToG1([]byte("seed"))
	require.NoError(t, err)

	require.True(t, a.Equal(b))
}

func TestPairingBilinear(t *testing.T) {
	g1 := G1Generator()
	g2 := G2Generator()
	x := ScalarFromUint64(7)

	lhs, err := Pair(g1.Exp(x), g2)
	require.NoError(t, err)
	rhs, err := Pair(g1, g2.Exp(x))
	require.NoError(t, err)

	require.True(t, lhs.Equal(rhs))
}

func TestPairingCheckMatchesEquality(t *testing.T) {
	g1 := G1Generator()
	g2 := G2Generator()
	x := ScalarFromUint64(11)

	a := g1.Exp(x)
	b := g2

	// e(a, b) == e(g1, g2^x)  <=>  e(a, b) * e(-g1, g2^x) == 1
	ok, err := PairingCheck([]G1{a, g1.Inv()}, []G2{b, g2.Exp(x)})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = PairingCheck([]G1{a, g1.Inv()}, []G2{b, g2.Exp(x.Add(ScalarFromUint64(1)))})
	require.NoError(t, err)
	require.False(t, ok)
}
