// Package group wraps gnark-crypto's BLS12-381 instantiation behind the
// multiplicative notation the protocol documents are written in: group
// elements are "multiplied" and "exponentiated" rather than added and
// scalar-multiplied, so the algebra in pkg/issuer, pkg/holder and
// pkg/verifier reads the same as the formulas it implements.
package group

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Scalar is an element of Zr, the BLS12-381 scalar field.
type Scalar struct {
	v fr.Element
}

// G1 is a point on the first pairing source group.
type G1 struct {
	p bls12381.G1Affine
}

// G2 is a point on the second pairing source group.
type G2 struct {
	p bls12381.G2Affine
}

// GT is an element of the pairing target group.
type GT struct {
	v bls12381.GT
}

// RandomScalar samples a uniform element of Zr.
func RandomScalar() (Scalar, error) {
	var s Scalar
	if _, err := s.v.SetRandom(); err != nil {
		return Scalar{}, fmt.Errorf("group: sample scalar: %w", err)
	}
	return s, nil
}

// ScalarFromBytes decodes the canonical 32-byte big-endian encoding of a
// field element. Non-canonical inputs (a value of q or more, or more than
// 32 bytes) are reduced mod q without error, as fr.Element.SetBytes does.
func ScalarFromBytes(b []byte) Scalar {
	var s Scalar
	s.v.SetBytes(b)
	return s
}

// ScalarFromUint64 lifts a small integer into Zr, used for test fixtures
// and for any constant exponent the protocol needs.
func ScalarFromUint64(x uint64) Scalar {
	var s Scalar
	s.v.SetUint64(x)
	return s
}

func (s Scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

func (s Scalar) BigInt() *big.Int {
	var out big.Int
	s.v.BigInt(&out)
	return &out
}

func (a Scalar) Add(b Scalar) Scalar {
	var out Scalar
	out.v.Add(&a.v, &b.v)
	return out
}

func (a Scalar) Sub(b Scalar) Scalar {
	var out Scalar
	out.v.Sub(&a.v, &b.v)
	return out
}

func (a Scalar) Mul(b Scalar) Scalar {
	var out Scalar
	out.v.Mul(&a.v, &b.v)
	return out
}

func (a Scalar) Neg() Scalar {
	var out Scalar
	out.v.Neg(&a.v)
	return out
}

// Inverse returns 1/a. The caller must ensure a is non-zero; Zr is a
// field, so zero has no inverse and gnark-crypto returns zero unchanged.
func (a Scalar) Inverse() Scalar {
	var out Scalar
	out.v.Inverse(&a.v)
	return out
}

func (a Scalar) IsZero() bool {
	return a.v.IsZero()
}

func (a Scalar) Equal(b Scalar) bool {
	return a.v.Equal(&b.v)
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(s.Bytes()))
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var enc string
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("group: decode scalar: %w", err)
	}
	*s = ScalarFromBytes(b)
	return nil
}

// G1Generator returns the curve's fixed G1 generator g1.
func G1Generator() G1 {
	_, _, g1, _ := bls12381.Generators()
	return G1{p: g1}
}

// G2Generator returns the curve's fixed G2 generator g2.
func G2Generator() G2 {
	_, _, _, g2 := bls12381.Generators()
	return G2{p: g2}
}

// RandomG1 samples a uniform G1 element as a random scalar multiple of the
// generator. The discrete log is unknown to the caller, which is what
// makes it usable as an independent base or as a DID's random point v.
func RandomG1() (G1, error) {
	s, err := RandomScalar()
	if err != nil {
		return G1{}, err
	}
	return G1Generator().Exp(s), nil
}

// RandomG2 samples a uniform G2 element the same way RandomG1 does.
func RandomG2() (G2, error) {
	s, err := RandomScalar()
	if err != nil {
		return G2{}, err
	}
	return G2Generator().Exp(s), nil
}

// HashToG1 deterministically maps an arbitrary message into G1 using the
// curve's native RFC 9380 hash-to-curve suite.
func HashToG1(msg []byte) (G1, error) {
	dst := []byte("BBSDID_BLS12381G1_XMD:SHA-256_SSWU_RO_")
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return G1{}, fmt.Errorf("group: hash to G1: %w", err)
	}
	return G1{p: p}, nil
}

// HashToScalar derives a Zr element from the concatenation of parts via
// SHA-256 followed by a reduction mod q. Used for both attribute encoding
// (value -> m_i) and Fiat-Shamir challenge derivation.
func HashToScalar(parts ...[]byte) Scalar {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return ScalarFromBytes(h.Sum(nil))
}

func (a G1) Bytes() []byte {
	b := a.p.Bytes()
	return b[:]
}

func G1FromBytes(b []byte) (G1, error) {
	var p bls12381.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return G1{}, fmt.Errorf("group: decode G1: %w", err)
	}
	return G1{p: p}, nil
}

// Mul is the group operation, written multiplicatively: a*b in the
// protocol's notation, point addition underneath.
func (a G1) Mul(b G1) G1 {
	var out bls12381.G1Affine
	out.Add(&a.p, &b.p)
	return G1{p: out}
}

// Inv is the group inverse, written a^{-1}.
func (a G1) Inv() G1 {
	var out bls12381.G1Affine
	out.Neg(&a.p)
	return G1{p: out}
}

// Exp is scalar exponentiation, written a^s.
func (a G1) Exp(s Scalar) G1 {
	var out bls12381.G1Affine
	out.ScalarMultiplication(&a.p, s.BigInt())
	return G1{p: out}
}

func (a G1) Equal(b G1) bool {
	return a.p.Equal(&b.p)
}

func (a G1) IsInfinity() bool {
	return a.p.IsInfinity()
}

func (a G1) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(a.Bytes()))
}

func (a *G1) UnmarshalJSON(data []byte) error {
	var enc string
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("group: decode G1: %w", err)
	}
	g, err := G1FromBytes(b)
	if err != nil {
		return err
	}
	*a = g
	return nil
}

func (a G2) Bytes() []byte {
	b := a.p.Bytes()
	return b[:]
}

func G2FromBytes(b []byte) (G2, error) {
	var p bls12381.G2Affine
	if _, err := p.SetBytes(b); err != nil {
		return G2{}, fmt.Errorf("group: decode G2: %w", err)
	}
	return G2{p: p}, nil
}

func (a G2) Mul(b G2) G2 {
	var out bls12381.G2Affine
	out.Add(&a.p, &b.p)
	return G2{p: out}
}

func (a G2) Exp(s Scalar) G2 {
	var out bls12381.G2Affine
	out.ScalarMultiplication(&a.p, s.BigInt())
	return G2{p: out}
}

func (a G2) Equal(b G2) bool {
	return a.p.Equal(&b.p)
}

func (a G2) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(a.Bytes()))
}

func (a *G2) UnmarshalJSON(data []byte) error {
	var enc string
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return fmt.Errorf("group: decode G2: %w", err)
	}
	g, err := G2FromBytes(b)
	if err != nil {
		return err
	}
	*a = g
	return nil
}

// Pair evaluates the bilinear map e(a, b).
func Pair(a G1, b G2) (GT, error) {
	v, err := bls12381.Pair([]bls12381.G1Affine{a.p}, []bls12381.G2Affine{b.p})
	if err != nil {
		return GT{}, fmt.Errorf("group: pairing: %w", err)
	}
	return GT{v: v}, nil
}

// PairingCheck reports whether prod_i e(g1s[i], g2s[i]) == 1. Callers
// check an equation e(A,B) == e(C,D) by negating one G1 argument and
// passing {A, -C}, {B, D}, avoiding a GT equality comparison.
func PairingCheck(g1s []G1, g2s []G2) (bool, error) {
	a := make([]bls12381.G1Affine, len(g1s))
	for i, g := range g1s {
		a[i] = g.p
	}
	b := make([]bls12381.G2Affine, len(g2s))
	for i, g := range g2s {
		b[i] = g.p
	}
	ok, err := bls12381.PairingCheck(a, b)
	if err != nil {
		return false, fmt.Errorf("group: pairing check: %w", err)
	}
	return ok, nil
}

func (a GT) Equal(b GT) bool {
	return a.v.Equal(&b.v)
}
