// Package issuer implements BBS+ parameter generation, blinded
// attribute NIZK verification, and credential signing over a mixed
// cleartext/committed attribute vector.
package issuer

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/group"
	"github.com/kysee/bbsdid/pkg/wire"
)

// Issuer holds the secret signing key and public parameters fixed at
// Setup. It is effectively stateless after that: PP is read-only and
// Issue never mutates it, so the mutex only guards the transition from
// "not yet set up" to "set up".
type Issuer struct {
	mu    sync.RWMutex
	ready bool
	pp    bbs.PublicParams
	sk    group.Scalar
}

// New returns an Issuer that has not yet had Setup called.
func New() *Issuer {
	return &Issuer{}
}

// Setup samples fresh public parameters and a signing key for an n-slot
// credential and retains both for the lifetime of the process.
func (iss *Issuer) Setup(n int) (*bbs.PublicParams, error) {
	if n <= 0 {
		return nil, apierrors.New(apierrors.InputMalformed, "attribute slot count must be positive")
	}

	g1, err := group.RandomG1()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample g1: %w", err)
	}
	g2, err := group.RandomG2()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample g2: %w", err)
	}
	sk, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample sk: %w", err)
	}
	hp, err := group.RandomG1()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample hp: %w", err)
	}
	h := make([]group.G1, n+1)
	for i := range h {
		h[i], err = group.RandomG1()
		if err != nil {
			return nil, fmt.Errorf("issuer: sample attribute base %d: %w", i, err)
		}
	}

	pp := bbs.PublicParams{
		N:  n,
		G1: g1,
		G2: g2,
		PK: g2.Exp(sk),
		HP: hp,
		H:  h,
	}

	iss.mu.Lock()
	iss.pp = pp
	iss.sk = sk
	iss.ready = true
	iss.mu.Unlock()

	return &pp, nil
}

// PublicParams returns the parameters fixed by Setup.
func (iss *Issuer) PublicParams() (*bbs.PublicParams, error) {
	iss.mu.RLock()
	defer iss.mu.RUnlock()
	if !iss.ready {
		return nil, apierrors.New(apierrors.NotInitialized, "issuer has not completed setup")
	}
	pp := iss.pp
	return &pp, nil
}

// verifyBlindAttribute checks the Schnorr NIZK of knowledge of the
// discrete log of commitment base h: accept iff h^z == commitment^c . R,
// where c is the Fiat-Shamir challenge over (h, commitment, R).
func verifyBlindAttribute(h, commitment group.G1, proof bbs.SchnorrProof) bool {
	c := group.HashToScalar(h.Bytes(), commitment.Bytes(), proof.R.Bytes())
	lhs := h.Exp(proof.Z)
	rhs := commitment.Exp(c).Mul(proof.R)
	return lhs.Equal(rhs)
}

func decodeG1(encoded string) (group.G1, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return group.G1{}, err
	}
	return group.G1FromBytes(raw)
}

func decodeScalar(encoded string) (group.Scalar, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return group.Scalar{}, err
	}
	return group.ScalarFromBytes(raw), nil
}

// Issue signs an n-slot attribute vector, accepting a mix of cleartext
// values and blinded commitments per slot, and returns the resulting
// credential (A, x, s).
func (iss *Issuer) Issue(attrs map[string]wire.AttributeInput) (*bbs.Credential, error) {
	iss.mu.RLock()
	pp := iss.pp
	sk := iss.sk
	ready := iss.ready
	iss.mu.RUnlock()

	if !ready {
		return nil, apierrors.New(apierrors.NotInitialized, "issuer has not completed setup")
	}
	if len(attrs) != pp.N {
		return nil, apierrors.New(apierrors.AttributeMismatch,
			fmt.Sprintf("expected %d attribute slots, got %d", pp.N, len(attrs)))
	}

	x, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample x: %w", err)
	}
	s, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("issuer: sample s: %w", err)
	}

	a := pp.G1.Mul(pp.H0().Exp(s))

	for i := 1; i <= pp.N; i++ {
		key := bbs.AttrKey(i)
		slot, ok := attrs[key]
		if !ok {
			return nil, apierrors.New(apierrors.AttributeMismatch, fmt.Sprintf("missing attribute slot %q", key))
		}
		hi := pp.Hi(i)

		if !slot.IsBlind() {
			mi := group.HashToScalar([]byte(slot.Value))
			a = a.Mul(hi.Exp(mi))
			continue
		}

		commitment, err := decodeG1(slot.Commitment)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.DeserializationFailed, fmt.Sprintf("slot %q: malformed commitment", key), err)
		}
		r, err := decodeG1(slot.Proof.R)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.DeserializationFailed, fmt.Sprintf("slot %q: malformed proof.R", key), err)
		}
		z, err := decodeScalar(slot.Proof.Z)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.DeserializationFailed, fmt.Sprintf("slot %q: malformed proof.z", key), err)
		}

		if !verifyBlindAttribute(hi, commitment, bbs.SchnorrProof{R: r, Z: z}) {
			return nil, apierrors.New(apierrors.NIZKRejected, fmt.Sprintf("slot %q: blind attribute NIZK rejected", key))
		}
		a = a.Mul(commitment)
	}

	denom := sk.Add(x)
	if denom.IsZero() {
		return nil, apierrors.New(apierrors.InputMalformed, "degenerate signing exponent sk+x=0, retry issuance")
	}
	a = a.Exp(denom.Inverse())

	return &bbs.Credential{A: a, X: x, S: s}, nil
}
