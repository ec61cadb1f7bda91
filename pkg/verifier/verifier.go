// Package verifier implements the four-step disclosure-proof check:
// policy, pairing, Schnorr re-derivation, and DID binding,
// short-circuiting on the first failure.
package verifier

import (
	"fmt"
	"sync"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/group"
)

// Verifier holds the issuer's public parameters and the disclosure
// policy it enforces. Both are read-only after being set, so Verify
// itself needs no lock beyond the one guarding reads of those two
// fields against concurrent Setup/SetPolicy calls.
type Verifier struct {
	mu     sync.RWMutex
	pp     *bbs.PublicParams
	policy map[string]string
}

// New returns a Verifier with no public parameters or policy set.
func New() *Verifier {
	return &Verifier{policy: map[string]string{}}
}

// Setup stores the issuer's public parameters.
func (v *Verifier) Setup(pp bbs.PublicParams) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pp = &pp
}

// SetPolicy replaces the required-value map checked during Verify.
func (v *Verifier) SetPolicy(policy map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := make(map[string]string, len(policy))
	for k, val := range policy {
		cp[k] = val
	}
	v.policy = cp
}

// Policy returns the currently configured policy.
func (v *Verifier) Policy() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	cp := make(map[string]string, len(v.policy))
	for k, val := range v.policy {
		cp[k] = val
	}
	return cp
}

func (v *Verifier) snapshot() (bbs.PublicParams, map[string]string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.pp == nil {
		return bbs.PublicParams{}, nil, false
	}
	return *v.pp, v.policy, true
}

// Verify runs the policy, pairing, Schnorr and DID-binding checks in
// order, returning the first violated apierrors.Kind as an error.
func (v *Verifier) Verify(proof *bbs.DisclosureProof) error {
	pp, policy, ready := v.snapshot()
	if !ready {
		return apierrors.New(apierrors.NotInitialized, "verifier has not completed setup")
	}

	// 1. Policy.
	for key, required := range policy {
		got, ok := proof.DisclosedAttrs[key]
		if !ok || got != required {
			return apierrors.New(apierrors.PolicyViolation, "disclosed attributes do not satisfy policy")
		}
	}

	// 2. Pairing: e(Abar, g2) == e(A', pk).
	ok, err := group.PairingCheck(
		[]group.G1{proof.ABar, proof.APrime.Inv()},
		[]group.G2{pp.G2, pp.PK},
	)
	if err != nil || !ok {
		return apierrors.New(apierrors.PairingCheckFailed, "credential pairing equation does not hold")
	}

	// 3. Schnorr re-derivation.
	disclosedIdx := make([]int, 0, len(proof.DisclosedAttrs))
	for key := range proof.DisclosedAttrs {
		idx, err := bbs.AttrIndex(key)
		if err != nil {
			return apierrors.Wrap(apierrors.InputMalformed, "malformed disclosed attribute key", err)
		}
		if idx < 1 || idx > pp.N {
			return apierrors.New(apierrors.AttributeMismatch,
				fmt.Sprintf("disclosed attribute %q out of range [1,%d]", key, pp.N))
		}
		disclosedIdx = append(disclosedIdx, idx)
	}
	disclosedSet := make(map[int]bool, len(disclosedIdx))
	for _, i := range disclosedIdx {
		disclosedSet[i] = true
	}

	bD := pp.G1
	for _, j := range disclosedIdx {
		mj := group.HashToScalar([]byte(proof.DisclosedAttrs[bbs.AttrKey(j)]))
		bD = bD.Mul(pp.Hi(j).Exp(mj))
	}

	tPrime := proof.APrime.Exp(proof.Zx.Neg()).Mul(bD.Exp(proof.Zr1)).Mul(pp.H0().Exp(proof.ZsPrime))
	for i := 1; i <= pp.N; i++ {
		if disclosedSet[i] {
			continue
		}
		zmi, ok := proof.ZHidden[bbs.AttrKey(i)]
		if !ok {
			return apierrors.New(apierrors.AttributeMismatch, "proof missing hidden-attribute response")
		}
		tPrime = tPrime.Mul(pp.Hi(i).Exp(zmi))
	}
	tPrime = tPrime.Mul(proof.ABar.Exp(proof.C.Neg()))

	cPrime := group.HashToScalar(proof.APrime.Bytes(), proof.ABar.Bytes(), tPrime.Bytes(), proof.R3.Bytes())
	if !proof.C.Equal(cPrime) {
		return apierrors.New(apierrors.SchnorrCheckFailed, "Fiat-Shamir challenge mismatch")
	}

	// 4. DID binding: u_did^z_s == R3 . v_did^c.
	lhs := proof.DID.U.Exp(proof.Zs)
	rhs := proof.R3.Mul(proof.DID.V.Exp(proof.C))
	if !lhs.Equal(rhs) {
		return apierrors.New(apierrors.DIDCheckFailed, "DID trapdoor equation does not hold")
	}

	return nil
}
