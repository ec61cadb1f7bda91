package holder

import (
	"testing"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/issuer"
	"github.com/kysee/bbsdid/pkg/verifier"
	"github.com/stretchr/testify/require"
)

// wireHolder builds a Holder with its pp/credential/attributeValues/DID
// already populated, bypassing the HTTP round trip so these tests
// exercise only the proof construction and verification algebra.
func wireHolder(t *testing.T, iss *issuer.Issuer, values map[string]string) *Holder {
	t.Helper()
	pp, err := iss.PublicParams()
	require.NoError(t, err)

	h := &Holder{pp: pp}
	_, err = h.requestCredentialFrom(iss, values)
	require.NoError(t, err)
	_, err = h.GenerateDID()
	require.NoError(t, err)
	return h
}

// requestCredentialFrom mirrors RequestCredential but calls the issuer
// in-process instead of over HTTP, so the crypto tests don't need a live
// server.
func (h *Holder) requestCredentialFrom(iss *issuer.Issuer, values map[string]string) (*bbs.Credential, error) {
	cred, err := issueCleartext(iss, values)
	if err != nil {
		return nil, err
	}
	h.attributeValues = values
	h.credential = cred
	return cred, nil
}

func TestDiscloseSatisfiesPolicy(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)

	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)

	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)
	ver.SetPolicy(map[string]string{"m1": "alice", "m3": "student"})

	require.NoError(t, ver.Verify(proof))
	require.Equal(t, map[string]string{"m1": "alice", "m3": "student"}, proof.DisclosedAttrs)
}

func TestPolicyValueMismatchRejected(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)

	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)
	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)
	ver.SetPolicy(map[string]string{"m1": "bob"})

	err = ver.Verify(proof)
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, apierrors.As(err, &apiErr))
	require.Equal(t, apierrors.PolicyViolation, apiErr.Kind)
}

func TestFourAttributesDiscloseTwo(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(4)
	require.NoError(t, err)

	values := map[string]string{"m1": "100", "m2": "secret_age", "m3": "105", "m4": "secret_id"}
	h := wireHolder(t, iss, values)
	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)
	ver.SetPolicy(map[string]string{"m1": "100", "m3": "105"})

	require.NoError(t, ver.Verify(proof))
	require.ElementsMatch(t, []string{"m1", "m3"}, keysOf(proof.DisclosedAttrs))
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestDisclosureSoundnessTamperedA(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)
	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	random, err := randomG1(t)
	require.NoError(t, err)
	proof.APrime = random

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)
	ver.SetPolicy(map[string]string{"m1": "alice", "m3": "student"})

	err = ver.Verify(proof)
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, apierrors.As(err, &apiErr))
	require.Equal(t, apierrors.PairingCheckFailed, apiErr.Kind)
}

func TestDisclosureSoundnessTamperedResponse(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)
	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	other, err := randomScalar(t)
	require.NoError(t, err)
	proof.Zx = other

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)

	err = ver.Verify(proof)
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, apierrors.As(err, &apiErr))
	require.Equal(t, apierrors.SchnorrCheckFailed, apiErr.Kind)
}

func TestDisclosureSoundnessWrongDIDScalar(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)

	// Re-derive v with a fresh random point so u != v^s any more.
	v2, err := randomG1(t)
	require.NoError(t, err)
	h.didInternal.V = v2

	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)

	err = ver.Verify(proof)
	require.Error(t, err)
	var apiErr *apierrors.Error
	require.True(t, apierrors.As(err, &apiErr))
	require.Equal(t, apierrors.DIDCheckFailed, apiErr.Kind)
}

func TestVerifyRejectsOutOfRangeDisclosedKey(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)

	pp, _ := iss.PublicParams()

	for _, key := range []string{"m999", "m0", "m-1"} {
		proof, err := h.BuildProof([]int{1, 3})
		require.NoError(t, err)
		proof.DisclosedAttrs[key] = "bogus"

		ver := verifier.New()
		ver.Setup(*pp)

		err = ver.Verify(proof)
		require.Error(t, err, "key %s", key)
		var apiErr *apierrors.Error
		require.True(t, apierrors.As(err, &apiErr))
		require.Equal(t, apierrors.AttributeMismatch, apiErr.Kind)
	}
}

// Two proofs over the same disclosure set share only their disclosed
// values; every proof element is re-randomized per presentation, so a
// verifier seeing both cannot link them beyond what was disclosed.
func TestProofsOverSameDisclosureAreUnlinkable(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)

	p1, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)
	p2, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)
	ver.SetPolicy(map[string]string{"m1": "alice", "m3": "student"})
	require.NoError(t, ver.Verify(p1))
	require.NoError(t, ver.Verify(p2))

	require.Equal(t, p1.DisclosedAttrs, p2.DisclosedAttrs)
	require.False(t, p1.APrime.Equal(p2.APrime))
	require.False(t, p1.ABar.Equal(p2.ABar))
	require.False(t, p1.R3.Equal(p2.R3))
	require.False(t, p1.C.Equal(p2.C))
}

func TestDisclosureSoundnessTamperedR3(t *testing.T) {
	iss := issuer.New()
	_, err := iss.Setup(3)
	require.NoError(t, err)
	values := map[string]string{"m1": "alice", "m2": "25", "m3": "student"}
	h := wireHolder(t, iss, values)
	proof, err := h.BuildProof([]int{1, 3})
	require.NoError(t, err)

	random, err := randomG1(t)
	require.NoError(t, err)
	proof.R3 = random

	pp, _ := iss.PublicParams()
	ver := verifier.New()
	ver.Setup(*pp)

	err = ver.Verify(proof)
	require.Error(t, err)
}
