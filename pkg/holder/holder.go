// Package holder implements the credential-holding principal: fetching
// public parameters, requesting a credential, generating a DID bound to
// it, registering that DID on the ledger, and constructing the
// selective-disclosure + DID-binding proof presented to the verifier.
// It is an HTTP client package, never a server.
package holder

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/group"
	"github.com/kysee/bbsdid/pkg/wire"
)

// Holder drives a single credential/DID/proof lifecycle against the
// three services it is configured against.
type Holder struct {
	IssuerBaseURL   string
	LedgerBaseURL   string
	VerifierBaseURL string
	Client          *http.Client

	pp              *bbs.PublicParams
	attributeValues map[string]string // keyed "m1".."mn", cleartext only
	credential      *bbs.Credential
	didInternal     bbs.DID // u = v^s, holder-internal convention
}

// New returns a Holder pointed at the three given service base URLs.
func New(issuerURL, ledgerURL, verifierURL string) *Holder {
	return &Holder{
		IssuerBaseURL:   issuerURL,
		LedgerBaseURL:   ledgerURL,
		VerifierBaseURL: verifierURL,
		Client:          &http.Client{},
	}
}

func encodeG1(g group.G1) string {
	return base64.StdEncoding.EncodeToString(g.Bytes())
}

func postJSON(client *http.Client, url string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("holder: encode request: %w", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("holder: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("holder: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("holder: request to %s failed with status %d: %s", url, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("holder: decode response: %w", err)
	}
	return nil
}

func getJSON(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("holder: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("holder: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("holder: request to %s failed with status %d: %s", url, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("holder: decode response: %w", err)
	}
	return nil
}

// FetchPublicParams retrieves and stores the issuer's public parameters.
func (h *Holder) FetchPublicParams() (*bbs.PublicParams, error) {
	var resp struct {
		PP bbs.PublicParams `json:"pp"`
	}
	if err := getJSON(h.Client, h.IssuerBaseURL+"/pp", &resp); err != nil {
		return nil, err
	}
	h.pp = &resp.PP
	return h.pp, nil
}

// RequestCredential asks the issuer to sign the given cleartext attribute
// vector, keyed "m1".."mn". Only cleartext slots are driven from here;
// the issuer's blind-attribute path exists for wire compatibility.
func (h *Holder) RequestCredential(attributeValues map[string]string) (*bbs.Credential, error) {
	if h.pp == nil {
		if _, err := h.FetchPublicParams(); err != nil {
			return nil, err
		}
	}

	attrs := make(map[string]wire.AttributeInput, len(attributeValues))
	for k, v := range attributeValues {
		attrs[k] = wire.AttributeInput{Value: v}
	}

	var resp struct {
		Credential bbs.Credential `json:"credential"`
	}
	if err := postJSON(h.Client, h.IssuerBaseURL+"/issue", map[string]interface{}{"attributes": attrs}, &resp); err != nil {
		return nil, err
	}

	h.attributeValues = attributeValues
	h.credential = &resp.Credential
	return h.credential, nil
}

// GenerateDID samples v uniformly and derives u = v^s, the
// holder-internal convention bound to the credential's blinding scalar.
func (h *Holder) GenerateDID() (bbs.DID, error) {
	if h.credential == nil {
		return bbs.DID{}, fmt.Errorf("holder: no credential on hand, call RequestCredential first")
	}
	v, err := group.RandomG1()
	if err != nil {
		return bbs.DID{}, fmt.Errorf("holder: sample DID point v: %w", err)
	}
	u := v.Exp(h.credential.S)
	h.didInternal = bbs.DID{U: u, V: v}
	return h.didInternal, nil
}

// exposeDID applies the single documented role swap between the
// holder-internal DID convention (u = v^s) and the verifier-facing one
// (did_v = did_u^s): did_u := v_internal, did_v := u_internal.
func (h *Holder) exposeDID() bbs.DID {
	return bbs.DID{U: h.didInternal.V, V: h.didInternal.U}
}

// RegisterDID submits the holder-internal DID encoding (u = v^s) to the
// ledger. The verifier-facing role swap only happens inside BuildProof,
// when the DID is presented to the Verifier.
func (h *Holder) RegisterDID() error {
	body := map[string]string{
		"u": encodeG1(h.didInternal.U),
		"v": encodeG1(h.didInternal.V),
	}
	return postJSON(h.Client, h.LedgerBaseURL+"/transaction/new", body, nil)
}

// BuildProof constructs the selective-disclosure + DID-binding proof
// for the attribute indices in disclose (1-based).
func (h *Holder) BuildProof(disclose []int) (*bbs.DisclosureProof, error) {
	if h.pp == nil || h.credential == nil {
		return nil, fmt.Errorf("holder: public params and credential must be fetched before building a proof")
	}
	pp := *h.pp
	cred := *h.credential

	disclosed := make(map[int]bool, len(disclose))
	for _, i := range disclose {
		if i < 1 || i > pp.N {
			return nil, fmt.Errorf("holder: disclosed index %d out of range [1,%d]", i, pp.N)
		}
		if disclosed[i] {
			return nil, fmt.Errorf("holder: disclosed index %d repeated", i)
		}
		disclosed[i] = true
	}
	var hidden []int
	for i := 1; i <= pp.N; i++ {
		if !disclosed[i] {
			hidden = append(hidden, i)
		}
	}
	sort.Ints(hidden)

	// Witness setup.
	m := make(map[int]group.Scalar, pp.N)
	for i := 1; i <= pp.N; i++ {
		value, ok := h.attributeValues[bbs.AttrKey(i)]
		if !ok {
			return nil, fmt.Errorf("holder: missing attribute value for slot %q", bbs.AttrKey(i))
		}
		m[i] = group.HashToScalar([]byte(value))
	}

	r1, err := group.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("holder: sample r1: %w", err)
	}
	aPrime := cred.A.Exp(r1)

	b := pp.G1.Mul(pp.H0().Exp(cred.S))
	for i := 1; i <= pp.N; i++ {
		b = b.Mul(pp.Hi(i).Exp(m[i]))
	}
	aBar := aPrime.Exp(cred.X.Neg()).Mul(b.Exp(r1))

	sPrime := cred.S.Mul(r1)
	mPrime := make(map[int]group.Scalar, len(hidden))
	for _, i := range hidden {
		mPrime[i] = m[i].Mul(r1)
	}

	// Schnorr commitment.
	kx, err := group.RandomScalar()
	if err != nil {
		return nil, err
	}
	kr1, err := group.RandomScalar()
	if err != nil {
		return nil, err
	}
	ksPrime, err := group.RandomScalar()
	if err != nil {
		return nil, err
	}
	ks, err := group.RandomScalar()
	if err != nil {
		return nil, err
	}
	kmPrime := make(map[int]group.Scalar, len(hidden))
	for _, i := range hidden {
		kmPrime[i], err = group.RandomScalar()
		if err != nil {
			return nil, err
		}
	}

	bD := pp.G1
	for _, j := range disclose {
		bD = bD.Mul(pp.Hi(j).Exp(m[j]))
	}

	t := aPrime.Exp(kx.Neg()).Mul(bD.Exp(kr1)).Mul(pp.H0().Exp(ksPrime))
	for _, i := range hidden {
		t = t.Mul(pp.Hi(i).Exp(kmPrime[i]))
	}

	exposed := h.exposeDID()
	r3 := exposed.U.Exp(ks)

	c := group.HashToScalar(aPrime.Bytes(), aBar.Bytes(), t.Bytes(), r3.Bytes())

	zx := kx.Add(c.Mul(cred.X))
	zr1 := kr1.Add(c.Mul(r1))
	zsPrime := ksPrime.Add(c.Mul(sPrime))
	zs := ks.Add(c.Mul(cred.S))
	zHidden := make(map[string]group.Scalar, len(hidden))
	for _, i := range hidden {
		zHidden[bbs.AttrKey(i)] = kmPrime[i].Add(c.Mul(mPrime[i]))
	}

	disclosedAttrs := make(map[string]string, len(disclose))
	for _, j := range disclose {
		disclosedAttrs[bbs.AttrKey(j)] = h.attributeValues[bbs.AttrKey(j)]
	}

	return &bbs.DisclosureProof{
		DisclosedAttrs: disclosedAttrs,
		DID:            exposed,
		APrime:         aPrime,
		ABar:           aBar,
		R3:             r3,
		C:              c,
		Zx:             zx,
		Zr1:            zr1,
		ZsPrime:        zsPrime,
		Zs:             zs,
		ZHidden:        zHidden,
	}, nil
}

// PresentProof posts a proof envelope to the verifier and reports the
// valid/invalid verdict. A rejected proof comes back as HTTP 400 with a
// {valid:false, message} body, so unlike the other calls a 400 here is a
// verdict, not a transport failure.
func (h *Holder) PresentProof(proof *bbs.DisclosureProof) (bool, string, error) {
	payload, err := json.Marshal(proof)
	if err != nil {
		return false, "", fmt.Errorf("holder: encode proof: %w", err)
	}
	resp, err := h.Client.Post(h.VerifierBaseURL+"/verify", "application/json", bytes.NewReader(payload))
	if err != nil {
		return false, "", fmt.Errorf("holder: send proof: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, "", fmt.Errorf("holder: read verdict: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return false, "", fmt.Errorf("holder: verify request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false, "", fmt.Errorf("holder: decode verdict: %w", err)
	}
	return out.Valid, out.Message, nil
}

// Authenticate runs the full holder flow: fetch PP, request a credential,
// generate and register a DID, build a disclosure proof, and present it.
func (h *Holder) Authenticate(attributeValues map[string]string, disclose []int) (bool, string, error) {
	if _, err := h.FetchPublicParams(); err != nil {
		return false, "", err
	}
	if _, err := h.RequestCredential(attributeValues); err != nil {
		return false, "", err
	}
	if _, err := h.GenerateDID(); err != nil {
		return false, "", err
	}
	if err := h.RegisterDID(); err != nil {
		return false, "", err
	}
	proof, err := h.BuildProof(disclose)
	if err != nil {
		return false, "", err
	}
	return h.PresentProof(proof)
}
