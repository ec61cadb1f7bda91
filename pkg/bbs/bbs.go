// Package bbs holds the wire-shaped domain types shared by the issuer,
// holder and verifier: public parameters, credentials, DIDs and the
// selective-disclosure proof envelope. The arithmetic that produces and
// consumes these types lives in pkg/issuer, pkg/holder and pkg/verifier;
// this package only fixes their shape and JSON encoding.
package bbs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kysee/bbsdid/pkg/group"
)

// PublicParams are the parameters an Issuer fixes at Setup and publishes
// for Holders and Verifiers to consume. H holds n+1 attribute bases:
// H[0] is h0, the blinding-factor base; H[i] for i>=1 is h_i.
type PublicParams struct {
	N  int
	G1 group.G1
	G2 group.G2
	PK group.G2
	HP group.G1
	H  []group.G1
}

// H0 returns the blinding-factor base.
func (pp PublicParams) H0() group.G1 {
	return pp.H[0]
}

// Hi returns the i-th attribute base, 1-indexed as in the protocol text.
func (pp PublicParams) Hi(i int) group.G1 {
	return pp.H[i]
}

// pp's wire form is flat: {g1, g2, pk, hp, n, h0, h1, ..., hn} rather
// than an array of bases.
func (pp PublicParams) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	set := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	if err := set("g1", pp.G1); err != nil {
		return nil, err
	}
	if err := set("g2", pp.G2); err != nil {
		return nil, err
	}
	if err := set("pk", pp.PK); err != nil {
		return nil, err
	}
	if err := set("hp", pp.HP); err != nil {
		return nil, err
	}
	if err := set("n", pp.N); err != nil {
		return nil, err
	}
	for i, h := range pp.H {
		if err := set(fmt.Sprintf("h%d", i), h); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

func (pp *PublicParams) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("bbs: decode public params: %w", err)
	}

	get := func(key string, v interface{}) error {
		r, ok := raw[key]
		if !ok {
			return fmt.Errorf("bbs: public params missing field %q", key)
		}
		return json.Unmarshal(r, v)
	}

	var n int
	if err := get("n", &n); err != nil {
		return err
	}
	if err := get("g1", &pp.G1); err != nil {
		return err
	}
	if err := get("g2", &pp.G2); err != nil {
		return err
	}
	if err := get("pk", &pp.PK); err != nil {
		return err
	}
	if err := get("hp", &pp.HP); err != nil {
		return err
	}

	bases := make([]group.G1, n+1)
	for i := range bases {
		if err := get(fmt.Sprintf("h%d", i), &bases[i]); err != nil {
			return err
		}
	}
	pp.N = n
	pp.H = bases
	return nil
}

// Credential is the BBS+ signature over a holder's attribute vector:
// cred = (A, x, s) satisfying A^(sk+x) = g1 . h0^s . prod h_i^m_i.
type Credential struct {
	A group.G1     `json:"A"`
	X group.Scalar `json:"x"`
	S group.Scalar `json:"s"`
}

// DID is a pair of G1 points bound by u = v^s (holder-internal
// convention). See pkg/holder for the verifier-facing role swap.
type DID struct {
	U group.G1 `json:"u"`
	V group.G1 `json:"v"`
}

// SchnorrProof is the semantic (group-typed) form of a Schnorr NIZK; its
// wire counterpart is wire.SchnorrProof, which carries base64 strings
// instead of group.G1/group.Scalar so it can travel inside an
// AttributeInput without this package's JSON tags leaking through.
type SchnorrProof struct {
	R group.G1
	Z group.Scalar
}

// AttrKey renders the 1-indexed attribute slot name the wire format and
// the protocol text both use ("m1", "m2", ...).
func AttrKey(i int) string {
	return "m" + strconv.Itoa(i)
}

// AttrIndex parses an attribute slot name back into its 1-based index.
func AttrIndex(key string) (int, error) {
	if !strings.HasPrefix(key, "m") {
		return 0, fmt.Errorf("bbs: malformed attribute key %q", key)
	}
	i, err := strconv.Atoi(key[1:])
	if err != nil {
		return 0, fmt.Errorf("bbs: malformed attribute key %q: %w", key, err)
	}
	return i, nil
}

// DisclosureProof is the envelope a Holder sends a Verifier: the
// disclosed attribute values, the exposed DID, and the combined
// BBS+/Schnorr/DID-binding proof of knowledge.
type DisclosureProof struct {
	DisclosedAttrs map[string]string      `json:"disclosed_attrs"`
	DID            DID                    `json:"did"`
	APrime         group.G1               `json:"A_prime"`
	ABar           group.G1               `json:"A_bar"`
	R3             group.G1               `json:"R3"`
	C              group.Scalar           `json:"c"`
	Zx             group.Scalar           `json:"z_x"`
	Zr1            group.Scalar           `json:"z_r1"`
	ZsPrime        group.Scalar           `json:"z_s_prime"`
	Zs             group.Scalar           `json:"z_s"`
	ZHidden        map[string]group.Scalar `json:"z_hidden"`
}
