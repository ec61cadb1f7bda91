// Package wire holds the JSON shapes exchanged between the three services
// and the canonicalization helper MerkleEngine and Ledger hash over.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CanonicalJSON re-encodes v with sorted object keys and no insignificant
// whitespace. encoding/json already sorts map[string]any keys on marshal,
// so canonicalization is a marshal into a generic value followed by a
// remarshal -- this also normalizes a struct's field order to whatever a
// map of the same data would produce.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("wire: normalize: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("wire: canonical marshal: %w", err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, out); err != nil {
		return nil, fmt.Errorf("wire: compact: %w", err)
	}
	return compact.Bytes(), nil
}

// SchnorrProof is the Schnorr NIZK envelope for a single blinded
// attribute: proof of knowledge of the discrete log of a commitment.
type SchnorrProof struct {
	R string `json:"R"`
	Z string `json:"z"`
}

// AttributeInput is one slot of an /issue request body. It is either a
// cleartext value or a blind commitment plus its opening proof.
// encoding/json's struct tags can't express that choice directly, so
// AttributeInput implements its own Marshaler/Unmarshaler to dispatch on
// which fields are present: a slot carrying "value" decodes as cleartext
// whatever else it carries, and a slot with neither "value" nor
// commitment+proof is rejected. This is the same
// division the original issuer.issue implementation makes by checking
// "value" in attributes[key].
type AttributeInput struct {
	Value      string        // set when this is a cleartext slot
	Commitment string        // set when this is a blind slot
	Proof      *SchnorrProof // set alongside Commitment
}

func (a AttributeInput) IsBlind() bool {
	return a.Proof != nil
}

type attributeInputWire struct {
	Value      *string       `json:"value,omitempty"`
	Commitment *string       `json:"commitment,omitempty"`
	Proof      *SchnorrProof `json:"proof,omitempty"`
}

func (a AttributeInput) MarshalJSON() ([]byte, error) {
	var w attributeInputWire
	if a.IsBlind() {
		w.Commitment = &a.Commitment
		w.Proof = a.Proof
	} else {
		w.Value = &a.Value
	}
	return json.Marshal(w)
}

func (a *AttributeInput) UnmarshalJSON(data []byte) error {
	var w attributeInputWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("wire: decode attribute slot: %w", err)
	}
	switch {
	case w.Value != nil:
		*a = AttributeInput{Value: *w.Value}
	case w.Commitment != nil && w.Proof != nil:
		*a = AttributeInput{Commitment: *w.Commitment, Proof: w.Proof}
	default:
		return fmt.Errorf("wire: attribute slot has neither value nor commitment+proof")
	}
	return nil
}
