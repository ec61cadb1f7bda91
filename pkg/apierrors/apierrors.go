// Package apierrors defines the kind-tagged error vocabulary shared by
// the issuer, verifier and ledger services. Each error carries a Kind
// the HTTP status is derived from, never hand-picked per call site.
package apierrors

import "errors"

// Kind tags an error with the protocol-level reason it was rejected,
// independent of the human-readable message attached to any one instance.
type Kind string

const (
	InputMalformed        Kind = "INPUT_MALFORMED"
	DeserializationFailed Kind = "DESERIALIZATION_FAILED"
	NotInitialized        Kind = "NOT_INITIALIZED"
	AttributeMismatch     Kind = "ATTRIBUTE_MISMATCH"
	NIZKRejected          Kind = "NIZK_REJECTED"
	PolicyViolation       Kind = "POLICY_VIOLATION"
	PairingCheckFailed    Kind = "PAIRING_CHECK_FAILED"
	SchnorrCheckFailed    Kind = "SCHNORR_CHECK_FAILED"
	DIDCheckFailed        Kind = "DID_CHECK_FAILED"
	LedgerEmpty           Kind = "LEDGER_EMPTY"
	NotFound              Kind = "NOT_FOUND"
)

// Error is the single error type returned by every package in this module
// that can fail for a protocol-meaningful reason. Kind is checked with
// errors.As by callers that need to branch on it; Cause preserves the
// underlying error for logging without leaking it into the Kind taxonomy.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// HTTPStatus maps a Kind to its status code: every kind is 400 except
// NOT_FOUND, which is 404.
func (e *Error) HTTPStatus() int {
	if e.Kind == NotFound {
		return 404
	}
	return 400
}

// As reports whether err (or something it wraps) is an *Error, mirroring
// the errors.As contract so callers don't need to import the standard
// errors package as well just to branch on a Kind.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
