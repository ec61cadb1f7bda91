// Package httpapi holds the small set of JSON request/response helpers
// shared by the issuer, verifier and ledger HTTP services.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/rs/zerolog"
)

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its protocol-defined HTTP status and writes a
// {message, kind} body. Unrecognized errors (not an *apierrors.Error) are
// logged and reported as a generic 400 INPUT_MALFORMED, since every
// boundary-facing failure in this system is either a client mistake or a
// malformed request -- there is no internal-server-error path by design.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var apiErr *apierrors.Error
	if apierrors.As(err, &apiErr) {
		log.Warn().Str("kind", string(apiErr.Kind)).Err(err).Msg("request rejected")
		WriteJSON(w, apiErr.HTTPStatus(), map[string]interface{}{
			"message": apiErr.Error(),
			"kind":    apiErr.Kind,
		})
		return
	}
	log.Error().Err(err).Msg("unclassified request failure")
	WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": err.Error(),
		"kind":    apierrors.InputMalformed,
	})
}

// DecodeJSON reads and decodes the request body into v, wrapping any
// failure as an InputMalformed apierrors.Error.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apierrors.Wrap(apierrors.InputMalformed, "malformed JSON body", err)
	}
	return nil
}
