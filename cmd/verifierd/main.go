// Command verifierd serves the Verifier role over HTTP: accepting
// issuer parameters, a disclosure policy, and selective-disclosure
// proofs to check against both.
package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/kysee/bbsdid/internal/httpapi"
	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/verifier"
	"github.com/rs/zerolog"
)

type config struct {
	Port int
}

func newConfig(args ...string) *config {
	cfg := &config{Port: 8083}
	for i := 0; i < len(args); i++ {
		if len(args) <= i+1 {
			break
		}
		if args[i] == "--port" {
			cfg.Port, _ = strconv.Atoi(args[i+1])
			i++
		}
	}
	return cfg
}

func main() {
	cfg := newConfig(os.Args[1:]...)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("service", "verifierd").Logger()

	v := verifier.New()

	mux := http.NewServeMux()

	mux.HandleFunc("/setup", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body struct {
			PP bbs.PublicParams `json:"pp"`
		}
		if err := httpapi.DecodeJSON(r, &body); err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		v.Setup(body.PP)
		log.Info().Int("n", body.PP.N).Msg("verifier parameters set")
		httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{"ok": true})
	})

	mux.HandleFunc("/policy", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body struct {
				Policy map[string]string `json:"policy"`
			}
			if err := httpapi.DecodeJSON(r, &body); err != nil {
				httpapi.WriteError(w, log, err)
				return
			}
			v.SetPolicy(body.Policy)
			log.Info().Interface("policy", body.Policy).Msg("policy set")
			httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{"ok": true})
		case http.MethodGet:
			httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"policy": v.Policy()})
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var proof bbs.DisclosureProof
		if err := httpapi.DecodeJSON(r, &proof); err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		if err := v.Verify(&proof); err != nil {
			log.Warn().Err(err).Msg("proof rejected")
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"valid":   false,
				"message": err.Error(),
			})
			return
		}
		log.Info().Interface("disclosed", proof.DisclosedAttrs).Msg("proof accepted")
		httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
	})

	log.Info().Int("port", cfg.Port).Msg("verifierd listening")
	if err := http.ListenAndServe(":"+strconv.Itoa(cfg.Port), mux); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
