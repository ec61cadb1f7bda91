// Command issuerd serves the Issuer role over HTTP: GET /pp returns the
// published parameters, POST /issue signs an attribute vector into a
// credential.
package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/kysee/bbsdid/internal/httpapi"
	"github.com/kysee/bbsdid/pkg/issuer"
	"github.com/kysee/bbsdid/pkg/wire"
	"github.com/rs/zerolog"
)

type config struct {
	Port int
	N    int
}

func newConfig(args ...string) *config {
	cfg := &config{Port: 8081, N: 3}
	for i := 0; i < len(args); i++ {
		if len(args) <= i+1 {
			break
		}
		switch args[i] {
		case "--port":
			cfg.Port, _ = strconv.Atoi(args[i+1])
			i++
		case "-n":
			cfg.N, _ = strconv.Atoi(args[i+1])
			i++
		}
	}
	return cfg
}

func main() {
	cfg := newConfig(os.Args[1:]...)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("service", "issuerd").Logger()

	iss := issuer.New()
	pp, err := iss.Setup(cfg.N)
	if err != nil {
		log.Error().Err(err).Msg("setup failed")
		os.Exit(1)
	}
	log.Info().Int("n", pp.N).Msg("issuer parameters ready")

	mux := http.NewServeMux()

	mux.HandleFunc("/pp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		pp, err := iss.PublicParams()
		if err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"pp": pp})
	})

	mux.HandleFunc("/issue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Attributes map[string]wire.AttributeInput `json:"attributes"`
		}
		if err := httpapi.DecodeJSON(r, &body); err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		cred, err := iss.Issue(body.Attributes)
		if err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{"credential": cred})
	})

	log.Info().Int("port", cfg.Port).Msg("issuerd listening")
	if err := http.ListenAndServe(":"+strconv.Itoa(cfg.Port), mux); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
