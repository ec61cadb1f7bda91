// Command ledgerd serves the Ledger role over HTTP: submitting
// transactions, mining pending ones into a block, and answering SPV
// inclusion queries over the in-memory chain.
package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/kysee/bbsdid/internal/httpapi"
	"github.com/kysee/bbsdid/pkg/apierrors"
	"github.com/kysee/bbsdid/pkg/ledger"
	"github.com/rs/zerolog"
)

type config struct {
	Port int
}

func newConfig(args ...string) *config {
	cfg := &config{Port: 8082}
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
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("service", "ledgerd").Logger()

	l := ledger.New()

	mux := http.NewServeMux()

	mux.HandleFunc("/transaction/new", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body struct {
			U string `json:"u"`
			V string `json:"v"`
		}
		if err := httpapi.DecodeJSON(r, &body); err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		if body.U == "" || body.V == "" {
			httpapi.WriteError(w, log, apierrors.New(apierrors.InputMalformed, "transaction requires both u and v"))
			return
		}
		_, pendingCount := l.Submit(body.U, body.V)
		log.Info().Str("u", body.U).Str("v", body.V).Int("pending_count", pendingCount).Msg("transaction submitted")
		httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{"pending_count": pendingCount})
	})

	mux.HandleFunc("/block/mine", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		block, err := l.Mine()
		if err != nil {
			httpapi.WriteError(w, log, err)
			return
		}
		log.Info().Uint64("height", block.Height).Int("transactions", len(block.Transactions)).Msg("block mined")
		httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"block":              block,
			"block_hash":         block.Hash(),
			"transactions_count": len(block.Transactions),
		})
	})

	mux.HandleFunc("/transaction/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		// A negative or non-numeric height is an invalid height, not a
		// malformed request: it answers "not found" like any height past
		// the chain tip.
		height, err := strconv.ParseInt(q.Get("block_height"), 10, 64)
		if err != nil || height < 0 {
			httpapi.WriteJSON(w, http.StatusNotFound, map[string]interface{}{"exists": false})
			return
		}
		u, v := q.Get("u"), q.Get("v")
		result, ok := l.SPV(uint64(height), u, v)
		if !ok {
			httpapi.WriteJSON(w, http.StatusNotFound, map[string]interface{}{"exists": false})
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"exists": true, "spv_proof": result})
	})

	mux.HandleFunc("/chain", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"chain": l.Chain()})
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, l.Info())
	})

	log.Info().Int("port", cfg.Port).Msg("ledgerd listening")
	if err := http.ListenAndServe(":"+strconv.Itoa(cfg.Port), mux); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
