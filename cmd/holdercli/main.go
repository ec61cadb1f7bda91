// Command holdercli drives a single holder.Authenticate lifecycle
// against a running issuerd/ledgerd/verifierd trio: fetch public
// parameters, request a credential over a cleartext attribute vector,
// generate and register a DID, build a selective-disclosure proof, and
// present it. The holder is a library-shaped principal with no server
// of its own; this CLI is the thin driver that exercises it end to end.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kysee/bbsdid/pkg/holder"
	"github.com/rs/zerolog"
)

type config struct {
	IssuerURL   string
	LedgerURL   string
	VerifierURL string
	Attrs       map[string]string
	Disclose    []int
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func newConfig(args ...string) *config {
	cfg := &config{
		IssuerURL:   getEnv("ISSUER_URL", "http://localhost:8081"),
		LedgerURL:   getEnv("LEDGER_URL", "http://localhost:8082"),
		VerifierURL: getEnv("VERIFIER_URL", "http://localhost:8083"),
		Attrs:       map[string]string{},
	}

	for i := 0; i < len(args); i++ {
		if len(args) <= i+1 {
			break
		}
		switch args[i] {
		case "--issuer":
			cfg.IssuerURL = args[i+1]
			i++
		case "--ledger":
			cfg.LedgerURL = args[i+1]
			i++
		case "--verifier":
			cfg.VerifierURL = args[i+1]
			i++
		case "--attr":
			// "m1=alice"
			kv := strings.SplitN(args[i+1], "=", 2)
			if len(kv) == 2 {
				cfg.Attrs[kv[0]] = kv[1]
			}
			i++
		case "--disclose":
			// "1,3"
			for _, tok := range strings.Split(args[i+1], ",") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				if n, err := strconv.Atoi(tok); err == nil {
					cfg.Disclose = append(cfg.Disclose, n)
				}
			}
			i++
		}
	}
	return cfg
}

func main() {
	cfg := newConfig(os.Args[1:]...)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Str("service", "holdercli").Logger()

	if len(cfg.Attrs) == 0 {
		log.Error().Msg("no attributes given, pass one or more --attr m1=value")
		os.Exit(1)
	}

	h := holder.New(cfg.IssuerURL, cfg.LedgerURL, cfg.VerifierURL)

	log.Info().Str("issuer", cfg.IssuerURL).Msg("fetching public parameters")
	if _, err := h.FetchPublicParams(); err != nil {
		log.Error().Err(err).Msg("fetch public params failed")
		os.Exit(1)
	}

	log.Info().Interface("attributes", cfg.Attrs).Msg("requesting credential")
	if _, err := h.RequestCredential(cfg.Attrs); err != nil {
		log.Error().Err(err).Msg("credential request failed")
		os.Exit(1)
	}

	did, err := h.GenerateDID()
	if err != nil {
		log.Error().Err(err).Msg("DID generation failed")
		os.Exit(1)
	}
	log.Info().Str("u", fmt.Sprintf("%x", did.U.Bytes())).Msg("DID generated")

	log.Info().Str("ledger", cfg.LedgerURL).Msg("registering DID")
	if err := h.RegisterDID(); err != nil {
		log.Error().Err(err).Msg("DID registration failed")
		os.Exit(1)
	}

	log.Info().Ints("disclose", cfg.Disclose).Msg("building disclosure proof")
	proof, err := h.BuildProof(cfg.Disclose)
	if err != nil {
		log.Error().Err(err).Msg("proof construction failed")
		os.Exit(1)
	}

	valid, message, err := h.PresentProof(proof)
	if err != nil {
		log.Error().Err(err).Msg("proof presentation failed")
		os.Exit(1)
	}
	if !valid {
		log.Error().Str("message", message).Msg("verifier rejected proof")
		os.Exit(1)
	}
	log.Info().Msg("authentication succeeded")
}
