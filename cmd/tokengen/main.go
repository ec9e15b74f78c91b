// Package main provides a CLI tool for minting issuer session tokens for the
// Vellum API. These tokens use the dev signing key by default and will NOT
// work against a production deployment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"vellum/internal/jwttoken"
	id "vellum/pkg/domain"
)

const (
	// Dev signing key - matches config.go when VELLUM_JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Address   string            `json:"address"`
	Label     string            `json:"label"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	address := flag.String("address", "", "Issuer ledger account address (0x hex). Required.")
	label := flag.String("label", "HCMUTE Registrar", "Human-readable issuer label")
	ttl := flag.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	signingKey := flag.String("signing-key", "", "Override signing key (defaults to the dev key)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *address == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -address 0x<issuer-address> [-label ...] [-ttl ...]")
		os.Exit(2)
	}
	issuerAddress, err := id.ParseAccountAddress(*address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid issuer address: %v\n", err)
		os.Exit(2)
	}

	key := *signingKey
	if key == "" {
		key = devSigningKey
	}

	service := jwttoken.NewService(key, "vellum", "vellum-issuers", *ttl)
	token, err := service.GenerateSessionToken(issuerAddress, *label)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := tokenOutput{
			Token:     token,
			Address:   issuerAddress.String(),
			Label:     *label,
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(out)
		return
	}

	fmt.Println(token)
}
