// Package main provides a CLI tool for generating signer keys, signed mint
// authorizations, and dev bearer tokens for the sigil API. Keys and tokens
// produced with default settings are for local development only.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"sigil/internal/issuance/authz"
	"sigil/internal/platform/token"
	id "sigil/pkg/domain"
)

const (
	// Dev signing key - matches config.go when SIGIL_JWT_SIGNING_KEY is not set
	devJWTSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "sigil"
	defaultTokenTTL = 24 * time.Hour
)

func main() {
	keygenCmd := flag.NewFlagSet("keygen", flag.ExitOnError)
	keygenSeed := keygenCmd.String("seed", "", "Hex-encoded 32-byte seed. Generated if empty.")
	keygenJSON := keygenCmd.Bool("json", false, "Output as JSON")

	signCmd := flag.NewFlagSet("sign", flag.ExitOnError)
	signKey := signCmd.String("key", "", "Hex-encoded 32-byte signer seed (required)")
	signRecipient := signCmd.String("recipient", "", "Recipient address (required)")
	signTypeID := signCmd.String("type-id", "", "Credential type ID (required)")
	signPrice := signCmd.Uint64("price", 0, "Registered price of the credential type")
	signNonce := signCmd.Uint64("nonce", 0, "Recipient's current nonce")
	signTTL := signCmd.Duration("ttl", time.Hour, "Authorization validity from now")
	signDomain := signCmd.String("domain", "sigil-dev", "Deployment domain string")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenCaller := tokenCmd.String("caller", "", "Caller address the token names (required)")
	tokenKey := tokenCmd.String("signing-key", devJWTSigningKey, "JWT signing key")
	tokenTTL := tokenCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	tokenJSON := tokenCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		keygenCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateKeypair(*keygenSeed, *keygenJSON)
	case "sign":
		signCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		signAuthorization(*signKey, *signRecipient, *signTypeID, *signPrice, *signNonce, *signTTL, *signDomain)
	case "token":
		tokenCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateToken(*tokenCaller, *tokenKey, *tokenTTL, *tokenJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`authgen - Generate signer keys, mint authorizations, and dev tokens for sigil

Usage:
  authgen <command> [flags]

Commands:
  keygen    Generate an ed25519 signer keypair
  sign      Sign a mint authorization for a recipient
  token     Generate a dev bearer token for a caller address

Examples:
  # Generate a fresh signer keypair; configure the public key as
  # SIGIL_SIGNER_PUBKEY and keep the seed offline
  authgen keygen

  # Sign an authorization for one unit of type 3, valid for an hour
  authgen sign -key <seed> -recipient 0x... -type-id 3 -price 100 -nonce 0

  # Sign against a specific deployment domain
  authgen sign -key <seed> -recipient 0x... -type-id 3 -domain sigil-prod

  # Generate a bearer token for local calls
  authgen token -caller 0x...

Use "authgen <command> -h" for more information about a command.`)
}

func generateKeypair(seedHex string, jsonOutput bool) {
	var seed []byte
	if seedHex == "" {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fatalf("Error generating seed: %v", err)
		}
	} else {
		var err error
		seed, err = hex.DecodeString(seedHex)
		if err != nil || len(seed) != ed25519.SeedSize {
			fatalf("Seed must be %d hex-encoded bytes", ed25519.SeedSize)
		}
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	if jsonOutput {
		printJSON(map[string]string{
			"seed":       hex.EncodeToString(seed),
			"public_key": hex.EncodeToString(pub),
		})
		return
	}
	fmt.Println("Signer Keypair (ed25519)")
	fmt.Println("========================")
	fmt.Printf("Seed:       %s\n", hex.EncodeToString(seed))
	fmt.Printf("Public Key: %s\n", hex.EncodeToString(pub))
	fmt.Println()
	fmt.Println("Configure the public key as SIGIL_SIGNER_PUBKEY (or rotate it in")
	fmt.Println("via PUT /admin/signer). Keep the seed offline; the server never")
	fmt.Println("holds it.")
}

func signAuthorization(keyHex, recipient, typeIDStr string, price, nonce uint64, ttl time.Duration, domain string) {
	seed, err := hex.DecodeString(keyHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		fatalf("-key must be %d hex-encoded bytes", ed25519.SeedSize)
	}
	to, err := id.ParseAddress(recipient)
	if err != nil {
		fatalf("Invalid recipient: %v", err)
	}
	typeID, err := id.ParseCredentialTypeID(typeIDStr)
	if err != nil {
		fatalf("Invalid type-id: %v", err)
	}

	deadline := time.Now().Add(ttl).Unix()
	msg := authz.Message{
		Recipient: to,
		TypeID:    typeID,
		Price:     price,
		Deadline:  deadline,
		DomainID:  authz.DomainID(domain),
		Nonce:     nonce,
	}
	priv := ed25519.NewKeyFromSeed(seed)

	// The output is the authorization object POST /mint expects.
	printJSON(map[string]any{
		"to":      to.String(),
		"type_id": typeID.String(),
		"value":   price,
		"authorization": map[string]any{
			"deadline":  deadline,
			"nonce":     nonce,
			"signature": authz.Sign(priv, msg),
		},
	})
}

func generateToken(caller, signingKey string, ttl time.Duration, jsonOutput bool) {
	addr, err := id.ParseAddress(caller)
	if err != nil {
		fatalf("Invalid caller: %v", err)
	}

	svc := token.NewService(signingKey, defaultIssuer, ttl)
	signed, err := svc.Generate(addr)
	if err != nil {
		fatalf("Error generating token: %v", err)
	}

	if jsonOutput {
		printJSON(map[string]string{
			"token":      signed,
			"caller":     addr.String(),
			"expires_in": ttl.String(),
			"header":     "Authorization: Bearer <token>",
		})
		return
	}
	fmt.Println("Caller Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Caller:     %s\n", addr)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(signed)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/...")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("Error encoding JSON: %v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
