// Package main generates the shared secrets medcred reads from its
// environment, and dev bearer tokens for the local identity mock.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medcred/internal/platform/config"
	"medcred/pkg/secrets"
)

const (
	// devSigningKey matches the local identity mock; tokens signed with it
	// are rejected by the real issuance service.
	devSigningKey   = "medcred-dev-identity-key"
	defaultTokenTTL = time.Hour
)

type output struct {
	Name  string            `json:"name"`
	Value string            `json:"value"`
	Extra map[string]string `json:"extra,omitempty"`
}

func main() {
	callbackCmd := flag.NewFlagSet("callback", flag.ExitOnError)
	callbackJSON := callbackCmd.Bool("json", false, "Output as JSON")

	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	adminToken := adminCmd.String("token", "", "Existing admin token to hash. Generated if empty.")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenTTL := tokenCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	tokenJSON := tokenCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var (
		out output
		err error
		js  bool
	)
	switch os.Args[1] {
	case "callback":
		_ = callbackCmd.Parse(os.Args[2:])
		out, err = callbackSecret()
		js = *callbackJSON
	case "admin":
		_ = adminCmd.Parse(os.Args[2:])
		out, err = adminSecret(*adminToken)
		js = *adminJSON
	case "token":
		_ = tokenCmd.Parse(os.Args[2:])
		out, err = devToken(*tokenTTL, time.Now())
		js = *tokenJSON
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	emit(out, js)
}

func printUsage() {
	fmt.Println(`secretgen - Generate secrets for the medcred demo

Usage:
  secretgen <command> [flags]

Commands:
  callback  Generate a CALLBACK_SECRET
  admin     Generate an admin token and the bcrypt hash to put in ADMIN_TOKEN
  token     Sign a dev access token for the local identity mock

Examples:
  secretgen callback
  secretgen admin -token "my-admin-token" -json
  secretgen token -ttl 10m`)
}

func callbackSecret() (output, error) {
	v, err := secrets.Generate()
	if err != nil {
		return output{}, err
	}
	return output{Name: "CALLBACK_SECRET", Value: v}, nil
}

func adminSecret(token string) (output, error) {
	if token == "" {
		generated, err := secrets.Generate()
		if err != nil {
			return output{}, err
		}
		token = generated
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		return output{}, err
	}
	return output{
		Name:  "ADMIN_TOKEN",
		Value: hash,
		Extra: map[string]string{"header": "X-Admin-Token: " + token},
	}, nil
}

// devToken signs a bearer shaped like a managed identity token. Only the
// exp claim matters to medcred, which reads it without verifying.
func devToken(ttl time.Duration, now time.Time) (output, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "medcred-identity-mock",
		Audience:  jwt.ClaimStrings{config.VerifiedIDResource},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(devSigningKey))
	if err != nil {
		return output{}, fmt.Errorf("sign token: %w", err)
	}
	return output{
		Name:  "access_token",
		Value: signed,
		Extra: map[string]string{"expires_on": fmt.Sprint(now.Add(ttl).Unix())},
	}, nil
}

func emit(out output, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Printf("%s=%s\n", out.Name, out.Value)
	for k, v := range out.Extra {
		fmt.Printf("  %s: %s\n", k, v)
	}
}
