package clearlydefined

import (
	"os"
	"strings"
)

type TokenSource string

const (
	TokenSourceNone     TokenSource = ""
	TokenSourceExplicit TokenSource = "explicit"
	TokenSourceEnv      TokenSource = "env:CLEARLYDEFINED_TOKEN"
)

// TokenEnv is read when no token is given on the command line.
const TokenEnv = "CLEARLYDEFINED_TOKEN"

// ResolveToken picks the access token.
//
// Precedence:
//  1. provided (if non-empty)
//  2. CLEARLYDEFINED_TOKEN env var
//
// The API is public, so an empty result is not an error. It never prints the token.
func ResolveToken(provided string) (string, TokenSource) {
	if tok := strings.TrimSpace(provided); tok != "" {
		return tok, TokenSourceExplicit
	}
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return env, TokenSourceEnv
	}
	return "", TokenSourceNone
}
