// Package token packs an identity into a URL-safe opaque string and back.
//
// The encoding is obfuscation only: base64url of "v0gdl:<variant>:<username>".
// Anything that still parses after tampering is accepted.
package token

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/youruser/lanyard/internal/identity"
)

// Prefix marks a payload as a lanyard token.
const Prefix = "v0gdl"

const sep = ":"

// Encode returns the URL-safe token for id.
func Encode(id identity.Identity) string {
	payload := Prefix + sep + string(id.Variant) + sep + id.Username
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// Decode recovers the identity in s. It reports false for any input that is
// not a well-formed token and never panics.
func Decode(s string) (identity.Identity, bool) {
	if s == "" {
		return identity.Identity{}, false
	}
	// accept the standard alphabet and padded input too
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	s = strings.TrimRight(s, "=")

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(raw) {
		return identity.Identity{}, false
	}
	rest, ok := strings.CutPrefix(string(raw), Prefix+sep)
	if !ok {
		return identity.Identity{}, false
	}
	v, username, ok := strings.Cut(rest, sep)
	if !ok {
		return identity.Identity{}, false
	}
	variant, ok := identity.ParseVariant(v)
	if !ok {
		return identity.Identity{}, false
	}
	return identity.Identity{Username: username, Variant: variant}, true
}

// DecodePtr is Decode shaped for callers that fall back on nil.
func DecodePtr(s string) *identity.Identity {
	id, ok := Decode(s)
	if !ok {
		return nil
	}
	return &id
}
