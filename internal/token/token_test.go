package token

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/lanyard/internal/identity"
)

func TestRoundTrip(t *testing.T) {
	names := []string{
		"ADA",
		"a",
		"Grace Hopper",
		"name:with:colons",
		"ñandú ☃ 名前",
		"12345678901234567890",
		"??>>~~ spaces  ",
		"",
	}
	for _, v := range []identity.Variant{identity.Dark, identity.Light} {
		for _, n := range names {
			id := identity.Identity{Username: n, Variant: v}
			tok := Encode(id)
			assert.NotContains(t, tok, "+")
			assert.NotContains(t, tok, "/")
			assert.NotContains(t, tok, "=")

			got, ok := Decode(tok)
			require.True(t, ok, "decode %q", tok)
			assert.Equal(t, id, got)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	id := identity.Identity{Username: "ADA", Variant: identity.Light}
	assert.Equal(t, Encode(id), Encode(id))
	assert.Equal(t, "djBnZGw6bGlnaHQ6QURB", Encode(id))
}

func TestDecodeFailsClosed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "not-base64-!!"},
		{"wrong prefix", enc("nope:dark:ADA")},
		{"prefix without delimiter", enc("v0gdl")},
		{"missing variant delimiter", enc("v0gdl:dark")},
		{"unknown variant", enc("v0gdl:sepia:ADA")},
		{"uppercase variant", enc("v0gdl:DARK:ADA")},
		{"empty variant", enc("v0gdl::ADA")},
		{"invalid utf8", base64.RawURLEncoding.EncodeToString([]byte{'v', '0', 0xff, 0xfe})},
		{"truncated", Encode(identity.Identity{Username: "ADA", Variant: identity.Dark})[:3]},
		{"whitespace", "   "},
		{"single char", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := Decode(tt.input)
				assert.False(t, ok)
			})
			assert.Nil(t, DecodePtr(tt.input))
		})
	}
}

func TestDecodeAcceptsPaddedStandardAlphabet(t *testing.T) {
	id := identity.Identity{Username: "ü>?", Variant: identity.Dark}
	std := base64.StdEncoding.EncodeToString([]byte("v0gdl:dark:ü>?"))
	require.True(t, strings.ContainsAny(std, "+/="))

	got, ok := Decode(std)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestDecodeArbitraryInputNeverPanics(t *testing.T) {
	inputs := []string{"====", "-_-_", "\x00\x01", strings.Repeat("A", 4097), "djBnZGw6", "%%%", "djBnZGw6ZGFyazo"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Decode(in) })
	}
}
