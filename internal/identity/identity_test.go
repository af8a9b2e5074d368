package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in     string
		want   Variant
		wantOK bool
	}{
		{"dark", Dark, true},
		{"light", Light, true},
		{"Dark", "", false},
		{"", "", false},
		{"sepia", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseVariant(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThemeFor(t *testing.T) {
	dark := ThemeFor(Dark)
	light := ThemeFor(Light)

	assert.Equal(t, rgb(0x0a, 0x0a, 0x0a), dark.Background)
	assert.Equal(t, rgb(0xff, 0xff, 0xff), dark.Foreground)
	assert.Equal(t, rgb(0x87, 0x87, 0x87), dark.Muted)
	assert.Equal(t, rgb(0x1a, 0x1a, 0x1a), dark.Accent)

	assert.Equal(t, rgb(0xfa, 0xfa, 0xfa), light.Background)
	assert.Equal(t, rgb(0x00, 0x00, 0x00), light.Foreground)
	assert.Equal(t, rgb(0x66, 0x66, 0x66), light.Muted)
	assert.Equal(t, rgb(0xf0, 0xf0, 0xf0), light.Accent)

	assert.NotEqual(t, dark, light)
	// no third palette
	assert.Equal(t, dark, ThemeFor("sepia"))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, Default, OrDefault(nil))
	assert.Equal(t, Identity{Username: "ATTENDEE", Variant: Light}, OrDefault(&Identity{Variant: Light}))
	assert.Equal(t, Identity{Username: "ada", Variant: Light}, OrDefault(&Identity{Username: "ada", Variant: Light}))
}
