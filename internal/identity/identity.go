// Package identity holds the attendee identity carried by lanyard tokens and
// the two fixed render themes derived from it.
package identity

import "image/color"

// Variant selects one of the two card themes.
type Variant string

const (
	Dark  Variant = "dark"
	Light Variant = "light"
)

// ParseVariant accepts exactly "dark" or "light".
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case Dark:
		return Dark, true
	case Light:
		return Light, true
	}
	return "", false
}

// DefaultUsername is shown when a request carries no usable identity.
const DefaultUsername = "ATTENDEE"

// Identity is the payload of a lanyard token.
type Identity struct {
	Username string `json:"username"`
	Variant  Variant `json:"variant"`
}

// Default is the fallback identity for previews.
var Default = Identity{Username: DefaultUsername, Variant: Dark}

// OrDefault returns id, or Default when id is nil. An empty username keeps
// the variant but takes the default name.
func OrDefault(id *Identity) Identity {
	if id == nil {
		return Default
	}
	out := *id
	if out.Username == "" {
		out.Username = DefaultUsername
	}
	if _, ok := ParseVariant(string(out.Variant)); !ok {
		out.Variant = Dark
	}
	return out
}

// Theme is the palette a variant renders with.
type Theme struct {
	Background color.NRGBA
	Foreground color.NRGBA
	Muted      color.NRGBA
	Accent     color.NRGBA
	Border     color.NRGBA
}

var (
	darkTheme = Theme{
		Background: rgb(0x0a, 0x0a, 0x0a),
		Foreground: rgb(0xff, 0xff, 0xff),
		Muted:      rgb(0x87, 0x87, 0x87),
		Accent:     rgb(0x1a, 0x1a, 0x1a),
		Border:     rgb(0x33, 0x33, 0x33),
	}
	lightTheme = Theme{
		Background: rgb(0xfa, 0xfa, 0xfa),
		Foreground: rgb(0x00, 0x00, 0x00),
		Muted:      rgb(0x66, 0x66, 0x66),
		Accent:     rgb(0xf0, 0xf0, 0xf0),
		Border:     rgb(0xdd, 0xdd, 0xdd),
	}
)

// ThemeFor resolves the palette of v. Anything but Light renders dark.
func ThemeFor(v Variant) Theme {
	if v == Light {
		return lightTheme
	}
	return darkTheme
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
