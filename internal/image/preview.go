package imagepkg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/youruser/lanyard/internal/identity"
)

// Preset fixes the pixel size of a social preview. Every layout length is
// the OG length multiplied by Scale.
type Preset struct {
	Name   string
	Width  int
	Height int
	Scale  float64
}

var (
	PresetOG     = Preset{Name: "og", Width: 1200, Height: 630, Scale: 1}
	PresetSocial = Preset{Name: "social", Width: 1200, Height: 600, Scale: 0.875}
)

// PresetByName looks up "og" or "social".
func PresetByName(name string) (Preset, bool) {
	switch name {
	case PresetOG.Name:
		return PresetOG, true
	case PresetSocial.Name, "twitter":
		return PresetSocial, true
	}
	return Preset{}, false
}

// Event is the static branding printed on every preview.
type Event struct {
	Title   string
	Tagline string
	City    string
	Date    string
}

// DefaultEvent is used when no event is configured.
var DefaultEvent = Event{
	Title:   "v0 IRL",
	Tagline: "Prompt to Production",
	City:    "GUADALAJARA",
	Date:    "FEBRUARY 2026",
}

// LabelLimit is the number of characters the card corner label keeps.
const LabelLimit = 15

// CardLabel truncates a username for the card corner.
func CardLabel(username string) string {
	r := []rune(username)
	if len(r) > LabelLimit {
		return string(r[:LabelLimit]) + "..."
	}
	return username
}

// OG-scale lengths.
const (
	padding = 60.0

	titleSize     = 48.0
	titleGap      = 8.0
	taglineSize   = 20.0
	headlineSize  = 64.0
	headlineMaxW  = 500.0
	headlineGap   = 12.0
	barW          = 80.0
	barH          = 4.0
	citySize      = 28.0
	cityGap       = 4.0
	dateSize      = 20.0
	columnW       = 400.0
	strapW        = 4.0
	strapH        = 60.0
	strapGap      = 20.0
	cardW         = 280.0
	cardH         = 380.0
	cardRadius    = 16.0
	cardBorder    = 2.0
	cardPad       = 32.0
	cardCitySize  = 18.0
	cardCityGap   = 4.0
	cardDateSize  = 14.0
	cellSize      = 32.0
	cellGap       = 8.0
	cellRadius    = 4.0
	patternSize   = 120.0
	labelSize     = 16.0
	lineNormal    = 1.2
	lineHeadline  = 1.1
	cellOpacity   = 0.3
	patternCells  = 9
	patternPerRow = 3
)

// TextRun is one positioned line of text.
type TextRun struct {
	Text     string
	X        float64
	Baseline float64
	Size     float64
	Bold     bool
	Tracking float64
	Color    color.NRGBA
}

// Layout is the computed drawing plan of a preview.
type Layout struct {
	Preset    Preset
	Identity  identity.Identity
	Theme     identity.Theme
	Headline  []string
	CardLabel string
	Card      Rect
	Boxes     []Box
	Texts     []TextRun
}

// Renderer draws social preview images. It holds only read-only font data
// and is safe for concurrent use.
type Renderer struct {
	fonts *Fonts
	event Event
}

// NewRenderer returns a preview renderer for the given fonts and event.
func NewRenderer(fonts *Fonts, event Event) *Renderer {
	return &Renderer{fonts: fonts, event: event}
}

// Layout computes the plan for id at p without painting it.
func (r *Renderer) Layout(id *identity.Identity, p Preset) (Layout, error) {
	fs := newFaceSet(r.fonts)
	defer fs.Close()
	return r.layout(fs, id, p)
}

// Render paints the preview of id at p. A nil id renders the default
// attendee.
func (r *Renderer) Render(id *identity.Identity, p Preset) (*image.NRGBA, error) {
	fs := newFaceSet(r.fonts)
	defer fs.Close()

	l, err := r.layout(fs, id, p)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(l.Theme.Background), image.Point{}, draw.Src)
	for _, b := range l.Boxes {
		FillBox(img, b)
	}
	for _, t := range l.Texts {
		face, err := fs.get(t.Bold, t.Size)
		if err != nil {
			return nil, err
		}
		drawText(img, face, t.X, t.Baseline, t.Text, t.Tracking, t.Color)
	}
	return img, nil
}

// RenderPNG renders and encodes the preview.
func (r *Renderer) RenderPNG(id *identity.Identity, p Preset) ([]byte, error) {
	img, err := r.Render(id, p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// line is a text block entry measured during layout.
type line struct {
	text     string
	size     float64
	bold     bool
	tracking float64
	color    color.NRGBA
	height   float64
}

func (r *Renderer) layout(fs *faceSet, ident *identity.Identity, p Preset) (Layout, error) {
	id := identity.OrDefault(ident)
	theme := identity.ThemeFor(id.Variant)
	px := func(v float64) float64 { return v * p.Scale }

	l := Layout{
		Preset:    p,
		Identity:  id,
		Theme:     theme,
		CardLabel: Upper(CardLabel(id.Username)),
	}

	// place draws one line box at top and returns its height.
	place := func(ln line, x, top float64, alignRight bool, right float64) (float64, error) {
		face, err := fs.get(ln.bold, ln.size)
		if err != nil {
			return 0, err
		}
		if alignRight {
			x = right - measure(face, ln.text, ln.tracking)
		}
		l.Texts = append(l.Texts, TextRun{
			Text:     ln.text,
			X:        x,
			Baseline: baseline(face, top, ln.height),
			Size:     ln.size,
			Bold:     ln.bold,
			Tracking: ln.tracking,
			Color:    ln.color,
		})
		return ln.height, nil
	}
	mk := func(text string, size float64, bold bool, trackingEm float64, c color.NRGBA, lh float64) line {
		size = px(size)
		return line{text: text, size: size, bold: bold, tracking: trackingEm * size, color: c, height: size * lh}
	}

	w, h := float64(p.Width), float64(p.Height)
	pad := px(padding)
	top, bottom := pad, h-pad
	colX0 := w - pad - px(columnW)

	// left column
	title := mk(r.event.Title, titleSize, true, -0.02, theme.Foreground, lineNormal)
	tagline := mk(Upper(r.event.Tagline), taglineSize, false, 0.1, theme.Muted, lineNormal)
	city := mk(Upper(r.event.City), citySize, true, 0.05, theme.Foreground, lineNormal)
	date := mk(Upper(r.event.Date), dateSize, false, 0.1, theme.Muted, lineNormal)

	topH := title.height + px(titleGap) + tagline.height
	botH := city.height + px(cityGap) + date.height

	hl := mk("", headlineSize, true, -0.02, theme.Foreground, lineHeadline)
	hlFace, err := fs.get(true, hl.size)
	if err != nil {
		return Layout{}, err
	}
	maxW := math.Min(px(headlineMaxW), colX0-pad)
	lines := wrap(hlFace, Upper(id.Username), maxW, hl.tracking)
	fixedMid := px(headlineGap) + px(barH)
	if room := max(int((bottom-top-topH-botH-fixedMid)/hl.height), 1); len(lines) > room {
		lines = lines[:room]
	}
	l.Headline = lines
	midH := float64(len(lines))*hl.height + fixedMid

	y := top
	for _, ln := range []line{title, tagline} {
		dy, err := place(ln, pad, y, false, 0)
		if err != nil {
			return Layout{}, err
		}
		y += dy + px(titleGap)
	}

	y = top + topH + (bottom-top-topH-botH-midH)/2
	for _, text := range lines {
		ln := hl
		ln.text = text
		if _, err := place(ln, pad, y, false, 0); err != nil {
			return Layout{}, err
		}
		y += hl.height
	}
	y += px(headlineGap)
	l.Boxes = append(l.Boxes, Box{Rect: Rect{pad, y, pad + px(barW), y + px(barH)}, Color: theme.Foreground})

	y = bottom - botH
	for _, ln := range []line{city, date} {
		dy, err := place(ln, pad, y, false, 0)
		if err != nil {
			return Layout{}, err
		}
		y += dy + px(cityGap)
	}

	// right column: strap and card mock centered in the column
	cx := colX0 + px(columnW)/2
	groupH := px(strapH) + px(strapGap) + px(cardH)
	gy := top + (bottom-top-groupH)/2
	l.Boxes = append(l.Boxes, Box{
		Rect:  Rect{cx - px(strapW)/2, gy, cx + px(strapW)/2, gy + px(strapH)},
		Color: theme.Muted,
	})
	cy := gy + px(strapH) + px(strapGap)
	card := Rect{cx - px(cardW)/2, cy, cx + px(cardW)/2, cy + px(cardH)}
	l.Card = card
	l.Boxes = append(l.Boxes,
		Box{Rect: card, Radius: px(cardRadius), Color: theme.Border},
		Box{Rect: card.Inset(px(cardBorder)), Radius: px(cardRadius - cardBorder), Color: theme.Accent},
	)

	inner := card.Inset(px(cardBorder) + px(cardPad))
	cardCity := mk(Upper(r.event.City), cardCitySize, true, 0.05, theme.Foreground, lineNormal)
	cardDate := mk(Upper(r.event.Date), cardDateSize, false, 0, theme.Muted, lineNormal)
	label := mk(l.CardLabel, labelSize, true, 0.02, theme.Foreground, lineNormal)

	y = inner.Y0
	for _, ln := range []line{cardCity, cardDate} {
		dy, err := place(ln, inner.X0, y, false, 0)
		if err != nil {
			return Layout{}, err
		}
		y += dy + px(cardCityGap)
	}
	infoBottom := inner.Y0 + cardCity.height + px(cardCityGap) + cardDate.height
	labelTop := inner.Y1 - label.height
	if _, err := place(label, 0, labelTop, true, inner.X1); err != nil {
		return Layout{}, err
	}

	pcx, pcy := (inner.X0+inner.X1)/2, (infoBottom+labelTop)/2
	px0, py0 := pcx-px(patternSize)/2, pcy-px(patternSize)/2
	for i := 0; i < patternCells; i++ {
		if i%2 != 0 {
			continue
		}
		col, row := float64(i%patternPerRow), float64(i/patternPerRow)
		x := px0 + col*(px(cellSize)+px(cellGap))
		y := py0 + row*(px(cellSize)+px(cellGap))
		l.Boxes = append(l.Boxes, Box{
			Rect:   Rect{x, y, x + px(cellSize), y + px(cellSize)},
			Radius: px(cellRadius),
			Color:  withAlpha(theme.Foreground, cellOpacity),
		})
	}

	return l, nil
}
