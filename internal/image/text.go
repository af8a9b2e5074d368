package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"unicode/utf8"

	tdfont "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fonts is the regular/bold pair every renderer draws with.
type Fonts struct {
	Regular *opentype.Font
	Bold    *opentype.Font
}

// DefaultFonts returns the embedded Go Mono family.
func DefaultFonts() (*Fonts, error) {
	regular, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomono: %w", err)
	}
	bold, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse gomonobold: %w", err)
	}
	return &Fonts{Regular: regular, Bold: bold}, nil
}

// LoadFonts reads TTF, OTF or WOFF2 files. An empty path keeps the embedded
// face for that weight.
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	fonts, err := DefaultFonts()
	if err != nil {
		return nil, err
	}
	if regularPath != "" {
		if fonts.Regular, err = loadFontFile(regularPath); err != nil {
			return nil, err
		}
	}
	if boldPath != "" {
		if fonts.Bold, err = loadFontFile(boldPath); err != nil {
			return nil, err
		}
	}
	return fonts, nil
}

func loadFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	if isWOFF2(path, data) {
		if data, err = tdfont.ToSFNT(data); err != nil {
			return nil, fmt.Errorf("convert woff2 %s: %w", path, err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// isWOFF2 checks the extension or the "wOF2" magic.
func isWOFF2(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".woff2") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "wOF2"
}

// faceSet caches faces for the duration of one render. Faces are not safe
// for concurrent use, so a set is never shared between renders.
type faceSet struct {
	fonts *Fonts
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

func newFaceSet(f *Fonts) *faceSet {
	return &faceSet{fonts: f, faces: make(map[faceKey]font.Face)}
}

func (s *faceSet) get(bold bool, size float64) (font.Face, error) {
	k := faceKey{bold, size}
	if f, ok := s.faces[k]; ok {
		return f, nil
	}
	src := s.fonts.Regular
	if bold {
		src = s.fonts.Bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	s.faces[k] = f
	return f, nil
}

func (s *faceSet) Close() {
	for _, f := range s.faces {
		f.Close()
	}
}

// Upper applies Unicode-aware uppercasing, like CSS text-transform.
func Upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// measure returns the advance width of s in pixels, with tracking added
// after every glyph.
func measure(face font.Face, s string, tracking float64) float64 {
	var w fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			w += face.Kern(prev, r)
		}
		adv, _ := face.GlyphAdvance(r)
		w += adv
		prev = r
	}
	return fixToFloat(w) + tracking*float64(utf8.RuneCountInString(s))
}

// baseline returns the baseline y of a line box starting at top.
func baseline(face font.Face, top, lineHeight float64) float64 {
	m := face.Metrics()
	asc, desc := fixToFloat(m.Ascent), fixToFloat(m.Descent)
	return top + (lineHeight-(asc+desc))/2 + asc
}

func drawText(dst draw.Image, face font.Face, x, y float64, s string, tracking float64, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFix(x), Y: floatToFix(y)},
	}
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			d.Dot.X += face.Kern(prev, r)
		}
		d.DrawString(string(r))
		d.Dot.X += floatToFix(tracking)
		prev = r
	}
}

// wrap breaks s into lines no wider than maxWidth. Words are kept whole
// when they fit on a line; longer words break between characters.
func wrap(face font.Face, s string, maxWidth, tracking float64) []string {
	var lines []string
	var cur string
	fits := func(t string) bool { return measure(face, t, tracking) <= maxWidth }

	for _, word := range strings.Fields(s) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if fits(candidate) {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		if fits(word) {
			cur = word
			continue
		}
		for _, r := range word {
			if next := cur + string(r); cur == "" || fits(next) {
				cur = next
				continue
			}
			lines = append(lines, cur)
			cur = string(r)
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func fixToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFix(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
