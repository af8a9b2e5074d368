// Command lanyard encodes share tokens and renders previews and cards
// offline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/youruser/lanyard/internal/assets"
	"github.com/youruser/lanyard/internal/capture"
	"github.com/youruser/lanyard/internal/config"
	"github.com/youruser/lanyard/internal/control"
	"github.com/youruser/lanyard/internal/identity"
	imagepkg "github.com/youruser/lanyard/internal/image"
	"github.com/youruser/lanyard/internal/logger"
	"github.com/youruser/lanyard/internal/roster"
	"github.com/youruser/lanyard/internal/surface"
	"github.com/youruser/lanyard/internal/token"
	"github.com/youruser/lanyard/internal/util"
)

const usage = `usage: lanyard <command> [flags]

commands:
  encode   -username NAME [-variant dark|light]   print a share token
  decode   TOKEN                                  print the identity in a token
  preview  [-u TOKEN] [-preset og|social] -out FILE
  card     -name NAME [-out FILE] [-texture FILE] [-badge FILE]
  batch    -roster CSV -dir DIR [-variant dark|light] [-match WORDS]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "encode":
		err = runEncode(args)
	case "decode":
		err = runDecode(args)
	case "preview":
		err = runPreview(args)
	case "card":
		err = runCard(args)
	case "batch":
		err = runBatch(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "lanyard:", err)
		os.Exit(1)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	path := fs.String("config", "", "path to the TOML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.Load(*path)
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	username := fs.String("username", "", "attendee name")
	variant := fs.String("variant", string(identity.Dark), "dark or light")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	v, ok := identity.ParseVariant(*variant)
	if !ok {
		return fmt.Errorf("variant must be dark or light, got %q", *variant)
	}
	tok := token.Encode(identity.Identity{Username: *username, Variant: v})
	fmt.Println(tok)
	fmt.Println(cfg.ShareURL("/lanyard?u=" + tok))
	return nil
}

func runDecode(args []string) error {
	if len(args) != 1 {
		return errors.New("decode takes exactly one token")
	}
	id, ok := token.Decode(args[0])
	if !ok {
		return errors.New("not a lanyard token")
	}
	fmt.Printf("username=%q variant=%s\n", id.Username, id.Variant)
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	tok := fs.String("u", "", "share token; empty renders the default attendee")
	preset := fs.String("preset", imagepkg.PresetOG.Name, "og or social")
	out := fs.String("out", "", "output PNG path")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-out is required")
	}
	p, ok := imagepkg.PresetByName(*preset)
	if !ok {
		return fmt.Errorf("unknown preset %q", *preset)
	}
	fonts, err := imagepkg.LoadFonts(cfg.Fonts.Regular, cfg.Fonts.Bold)
	if err != nil {
		return err
	}
	b, err := imagepkg.NewRenderer(fonts, cfg.Event.Event()).RenderPNG(token.DecodePtr(*tok), p)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(*out, b, 0o644)
}

// runCard drives the whole card pipeline once: capture the texture, mount it
// on the scene and export the composited still.
func runCard(args []string) error {
	fs := flag.NewFlagSet("card", flag.ContinueOnError)
	name := fs.String("name", "", "name printed on the card")
	variant := fs.String("variant", string(identity.Dark), "badge theme, dark or light")
	out := fs.String("out", "", "export PNG path; defaults to the download name")
	texturePath := fs.String("texture", "", "also write the captured texture")
	badgePath := fs.String("badge", "", "also write a printable badge with a share QR code")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	lg, closer := logger.New("", logger.ParseLevel(cfg.Log.Level), cfg.Log.MaxSizeMB)
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Capture.Timeout+30*time.Second)
	defer cancel()

	bg := assets.NewBackground(cfg.Assets.Background, lg)
	bg.Init(ctx)

	fonts, err := imagepkg.LoadFonts(cfg.Fonts.Regular, cfg.Fonts.Bold)
	if err != nil {
		return err
	}
	icon, err := assets.LoadIcon(ctx, cfg.Assets.Icon)
	if err != nil {
		lg.Warn("icon unavailable", "src", cfg.Assets.Icon, "error", err)
	}

	host := surface.NewHost(surface.NewSceneFactory(cfg.Viewport.Viewport()), lg)
	defer host.Close()
	var texture capture.Artifact
	svc := capture.NewService(capture.NewNativeRasterizer(fonts, icon, lg), func(a capture.Artifact) {
		texture = a
		host.Apply(surface.Texture{Image: a.Image, Generation: a.Generation})
	}, lg)

	co := control.New(svc, host, cfg.Export.Export(), "", lg)
	if !co.Edit(*name) {
		return fmt.Errorf("name longer than %d characters", control.MaxCharacters)
	}
	captureCtx, cancelCapture := context.WithTimeout(ctx, cfg.Capture.Timeout)
	co.Apply(captureCtx)
	cancelCapture()

	bgImg, _ := bg.Wait(ctx)
	img, filename, ok := co.Export(bgImg)
	if !ok {
		return errors.New("nothing to export")
	}
	if *out == "" {
		*out = filename
	}
	if err := writePNG(*out, img); err != nil {
		return err
	}
	lg.Info("card exported", "path", *out, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	if *texturePath != "" && texture.PNG != nil {
		if err := util.WriteFileAtomic(*texturePath, texture.PNG, 0o644); err != nil {
			return err
		}
	}
	if *badgePath != "" && texture.Image != nil {
		v, ok := identity.ParseVariant(*variant)
		if !ok {
			v = identity.Dark
		}
		id := identity.OrDefault(&identity.Identity{Username: strings.TrimSpace(*name), Variant: v})
		qr, err := imagepkg.GenerateQRImage(cfg.ShareURL("/lanyard?u="+token.Encode(id)), 512)
		if err != nil {
			lg.Warn("badge qr failed", "error", err)
		}
		if err := writePNG(*badgePath, imagepkg.ComposeBadge(texture.Image, qr, identity.ThemeFor(v).Background)); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	b, err := imagepkg.EncodePNG(img)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(filepath.Clean(path), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var unsafePath = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// runBatch renders both previews for every attendee of a roster and writes
// a manifest of their share links.
func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	rosterPath := fs.String("roster", "", "roster CSV with a name and an optional variant column")
	dir := fs.String("dir", "previews", "output directory")
	variant := fs.String("variant", "", "only render this variant")
	match := fs.String("match", "", "only render names containing all of these words")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *rosterPath == "" {
		return errors.New("-roster is required")
	}
	attendees, err := roster.LoadFile(*rosterPath)
	if err != nil {
		return err
	}
	opt := roster.FilterOptions{FreeWords: *match}
	if *variant != "" {
		v, ok := identity.ParseVariant(*variant)
		if !ok {
			return fmt.Errorf("variant must be dark or light, got %q", *variant)
		}
		opt.Variants = []identity.Variant{v}
	}
	entries := roster.Entries(roster.Filter(attendees, opt), func(tok string) string {
		return cfg.ShareURL("/lanyard?u=" + tok)
	})

	fonts, err := imagepkg.LoadFonts(cfg.Fonts.Regular, cfg.Fonts.Bold)
	if err != nil {
		return err
	}
	renderer := imagepkg.NewRenderer(fonts, cfg.Event.Event())

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range entries {
		base := fmt.Sprintf("%03d-%s", i+1, strings.Trim(unsafePath.ReplaceAllString(e.Name, "_"), "_"))
		for _, p := range []imagepkg.Preset{imagepkg.PresetOG, imagepkg.PresetSocial} {
			g.Go(func() error {
				id := e.Identity()
				b, err := renderer.RenderPNG(&id, p)
				if err != nil {
					return fmt.Errorf("%s: %w", e.Name, err)
				}
				return util.WriteFileAtomic(filepath.Join(*dir, base+"-"+p.Name+".png"), b, 0o644)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := util.WriteFileAtomic(filepath.Join(*dir, "manifest.tsv"), []byte(roster.ManifestText(entries)), 0o644); err != nil {
		return err
	}
	fmt.Printf("rendered %d attendees into %s\n", len(entries), *dir)
	return nil
}
