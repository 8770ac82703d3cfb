// Package summary renders the post-refresh summary image.
package summary

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mkoziy/countryrates/internal/models"
)

// DefaultPath is where the image lives unless configured otherwise.
const DefaultPath = "cache/summary.png"

const (
	width  = 1000
	height = 600
	// Text is drawn on a half-size canvas and scaled up so the bitmap face
	// stays legible.
	scale = 2
)

// Snapshot is the ranked view handed over after a refresh commits.
type Snapshot struct {
	Total       int
	Top         []*models.Country
	RefreshedAt time.Time
}

// Generator produces the summary artifact from a snapshot.
type Generator interface {
	Generate(ctx context.Context, snap Snapshot) error
}

// FileGenerator writes a PNG to a fixed path, replacing it atomically.
type FileGenerator struct {
	path string
}

// NewFileGenerator returns a generator writing to path.
func NewFileGenerator(path string) *FileGenerator {
	if path == "" {
		path = DefaultPath
	}
	return &FileGenerator{path: path}
}

// Path returns the image location.
func (g *FileGenerator) Path() string {
	return g.path
}

// Exists reports whether an image has been generated.
func (g *FileGenerator) Exists() bool {
	info, err := os.Stat(g.path)
	return err == nil && !info.IsDir()
}

// Generate renders snap and swaps it into place.
func (g *FileGenerator) Generate(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := png.Encode(tmp, Render(snap)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return fmt.Errorf("replace summary: %w", err)
	}
	return nil
}

// Lines returns the text content of the summary, one entry per drawn line.
func Lines(snap Snapshot) []string {
	lines := []string{
		"Countries Summary",
		"",
		fmt.Sprintf("Total countries: %d", snap.Total),
		fmt.Sprintf("Last refreshed: %s", snap.RefreshedAt.UTC().Format(time.RFC3339)),
		"",
		"Top 5 countries by estimated GDP",
	}
	for i, c := range snap.Top {
		gdp := "n/a"
		if c.HasEstimate() {
			gdp = humanize.CommafWithDigits(*c.EstimatedGDP, 2)
		}
		lines = append(lines, fmt.Sprintf("  %d. %s - %s", i+1, c.Name, gdp))
	}
	return lines
}

// Render draws the summary onto a white canvas.
func Render(snap Snapshot) image.Image {
	small := image.NewRGBA(image.Rect(0, 0, width/scale, height/scale))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}),
		Face: face,
	}

	lineHeight := face.Metrics().Height.Ceil() + 4
	y := 30
	for _, line := range Lines(snap) {
		d.Dot = fixed.P(20, y)
		d.DrawString(line)
		y += lineHeight
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}
