package artifacts

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"memebattle/internal/memes"

	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

const (
	URLPrefix       = "/generated"
	defaultFontSize = 32
)

var ErrTemplateMissing = errors.New("template image not found")

// Renderer burns captions into a template image and stores the result as a PNG.
type Renderer struct {
	PublicDir string // root the template URLs resolve against
	OutDir    string
	face      font.Face
}

func NewRenderer(publicDir, outDir string) *Renderer {
	return &Renderer{
		PublicDir: publicDir,
		OutDir:    outDir,
		face:      basicfont.Face7x13,
	}
}

// FileName is the on-disk name of a generated artifact for a room.
func FileName(gameID, id string) string {
	return fmt.Sprintf("meme-%s-%s.png", gameID, id)
}

func (r *Renderer) Generate(ctx context.Context, gameID string, tmpl memes.Template, captions []Caption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := r.loadTemplate(tmpl)
	if err != nil {
		return "", err
	}

	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	for _, c := range captions {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		r.drawCaption(canvas, c)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	name := FileName(gameID, uuid.NewString())
	f, err := os.Create(filepath.Join(r.OutDir, name))
	if err != nil {
		return "", fmt.Errorf("creating artifact: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, canvas); err != nil {
		return "", fmt.Errorf("encoding artifact: %w", err)
	}
	return path.Join(URLPrefix, name), nil
}

func (r *Renderer) loadTemplate(tmpl memes.Template) (image.Image, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(tmpl.URL, "/"))
	f, err := os.Open(filepath.Join(r.PublicDir, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, tmpl.URL)
		}
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding template %s: %w", tmpl.URL, err)
	}
	return img, nil
}

func (r *Renderer) drawCaption(dst *image.RGBA, c Caption) {
	b := dst.Bounds()
	size := c.FontSize
	if size <= 0 {
		size = defaultFontSize
	}
	scale := float64(size) / float64(r.face.Metrics().Height.Ceil())

	x := offset(c.Left, b.Dx())
	y := offset(c.Top, b.Dy())
	maxWidth := b.Dx() - x
	if c.Width != "" {
		if w := offset(c.Width, b.Dx()); w > 0 {
			maxWidth = min(w, maxWidth)
		}
	}

	fill := parseColor(c.Color)
	for _, line := range r.wrap(c.Text, int(float64(maxWidth)/scale)) {
		glyphs := r.renderLine(line, fill)
		gb := glyphs.Bounds()
		rect := image.Rect(x, y, x+int(float64(gb.Dx())*scale), y+int(float64(gb.Dy())*scale))
		xdraw.NearestNeighbor.Scale(dst, rect, glyphs, gb, xdraw.Over, nil)
		y = rect.Max.Y
		if y >= b.Max.Y {
			return
		}
	}
}

// renderLine draws one line at the face's native size with a one pixel dark outline.
func (r *Renderer) renderLine(line string, fill color.RGBA) *image.RGBA {
	m := r.face.Metrics()
	w := font.MeasureString(r.face, line).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, w+2, m.Height.Ceil()+2))

	d := &font.Drawer{Dst: img, Face: r.face}
	outline := image.NewUniform(color.RGBA{A: 255})
	for _, off := range [][2]int{{0, 1}, {2, 1}, {1, 0}, {1, 2}} {
		d.Src = outline
		d.Dot = fixed.P(off[0], off[1]+m.Ascent.Ceil())
		d.DrawString(line)
	}
	d.Src = image.NewUniform(fill)
	d.Dot = fixed.P(1, 1+m.Ascent.Ceil())
	d.DrawString(line)
	return img
}

// wrap breaks text into lines no wider than maxWidth native pixels.
func (r *Renderer) wrap(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if maxWidth > 0 && font.MeasureString(r.face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
