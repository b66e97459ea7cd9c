package artifacts

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"memebattle/internal/memes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, publicDir, rel string, w, h int) memes.Template {
	t.Helper()
	full := filepath.Join(publicDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	f, err := os.Create(full)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))

	return memes.Template{ID: "test", URL: "/" + rel, CaptionFields: 2}
}

func TestRenderer_Generate(t *testing.T) {
	public := t.TempDir()
	out := filepath.Join(public, "generated")
	tmpl := writeTemplate(t, public, "memes/test.png", 200, 120)

	r := NewRenderer(public, out)
	ref, err := r.Generate(context.Background(), "game1", tmpl, []Caption{
		{Text: "when the build is green", Top: "10%", Left: "5%", Color: "#ff0"},
		{Text: "but you never ran it", Top: "60%", Left: "5%", FontSize: 20, Width: "50%"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/generated/meme-game1-"), "ref = %q", ref)
	assert.True(t, strings.HasSuffix(ref, ".png"), "ref = %q", ref)

	f, err := os.Open(filepath.Join(out, path.Base(ref)))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())

	// Caption pixels differ from the flat background somewhere in the top band.
	changed := false
	for x := 0; x < 200 && !changed; x++ {
		for y := 10; y < 50; y++ {
			if r, g, b, _ := img.At(x, y).RGBA(); r>>8 != 30 || g>>8 != 60 || b>>8 != 90 {
				changed = true
				break
			}
		}
	}
	assert.True(t, changed, "caption was not drawn")
}

func TestRenderer_MissingTemplate(t *testing.T) {
	r := NewRenderer(t.TempDir(), t.TempDir())
	_, err := r.Generate(context.Background(), "g", memes.Template{URL: "/memes/none.jpg"}, nil)
	assert.ErrorIs(t, err, ErrTemplateMissing)
}

func TestRenderer_CancelledContext(t *testing.T) {
	public := t.TempDir()
	tmpl := writeTemplate(t, public, "memes/test.png", 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(public, t.TempDir()).Generate(ctx, "g", tmpl, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_Wrap(t *testing.T) {
	r := NewRenderer("", "")
	lines := r.wrap("one two three four five", 7*9)
	assert.Equal(t, []string{"one two", "three", "four five"}, lines)
	assert.Nil(t, r.wrap("   ", 100))
}

func TestOffset(t *testing.T) {
	tests := []struct {
		raw   string
		total int
		want  int
	}{
		{"20%", 500, 100},
		{"10%", 300, 30},
		{"35px", 500, 35},
		{"12", 200, 24},
		{"", 200, 0},
		{"bogus", 200, 0},
		{"150%", 200, 200},
		{"-5px", 200, 0},
	}
	for _, tt := range tests {
		if got := offset(tt.raw, tt.total); got != tt.want {
			t.Errorf("offset(%q, %d) = %d, want %d", tt.raw, tt.total, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, parseColor("#ff0000"))
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, parseColor("#ff0"))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, parseColor("Black"))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseColor("chartreuse-ish"))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, parseColor("#12"))
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	assert.Equal(t, " ", p.Text)
	assert.Equal(t, "20%", p.Top)
	assert.Equal(t, "10%", p.Left)
}

func TestPurger_KeepsStarredAndOtherRooms(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		FileName("room1", "a"),
		FileName("room1", "b"),
		FileName("room1", "c"),
		FileName("room2", "a"),
		"notes.txt",
	}
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	err := NewPurger(dir).Purge("room1", []string{"/generated/" + FileName("room1", "b")})
	require.NoError(t, err)

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	assert.False(t, exists(FileName("room1", "a")))
	assert.True(t, exists(FileName("room1", "b")), "starred artifact must survive")
	assert.False(t, exists(FileName("room1", "c")))
	assert.True(t, exists(FileName("room2", "a")), "other rooms are untouched")
	assert.True(t, exists("notes.txt"))
}

func TestPurger_MissingDir(t *testing.T) {
	err := NewPurger(filepath.Join(t.TempDir(), "nope")).Purge("room1", nil)
	assert.NoError(t, err)
}
