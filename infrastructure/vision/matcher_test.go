package vision

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"hometax_automation/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noise returns a blocky random texture resembling rendered UI
func noise(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += 3 {
		for bx := 0; bx < w; bx += 3 {
			c := color.RGBA{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255}
			for y := by; y < by+3 && y < h; y++ {
				for x := bx; x < bx+3 && x < w; x++ {
					img.Set(x, y, c)
				}
			}
		}
	}
	return img
}

// crop copies a region and perturbs each channel by up to +-jitter
func crop(src *image.RGBA, rect image.Rectangle, jitter int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	shift := func(v uint8) uint8 {
		if jitter == 0 {
			return v
		}
		n := int(v) + r.Intn(2*jitter+1) - jitter
		if n < 0 {
			n = 0
		}
		if n > 255 {
			n = 255
		}
		return uint8(n)
	}
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			c := src.RGBAAt(rect.Min.X+x, rect.Min.Y+y)
			out.SetRGBA(x, y, color.RGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: 255})
		}
	}
	return out
}

func TestMatcher_FindsReferenceAboveThreshold(t *testing.T) {
	screen := noise(200, 120, 1)
	needle := crop(screen, image.Rect(37, 21, 61, 37), 8, 2)

	match, ok := NewMatcher().Find(screen, needle, entities.DefaultImageThreshold)

	require.True(t, ok)
	assert.GreaterOrEqual(t, match.Score, 0.9)
	assert.Equal(t, entities.Rect{X: 37, Y: 21, Width: 24, Height: 16}, match.Region)
	assert.Equal(t, entities.Point{X: 49, Y: 29}, match.Region.Center())
}

func TestMatcher_LargeTemplateUsesCoarseSearch(t *testing.T) {
	screen := noise(320, 200, 3)
	needle := crop(screen, image.Rect(101, 63, 165, 103), 4, 4)
	require.Equal(t, 4, pyramidFactor(toGray(needle)))

	match, ok := NewMatcher().Find(screen, needle, 0.8)

	require.True(t, ok)
	assert.Equal(t, entities.Rect{X: 101, Y: 63, Width: 64, Height: 40}, match.Region)
}

func TestMatcher_CoarseSearchFindsEveryGridPhase(t *testing.T) {
	screen := noise(320, 200, 13)
	h := toGray(screen)

	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 4; dx++ {
			x, y := 100+dx, 60+dy
			n := toGray(crop(screen, image.Rect(x, y, x+64, y+40), 4, int64(dx*4+dy)))
			require.Equal(t, 4, pyramidFactor(n))

			got := NewMatcher().coarseToFine(h, n, 4, 0.8)

			assert.Equal(t, x, got.x, "phase %d,%d", dx, dy)
			assert.Equal(t, y, got.y, "phase %d,%d", dx, dy)
			assert.GreaterOrEqual(t, got.score, 0.8)
		}
	}
}

func TestMatcher_AbsentLargeReference(t *testing.T) {
	screen := noise(320, 200, 17)
	needle := noise(64, 40, 18)
	require.Equal(t, 4, pyramidFactor(toGray(needle)))

	_, ok := NewMatcher().Find(screen, needle, 0.8)

	assert.False(t, ok)
}

func TestGrayCrop(t *testing.T) {
	g := grayImage{w: 3, h: 2, pix: []float64{1, 2, 3, 4, 5, 6}}

	c := g.crop(1, 1)
	assert.Equal(t, grayImage{w: 2, h: 1, pix: []float64{5, 6}}, c)
	assert.Equal(t, g, g.crop(0, 0))
	assert.Zero(t, g.crop(3, 0).w)
}

func TestMatcher_AbsentReference(t *testing.T) {
	screen := noise(160, 100, 5)
	needle := noise(20, 20, 99)

	_, ok := NewMatcher().Find(screen, needle, 0.8)

	assert.False(t, ok)
}

func TestMatcher_DegenerateInputs(t *testing.T) {
	m := NewMatcher()
	screen := noise(40, 40, 7)

	t.Run("needle larger than screen", func(t *testing.T) {
		_, ok := m.Find(screen, noise(50, 10, 8), 0.5)
		assert.False(t, ok)
	})

	t.Run("flat needle", func(t *testing.T) {
		flat := image.NewUniform(color.White)
		needle := image.NewRGBA(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				needle.Set(x, y, flat.C)
			}
		}
		_, ok := m.Find(screen, needle, 0.5)
		assert.False(t, ok)
	})
}

func TestMatcher_OffsetBounds(t *testing.T) {
	base := noise(120, 80, 11)
	needle := crop(base, image.Rect(50, 30, 70, 42), 0, 0)
	sub := base.SubImage(image.Rect(20, 10, 120, 80))

	match, ok := NewMatcher().Find(sub, needle, 0.95)

	require.True(t, ok)
	assert.Equal(t, 50, match.Region.X)
	assert.Equal(t, 30, match.Region.Y)
}
