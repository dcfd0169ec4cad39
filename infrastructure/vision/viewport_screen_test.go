package vision

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hometax_automation/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scaledSession renders screenshots at twice the CSS viewport size
type scaledSession struct {
	viewport entities.Size
	shot     []byte
	clicks   []entities.Point
	typed    map[entities.Point]string
}

func newScaledSession(t *testing.T, w, h, scale int) *scaledSession {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))))
	return &scaledSession{
		viewport: entities.Size{Width: w, Height: h},
		shot:     buf.Bytes(),
		typed:    map[entities.Point]string{},
	}
}

func (s *scaledSession) Navigate(ctx context.Context, url string) error { return nil }
func (s *scaledSession) TryQuery(ctx context.Context, q entities.StructuralQuery, a entities.Action) (bool, error) {
	return false, nil
}
func (s *scaledSession) TryLinkText(ctx context.Context, text string, a entities.Action) (bool, error) {
	return false, nil
}
func (s *scaledSession) Screenshot(ctx context.Context) ([]byte, error) { return s.shot, nil }
func (s *scaledSession) Viewport(ctx context.Context) (entities.Size, error) {
	return s.viewport, nil
}
func (s *scaledSession) ClickAt(ctx context.Context, p entities.Point) error {
	s.clicks = append(s.clicks, p)
	return nil
}
func (s *scaledSession) TypeAt(ctx context.Context, p entities.Point, text string) error {
	s.typed[p] = text
	return nil
}
func (s *scaledSession) PageInfo(ctx context.Context) (entities.PageInfo, error) {
	return entities.PageInfo{}, nil
}
func (s *scaledSession) SwitchToPopup(ctx context.Context, timeout time.Duration) (bool, error) {
	return false, nil
}
func (s *scaledSession) ClosePopup(ctx context.Context) error { return nil }
func (s *scaledSession) Close() error                         { return nil }

func TestViewportScreen_ConvertsScreenshotPixels(t *testing.T) {
	ctx := context.Background()
	session := newScaledSession(t, 400, 300, 2)
	screen := NewViewportScreen(session)

	img, err := screen.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	require.NoError(t, screen.Click(ctx, entities.Point{X: 200, Y: 120}))
	require.NoError(t, screen.Type(ctx, entities.Point{X: 50, Y: 51}, "20240101"))

	assert.Equal(t, []entities.Point{{X: 100, Y: 60}}, session.clicks)
	assert.Equal(t, "20240101", session.typed[entities.Point{X: 25, Y: 25}])
}

func TestViewportScreen_UnscaledBeforeCapture(t *testing.T) {
	session := newScaledSession(t, 100, 100, 1)
	screen := NewViewportScreen(session)

	require.NoError(t, screen.Click(context.Background(), entities.Point{X: 7, Y: 9}))
	assert.Equal(t, []entities.Point{{X: 7, Y: 9}}, session.clicks)
}

func TestViewportScreen_BadScreenshot(t *testing.T) {
	session := newScaledSession(t, 10, 10, 1)
	session.shot = []byte("not a png")

	_, err := NewViewportScreen(session).Capture(context.Background())
	assert.Error(t, err)
}

func TestImageLibrary_Load(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noise(12, 8, 1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "search_button.png"), buf.Bytes(), 0o644))

	lib := NewImageLibrary(dir)

	t.Run("by file name", func(t *testing.T) {
		img, err := lib.Load("search_button.png")
		require.NoError(t, err)
		assert.Equal(t, 12, img.Bounds().Dx())
	})

	t.Run("extension inferred", func(t *testing.T) {
		img, err := lib.Load("search_button")
		require.NoError(t, err)
		assert.Equal(t, 8, img.Bounds().Dy())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := lib.Load("popup_close")
		assert.ErrorContains(t, err, "popup_close")
	})
}
