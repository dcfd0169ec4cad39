package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

// ViewportScreen captures and drives the browser viewport through the session.
// Captured pixels may be denser than CSS pixels (device scale factor); points
// from the last capture are converted back before input is sent.
type ViewportScreen struct {
	session interfaces.BrowserSession

	mu     sync.Mutex
	scaleX float64
	scaleY float64
}

// NewViewportScreen - creates a screen bound to session
func NewViewportScreen(session interfaces.BrowserSession) *ViewportScreen {
	return &ViewportScreen{session: session, scaleX: 1, scaleY: 1}
}

// Name - screen identifier used in logs
func (s *ViewportScreen) Name() string {
	return "viewport"
}

// Capture - screenshots the viewport and records the pixel-to-CSS ratio
func (s *ViewportScreen) Capture(ctx context.Context) (image.Image, error) {
	data, err := s.session.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode viewport screenshot: %w", err)
	}

	size, err := s.session.Viewport(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scaleX, s.scaleY = 1, 1
	b := img.Bounds()
	if size.Width > 0 && size.Height > 0 {
		s.scaleX = float64(b.Dx()) / float64(size.Width)
		s.scaleY = float64(b.Dy()) / float64(size.Height)
	}
	return img, nil
}

// Click - clicks at a point of the last capture
func (s *ViewportScreen) Click(ctx context.Context, p entities.Point) error {
	return s.session.ClickAt(ctx, s.toViewport(p))
}

// Type - focuses the point of the last capture and types text
func (s *ViewportScreen) Type(ctx context.Context, p entities.Point, text string) error {
	return s.session.TypeAt(ctx, s.toViewport(p), text)
}

func (s *ViewportScreen) toViewport(p entities.Point) entities.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entities.Point{
		X: int(float64(p.X) / s.scaleX),
		Y: int(float64(p.Y) / s.scaleY),
	}
}

var _ interfaces.Screen = (*ViewportScreen)(nil)
