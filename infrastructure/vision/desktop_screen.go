//go:build desktop

package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"github.com/sirupsen/logrus"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

// cornerMargin is how close to a display corner the pointer must be to stop automation
const cornerMargin = 2

// DesktopScreen captures the primary display and drives the host pointer and keyboard
type DesktopScreen struct {
	bounds image.Rectangle
	pause  time.Duration
	logger *logrus.Logger
}

// NewDesktopScreen - creates a desktop screen; only a single unscaled display is supported
func NewDesktopScreen(pause time.Duration, logger *logrus.Logger) (interfaces.Screen, error) {
	if n := screenshot.NumActiveDisplays(); n != 1 {
		return nil, fmt.Errorf("%w: %d active displays", entities.ErrCoordinateFinderUnavailable, n)
	}
	if scale := robotgo.ScaleF(); scale != 0 && math.Abs(scale-1) > 0.01 {
		return nil, fmt.Errorf("%w: display scaled to %.2f", entities.ErrCoordinateFinderUnavailable, scale)
	}

	bounds := screenshot.GetDisplayBounds(0)
	logger.WithFields(logrus.Fields{
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
		"pause":  pause,
	}).Debug("Desktop screen ready")

	return &DesktopScreen{bounds: bounds, pause: pause, logger: logger}, nil
}

// Name - screen identifier used in logs
func (s *DesktopScreen) Name() string {
	return "desktop"
}

// Capture - grabs the primary display
func (s *DesktopScreen) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(s.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display: %w", err)
	}
	return img, nil
}

// Click - moves the pointer to p and clicks
func (s *DesktopScreen) Click(ctx context.Context, p entities.Point) error {
	if err := s.failsafe(ctx); err != nil {
		return err
	}
	robotgo.Move(p.X, p.Y)
	robotgo.Click("left", false)
	s.settle()
	return nil
}

// Type - clicks p, selects the existing content and types text over it
func (s *DesktopScreen) Type(ctx context.Context, p entities.Point, text string) error {
	if err := s.Click(ctx, p); err != nil {
		return err
	}
	if err := s.failsafe(ctx); err != nil {
		return err
	}
	if err := robotgo.KeyTap("a", selectAllModifier()); err != nil {
		s.logger.WithError(err).Debug("Select-all before typing failed")
	}
	robotgo.TypeStr(text)
	s.settle()
	return nil
}

// failsafe - a pointer parked in a display corner stops automation
func (s *DesktopScreen) failsafe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	x, y := robotgo.Location()
	nearX := x-s.bounds.Min.X <= cornerMargin || s.bounds.Max.X-1-x <= cornerMargin
	nearY := y-s.bounds.Min.Y <= cornerMargin || s.bounds.Max.Y-1-y <= cornerMargin
	if nearX && nearY {
		return fmt.Errorf("%w: pointer moved to a screen corner", entities.ErrOperatorInterrupt)
	}
	return nil
}

func (s *DesktopScreen) settle() {
	if s.pause > 0 {
		time.Sleep(s.pause)
	}
}

func selectAllModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
