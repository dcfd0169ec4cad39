package finder

import (
	"context"
	"fmt"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// ImageFinder matches a reference image against a screen capture and acts at the match center
type ImageFinder struct {
	screen  interfaces.Screen
	library interfaces.ImageLibrary
	matcher interfaces.ImageMatcher
	logger  *logrus.Logger
}

// NewImageFinder - creates a reference-image finder
func NewImageFinder(screen interfaces.Screen, library interfaces.ImageLibrary, matcher interfaces.ImageMatcher, logger *logrus.Logger) *ImageFinder {
	return &ImageFinder{
		screen:  screen,
		library: library,
		matcher: matcher,
		logger:  logger,
	}
}

// Kind - returns the finder kind
func (f *ImageFinder) Kind() entities.FinderKind {
	return entities.FinderImage
}

// Attempt - captures the screen once and clicks or types at the best match
func (f *ImageFinder) Attempt(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Target, bool, error) {
	log := f.logger.WithFields(logrus.Fields{"finder": entities.FinderImage, "image": req.Image.Name, "screen": f.screen.Name()})

	needle, err := f.library.Load(req.Image.Name)
	if err != nil {
		log.WithError(err).Debug("reference image unavailable")
		return entities.Target{}, false, nil
	}

	haystack, err := f.screen.Capture(ctx)
	if err != nil {
		if entities.IsFatal(ctx, err) {
			return entities.Target{}, false, err
		}
		log.WithError(err).Warn("screen capture failed")
		return entities.Target{}, false, nil
	}

	match, ok := f.matcher.Find(haystack, needle, req.Image.MinScore())
	if !ok {
		log.Debug("no match at or above threshold")
		return entities.Target{}, false, nil
	}

	point := match.Region.Center()
	if err := actAt(ctx, f.screen, point, action); err != nil {
		if entities.IsFatal(ctx, err) {
			return entities.Target{}, false, err
		}
		log.WithError(err).Warn("synthetic input failed")
		return entities.Target{}, false, nil
	}

	log.WithFields(logrus.Fields{"score": fmt.Sprintf("%.3f", match.Score), "point": point.String()}).Debug("acted on image match")
	return entities.Target{Kind: entities.FinderImage, Query: req.Image.Name, Point: &point, Score: match.Score}, true, nil
}

// actAt performs action on a screen coordinate
func actAt(ctx context.Context, screen interfaces.Screen, p entities.Point, action entities.Action) error {
	if action.Type == entities.ActionTypeText {
		return screen.Type(ctx, p, action.Text)
	}
	return screen.Click(ctx, p)
}

var _ interfaces.Finder = (*ImageFinder)(nil)
