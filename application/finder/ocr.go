package finder

import (
	"context"
	"strings"
	"unicode/utf8"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// OCRFinder recognizes on-screen text and acts at the center of the matching fragment
type OCRFinder struct {
	screen     interfaces.Screen
	recognizer interfaces.TextRecognizer
	logger     *logrus.Logger
}

// NewOCRFinder - creates a text-recognition finder
func NewOCRFinder(screen interfaces.Screen, recognizer interfaces.TextRecognizer, logger *logrus.Logger) *OCRFinder {
	return &OCRFinder{
		screen:     screen,
		recognizer: recognizer,
		logger:     logger,
	}
}

// Kind - returns the finder kind
func (f *OCRFinder) Kind() entities.FinderKind {
	return entities.FinderOCR
}

// Attempt - captures the screen, recognizes text and acts on the best fragment
func (f *OCRFinder) Attempt(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Target, bool, error) {
	log := f.logger.WithFields(logrus.Fields{"finder": entities.FinderOCR, "text": req.OCRText, "screen": f.screen.Name()})

	img, err := f.screen.Capture(ctx)
	if err != nil {
		if entities.IsFatal(ctx, err) {
			return entities.Target{}, false, err
		}
		log.WithError(err).Warn("screen capture failed")
		return entities.Target{}, false, nil
	}

	fragments, err := f.recognizer.Recognize(ctx, img)
	if err != nil {
		if entities.IsFatal(ctx, err) {
			return entities.Target{}, false, err
		}
		log.WithError(err).Warn("text recognition failed")
		return entities.Target{}, false, nil
	}

	fragment, ok := BestFragment(fragments, req.OCRText)
	if !ok {
		log.WithField("fragments", len(fragments)).Debug("text not found")
		return entities.Target{}, false, nil
	}

	point := fragment.Box.Center()
	if err := actAt(ctx, f.screen, point, action); err != nil {
		if entities.IsFatal(ctx, err) {
			return entities.Target{}, false, err
		}
		log.WithError(err).Warn("synthetic input failed")
		return entities.Target{}, false, nil
	}

	log.WithFields(logrus.Fields{"fragment": fragment.Text, "point": point.String()}).Debug("acted on recognized text")
	return entities.Target{Kind: entities.FinderOCR, Query: fragment.Text, Point: &point, Score: fragment.Confidence}, true, nil
}

// BestFragment picks the fragment matching target: an exact match first, then a
// fragment containing target, then a fragment of at least two runes contained in
// target. Ties go to the higher confidence.
func BestFragment(fragments []entities.TextFragment, target string) (entities.TextFragment, bool) {
	want := normalizeText(target)
	if want == "" {
		return entities.TextFragment{}, false
	}

	best := -1
	bestRank := 0
	for i, fragment := range fragments {
		got := normalizeText(fragment.Text)
		if got == "" || fragment.Box.Empty() {
			continue
		}

		rank := 0
		switch {
		case got == want:
			rank = 3
		case strings.Contains(got, want):
			rank = 2
		case utf8.RuneCountInString(got) >= 2 && strings.Contains(want, got):
			rank = 1
		}
		if rank == 0 {
			continue
		}
		if rank > bestRank || (rank == bestRank && fragment.Confidence > fragments[best].Confidence) {
			best = i
			bestRank = rank
		}
	}

	if best < 0 {
		return entities.TextFragment{}, false
	}
	return fragments[best], true
}

// normalizeText - composes Hangul and strips whitespace so recognizer output compares with typed targets
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), "")
}

var _ interfaces.Finder = (*OCRFinder)(nil)
