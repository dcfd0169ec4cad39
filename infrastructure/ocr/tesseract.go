//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

// Recognizer runs tesseract on captured screens
type Recognizer struct {
	opts   Options
	logger *logrus.Logger
}

// NewRecognizer - checks that tesseract and its language data load
func NewRecognizer(opts Options, logger *logrus.Logger) (interfaces.TextRecognizer, error) {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(opts.languages()...); err != nil {
		return nil, &entities.MissingDependencyError{Name: "tesseract language data", Install: installHint, Err: err}
	}

	logger.WithFields(logrus.Fields{
		"version":   gosseract.Version(),
		"languages": opts.languages(),
	}).Debug("Tesseract ready")

	return &Recognizer{opts: opts, logger: logger}, nil
}

// Recognize - returns words and text lines found in img
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]entities.TextFragment, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(r.opts.languages()...); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("load capture: %w", err)
	}

	origin := img.Bounds().Min
	var fragments []entities.TextFragment
	for _, level := range []gosseract.PageIteratorLevel{gosseract.RIL_TEXTLINE, gosseract.RIL_WORD} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		boxes, err := client.GetBoundingBoxes(level)
		if err != nil {
			return nil, fmt.Errorf("recognize text: %w", err)
		}
		for _, b := range boxes {
			fragments = append(fragments, entities.TextFragment{
				Text: b.Word,
				Box: entities.Rect{
					X:      origin.X + b.Box.Min.X,
					Y:      origin.Y + b.Box.Min.Y,
					Width:  b.Box.Dx(),
					Height: b.Box.Dy(),
				},
				Confidence: b.Confidence,
			})
		}
	}

	fragments = filterFragments(fragments, r.opts.MinConfidence)
	r.logger.WithField("fragments", len(fragments)).Debug("Text recognized")
	return fragments, nil
}
