// Package ocr recognizes on-screen text for the OCR finder.
// The tesseract binding needs cgo and libtesseract, so it is compiled only
// with the "ocr" build tag; without it NewRecognizer reports the missing
// dependency and the OCR finder is not registered.
package ocr

import (
	"strings"

	"hometax_automation/domain/entities"
)

// DefaultLanguages are the tesseract language packs used for portal pages
var DefaultLanguages = []string{"kor", "eng"}

// DefaultMinConfidence drops fragments tesseract is unsure about (0-100 scale)
const DefaultMinConfidence = 40.0

const installHint = "install tesseract with Korean data (e.g. apt install tesseract-ocr tesseract-ocr-kor libtesseract-dev) and rebuild with -tags ocr"

// Options configures the recognizer
type Options struct {
	Languages     []string
	MinConfidence float64
}

func (o Options) languages() []string {
	if len(o.Languages) == 0 {
		return DefaultLanguages
	}
	return o.Languages
}

// filterFragments - drops blank and low-confidence fragments
func filterFragments(fragments []entities.TextFragment, minConfidence float64) []entities.TextFragment {
	out := fragments[:0:0]
	for _, f := range fragments {
		f.Text = strings.TrimSpace(f.Text)
		if f.Text == "" || f.Box.Empty() || f.Confidence < minConfidence {
			continue
		}
		out = append(out, f)
	}
	return out
}
