//go:build !ocr

package ocr

import (
	"errors"

	"github.com/sirupsen/logrus"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

// NewRecognizer - OCR is not compiled in
func NewRecognizer(opts Options, logger *logrus.Logger) (interfaces.TextRecognizer, error) {
	return nil, &entities.MissingDependencyError{
		Name:    "tesseract OCR",
		Install: installHint,
		Err:     errors.New("built without the ocr tag"),
	}
}
