package interfaces

import (
	"context"
	"image"

	"hometax_automation/domain/entities"
)

// TextRecognizer runs optical text recognition over an image
type TextRecognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]entities.TextFragment, error)
}
