package interfaces

import (
	"context"
	"image"

	"hometax_automation/domain/entities"
)

// Screen is a capturable surface that accepts synthetic input at image coordinates
type Screen interface {
	// Name identifies the screen in logs
	Name() string

	// Capture returns the current contents of the screen
	Capture(ctx context.Context) (image.Image, error)

	// Click clicks at a point of the last captured image
	Click(ctx context.Context, p entities.Point) error

	// Type focuses the point and replaces the field content with text
	Type(ctx context.Context, p entities.Point, text string) error
}

// ImageMatcher searches a reference image inside a larger one
type ImageMatcher interface {
	Find(haystack, needle image.Image, threshold float64) (entities.Match, bool)
}

// ImageLibrary loads reference images by name
type ImageLibrary interface {
	Load(name string) (image.Image, error)
}
