package vision

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"hometax_automation/domain/interfaces"
)

// ImageLibrary loads reference images from a directory
type ImageLibrary struct {
	dir string
}

// NewImageLibrary - creates a library rooted at dir
func NewImageLibrary(dir string) *ImageLibrary {
	return &ImageLibrary{dir: dir}
}

// Load - decodes a reference image by name; a name without extension tries .png then .jpg
func (l *ImageLibrary) Load(name string) (image.Image, error) {
	if name == "" {
		return nil, fmt.Errorf("empty reference image name")
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{name + ".png", name + ".jpg", name + ".jpeg"}
	}

	var lastErr error
	for _, c := range candidates {
		path := c
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.dir, c)
		}
		img, err := decodeFile(path)
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("reference image %q: %w", name, lastErr)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if !strings.EqualFold(format, "png") && !strings.EqualFold(format, "jpeg") {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return img, nil
}

var _ interfaces.ImageLibrary = (*ImageLibrary)(nil)
