package vision

import "image"

// grayImage is a dense luminance buffer
type grayImage struct {
	w, h int
	pix  []float64
}

// toGray - converts any image to luminance in the 0..255 range
func toGray(img image.Image) grayImage {
	b := img.Bounds()
	g := grayImage{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			r, gr, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			g.pix[y*g.w+x] = (0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)) / 257
		}
	}
	return g
}

// downscale - box-averages f x f blocks; trailing partial blocks are dropped
func (g grayImage) downscale(f int) grayImage {
	out := grayImage{w: g.w / f, h: g.h / f}
	out.pix = make([]float64, out.w*out.h)
	area := float64(f * f)
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			var sum float64
			for j := 0; j < f; j++ {
				row := (y*f + j) * g.w
				for i := 0; i < f; i++ {
					sum += g.pix[row+x*f+i]
				}
			}
			out.pix[y*out.w+x] = sum / area
		}
	}
	return out
}

// crop - the part of g starting at (x0, y0)
func (g grayImage) crop(x0, y0 int) grayImage {
	if x0 == 0 && y0 == 0 {
		return g
	}
	out := grayImage{w: g.w - x0, h: g.h - y0}
	if out.w <= 0 || out.h <= 0 {
		return grayImage{}
	}
	out.pix = make([]float64, out.w*out.h)
	for y := 0; y < out.h; y++ {
		copy(out.pix[y*out.w:(y+1)*out.w], g.pix[(y+y0)*g.w+x0:(y+y0)*g.w+g.w])
	}
	return out
}
