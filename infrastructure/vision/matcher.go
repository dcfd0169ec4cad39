package vision

import (
	"image"
	"math"
	"sort"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

const (
	// minCoarseSide is the smallest template side kept when searching a downscaled pyramid level
	minCoarseSide = 8
	// coarseSlack lowers the threshold at the coarse level, where averaging costs similarity
	coarseSlack = 0.25
	// maxCandidates bounds how many coarse hits are refined at full resolution
	maxCandidates = 5
)

// Matcher finds a reference image with normalized cross-correlation on grayscale
// pixels. Large templates are first searched on a downscaled copy and refined at
// full resolution around the best coarse hits. The template is downscaled at every
// sub-block phase so one of them lines up with the screen's block grid; a miss
// costs about 1/f^2 of an exhaustive search.
type Matcher struct{}

// NewMatcher - creates a template matcher
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Find - returns the best region scoring at or above threshold
func (m *Matcher) Find(haystack, needle image.Image, threshold float64) (entities.Match, bool) {
	h := toGray(haystack)
	n := toGray(needle)
	if n.w == 0 || n.h == 0 || n.w > h.w || n.h > h.h {
		return entities.Match{}, false
	}

	var best candidate
	factor := pyramidFactor(n)
	if factor == 1 {
		best = newSearch(h, n).best(0, h.w-n.w, 0, h.h-n.h)
	} else {
		best = m.coarseToFine(h, n, factor, threshold)
	}

	if best.score < threshold || math.IsNaN(best.score) {
		return entities.Match{}, false
	}

	origin := haystack.Bounds().Min
	return entities.Match{
		Region: entities.Rect{X: origin.X + best.x, Y: origin.Y + best.y, Width: n.w, Height: n.h},
		Score:  best.score,
	}, true
}

func (m *Matcher) coarseToFine(h, n grayImage, factor int, threshold float64) candidate {
	hs := h.downscale(factor)

	// coarse hits of every phase, mapped back to full-resolution origins
	var hits []candidate
	for py := 0; py < factor; py++ {
		for px := 0; px < factor; px++ {
			ns := n.crop(px, py).downscale(factor)
			if ns.w == 0 || ns.h == 0 || ns.w > hs.w || ns.h > hs.h {
				continue
			}
			for _, c := range newSearch(hs, ns).top(threshold-coarseSlack, maxCandidates) {
				hits = append(hits, candidate{x: c.x*factor - px, y: c.y*factor - py, score: c.score})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxCandidates {
		hits = hits[:maxCandidates]
	}

	fine := newSearch(h, n)
	best := candidate{score: -1}
	for _, c := range hits {
		got := fine.best(
			clamp(c.x-factor, 0, h.w-n.w), clamp(c.x+factor, 0, h.w-n.w),
			clamp(c.y-factor, 0, h.h-n.h), clamp(c.y+factor, 0, h.h-n.h),
		)
		if got.score > best.score {
			best = got
		}
	}
	return best
}

// pyramidFactor - picks the largest downscale that keeps the template usable
func pyramidFactor(n grayImage) int {
	for _, f := range []int{4, 2} {
		if n.w/f >= minCoarseSide && n.h/f >= minCoarseSide {
			return f
		}
	}
	return 1
}

type candidate struct {
	x, y  int
	score float64
}

// search holds the precomputed template and haystack sums for NCC
type search struct {
	h      grayImage
	n      grayImage
	tpl    []float64 // template minus its mean
	tplDev float64   // sqrt of the template's sum of squared deviations
	sum    []float64 // integral image of the haystack
	sumSq  []float64 // integral image of the squared haystack
}

func newSearch(h, n grayImage) *search {
	s := &search{h: h, n: n, tpl: make([]float64, len(n.pix))}

	var mean float64
	for _, v := range n.pix {
		mean += v
	}
	mean /= float64(len(n.pix))

	var dev float64
	for i, v := range n.pix {
		d := v - mean
		s.tpl[i] = d
		dev += d * d
	}
	s.tplDev = math.Sqrt(dev)

	stride := h.w + 1
	s.sum = make([]float64, stride*(h.h+1))
	s.sumSq = make([]float64, stride*(h.h+1))
	for y := 0; y < h.h; y++ {
		var row, rowSq float64
		for x := 0; x < h.w; x++ {
			v := h.pix[y*h.w+x]
			row += v
			rowSq += v * v
			s.sum[(y+1)*stride+x+1] = s.sum[y*stride+x+1] + row
			s.sumSq[(y+1)*stride+x+1] = s.sumSq[y*stride+x+1] + rowSq
		}
	}
	return s
}

// score - NCC of the template placed at (x, y); flat windows and templates score 0
func (s *search) score(x, y int) float64 {
	if s.tplDev == 0 {
		return 0
	}
	w, hgt := s.n.w, s.n.h
	stride := s.h.w + 1
	area := func(t []float64) float64 {
		return t[(y+hgt)*stride+x+w] - t[y*stride+x+w] - t[(y+hgt)*stride+x] + t[y*stride+x]
	}
	count := float64(w * hgt)
	sum := area(s.sum)
	windowDev := area(s.sumSq) - sum*sum/count
	if windowDev <= 1e-9 {
		return 0
	}

	var cross float64
	for j := 0; j < hgt; j++ {
		row := s.h.pix[(y+j)*s.h.w+x : (y+j)*s.h.w+x+w]
		tpl := s.tpl[j*w : (j+1)*w]
		for i, v := range row {
			cross += v * tpl[i]
		}
	}
	return cross / (math.Sqrt(windowDev) * s.tplDev)
}

// best - exhaustive search over an inclusive position range
func (s *search) best(x0, x1, y0, y1 int) candidate {
	best := candidate{score: -1}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if sc := s.score(x, y); sc > best.score {
				best = candidate{x: x, y: y, score: sc}
			}
		}
	}
	return best
}

// top - returns up to k non-overlapping positions scoring at least min, best first
func (s *search) top(min float64, k int) []candidate {
	var all []candidate
	for y := 0; y <= s.h.h-s.n.h; y++ {
		for x := 0; x <= s.h.w-s.n.w; x++ {
			if sc := s.score(x, y); sc >= min {
				all = append(all, candidate{x: x, y: y, score: sc})
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	var kept []candidate
	for _, c := range all {
		overlaps := false
		for _, k := range kept {
			if abs(c.x-k.x) < s.n.w && abs(c.y-k.y) < s.n.h {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
			if len(kept) == k {
				break
			}
		}
	}
	return kept
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ interfaces.ImageMatcher = (*Matcher)(nil)
