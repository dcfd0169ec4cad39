package ocr

import (
	"testing"

	"hometax_automation/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestFilterFragments(t *testing.T) {
	box := entities.Rect{X: 1, Y: 1, Width: 10, Height: 10}
	in := []entities.TextFragment{
		{Text: " 조회 ", Box: box, Confidence: 91},
		{Text: "   ", Box: box, Confidence: 99},
		{Text: "납부서", Box: box, Confidence: 12},
		{Text: "인쇄", Box: entities.Rect{}, Confidence: 95},
	}

	out := filterFragments(in, DefaultMinConfidence)

	assert.Equal(t, []entities.TextFragment{{Text: "조회", Box: box, Confidence: 91}}, out)
	assert.Equal(t, " 조회 ", in[0].Text)
}

func TestOptionsLanguages(t *testing.T) {
	assert.Equal(t, []string{"kor", "eng"}, Options{}.languages())
	assert.Equal(t, []string{"eng"}, Options{Languages: []string{"eng"}}.languages())
}
