package entities

import (
	"strings"
	"time"
)

// DefaultImageThreshold is the minimum similarity for a reference image match
const DefaultImageThreshold = 0.8

// StructuralQuery is a CSS selector or an XPath expression evaluated against the live page
type StructuralQuery string

// IsXPath reports whether the query is an XPath expression
func (q StructuralQuery) IsXPath() bool {
	s := strings.TrimSpace(string(q))
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(/") || strings.HasPrefix(s, "xpath=")
}

// Expression returns the query without an explicit "xpath=" prefix
func (q StructuralQuery) Expression() string {
	return strings.TrimPrefix(strings.TrimSpace(string(q)), "xpath=")
}

// ImageTarget names a reference image and the similarity it must reach
type ImageTarget struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold,omitempty"`
}

// MinScore returns the effective threshold
func (t ImageTarget) MinScore() float64 {
	if t.Threshold <= 0 {
		return DefaultImageThreshold
	}
	return t.Threshold
}

// LocateRequest describes one logical target through independent finders.
// It is built at the call site and never stored.
type LocateRequest struct {
	Description string          `json:"description"`
	Structural  StructuralQuery `json:"structural,omitempty"`
	LinkText    string          `json:"link_text,omitempty"`
	Image       *ImageTarget    `json:"image,omitempty"`
	OCRText     string          `json:"ocr_text,omitempty"`

	// Wait bounds the structural finder; zero means the configured default.
	Wait time.Duration `json:"wait,omitempty"`
}

// Has reports whether the request carries input for the finder kind
func (r LocateRequest) Has(kind FinderKind) bool {
	switch kind {
	case FinderStructural:
		return strings.TrimSpace(string(r.Structural)) != ""
	case FinderLinkText:
		return strings.TrimSpace(r.LinkText) != ""
	case FinderImage:
		return r.Image != nil && strings.TrimSpace(r.Image.Name) != ""
	case FinderOCR:
		return strings.TrimSpace(r.OCRText) != ""
	}
	return false
}

// FinderKinds returns the kinds present in the request, in priority order
func (r LocateRequest) FinderKinds() []FinderKind {
	var kinds []FinderKind
	for _, kind := range AllFinderKinds() {
		if r.Has(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Validate returns ErrNoFinders when no finder is supplied
func (r LocateRequest) Validate() error {
	if len(r.FinderKinds()) == 0 {
		return ErrNoFinders
	}
	return nil
}

// Label returns a description suitable for the operator
func (r LocateRequest) Label() string {
	switch {
	case r.Description != "":
		return r.Description
	case r.LinkText != "":
		return "'" + r.LinkText + "'"
	case r.OCRText != "":
		return "'" + r.OCRText + "'"
	case r.Structural != "":
		return string(r.Structural)
	case r.Image != nil:
		return r.Image.Name
	}
	return "the target"
}
