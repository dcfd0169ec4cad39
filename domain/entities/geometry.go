package entities

import "fmt"

// Point is a coordinate in the space of the screen that produced it
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect is an axis-aligned region
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the arithmetic center of the region
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether the region has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Size is a width/height pair
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Match is the result of a reference image search
type Match struct {
	Region Rect    `json:"region"`
	Score  float64 `json:"score"`
}

// TextFragment is one piece of recognized on-screen text
type TextFragment struct {
	Text       string  `json:"text"`
	Box        Rect    `json:"box"`
	Confidence float64 `json:"confidence"`
}
