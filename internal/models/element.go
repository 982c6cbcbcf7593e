// Package models contains domain types for the Structural Drawing Analyzer.
package models

// Element is a rectangular region of a drawing that represents one structural
// component. Geometry is in image-local pixels.
type Element struct {
	ID     string  `json:"id" yaml:"id"`
	Type   string  `json:"type" yaml:"type"` // "I-Beam", "Column", "Brace", ...
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Color  string  `json:"color" yaml:"color"`
}

// Rect is an axis-aligned rectangle in screen space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
