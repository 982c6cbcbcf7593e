// Package analysis detects structural elements in an uploaded drawing.
package analysis

import (
	"context"

	"github.com/structdraw/backend/internal/models"
)

// Result is the output of one analysis run.
type Result struct {
	Elements []models.Element `json:"elements" yaml:"elements"`
	Rows     []models.Row     `json:"rows" yaml:"rows"`
}

// Analyzer turns an uploaded asset into elements and bill-of-materials rows.
// Implementations must return promptly once ctx is cancelled.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, asset models.Asset) (*Result, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, asset models.Asset) (*Result, error)

// Name implements Analyzer.
func (f AnalyzerFunc) Name() string { return "func" }

// Analyze implements Analyzer.
func (f AnalyzerFunc) Analyze(ctx context.Context, asset models.Asset) (*Result, error) {
	return f(ctx, asset)
}
