package testutil

import (
	"context"
	"sync"

	"github.com/structdraw/backend/internal/analysis"
	"github.com/structdraw/backend/internal/models"
)

// StubAnalyzer blocks each Analyze call until the test releases it.
type StubAnalyzer struct {
	// Started receives the asset of every call as it begins.
	Started chan models.Asset

	mu      sync.Mutex
	release map[string]chan stubOutcome
	calls   int
}

type stubOutcome struct {
	result *analysis.Result
	err    error
}

// NewStubAnalyzer creates a stub analyzer.
func NewStubAnalyzer() *StubAnalyzer {
	return &StubAnalyzer{
		Started: make(chan models.Asset, 16),
		release: make(map[string]chan stubOutcome),
	}
}

func (s *StubAnalyzer) Name() string { return "stub" }

func (s *StubAnalyzer) Analyze(ctx context.Context, asset models.Asset) (*analysis.Result, error) {
	ch := s.channel(asset.ID)
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	s.Started <- asset

	select {
	case out := <-ch:
		return out.result, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Complete releases the call for assetID with a result.
func (s *StubAnalyzer) Complete(assetID string, result *analysis.Result) {
	s.channel(assetID) <- stubOutcome{result: result}
}

// Fail releases the call for assetID with an error.
func (s *StubAnalyzer) Fail(assetID string, err error) {
	s.channel(assetID) <- stubOutcome{err: err}
}

// Calls returns how many times Analyze was called.
func (s *StubAnalyzer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StubAnalyzer) channel(assetID string) chan stubOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.release[assetID]
	if !ok {
		ch = make(chan stubOutcome, 1)
		s.release[assetID] = ch
	}
	return ch
}

// IgnoringAnalyzer returns its result even after cancellation, modelling a
// detector that cannot be interrupted.
type IgnoringAnalyzer struct {
	Result  *analysis.Result
	Release chan struct{}
}

func (a *IgnoringAnalyzer) Name() string { return "ignoring" }

func (a *IgnoringAnalyzer) Analyze(ctx context.Context, asset models.Asset) (*analysis.Result, error) {
	<-a.Release
	return a.Result, nil
}

// SampleResult returns a small element and row set with one orphaned row.
func SampleResult() *analysis.Result {
	return &analysis.Result{
		Elements: []models.Element{
			{ID: "beam-1", Type: "beam", X: 20, Y: 20, Width: 200, Height: 20, Color: "#3B82F6"},
			{ID: "column-1", Type: "column", X: 300, Y: 50, Width: 30, Height: 150, Color: "#10B981"},
		},
		Rows: []models.Row{
			{ID: "bom-1", ElementID: "beam-1", Type: "I-Beam", Size: "W12x26", Length: 240, Quantity: 2, Weight: 520.5, Material: "A992 Steel", Notes: "Main floor beam"},
			{ID: "bom-2", ElementID: "column-1", Type: "Column", Size: "HSS6x6x3/8", Length: 144, Quantity: 4, Weight: 432.8, Material: "A500 Grade B", Notes: "Corner column"},
			{ID: "bom-3", ElementID: "brace-9", Type: "Brace", Size: "L3x3x1/4", Length: 180, Quantity: 8, Weight: 288.5, Material: "A36 Steel", Notes: "Lateral bracing"},
		},
	}
}
