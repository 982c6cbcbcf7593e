package analysis

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/structdraw/backend/internal/models"
)

// DefaultDelay is how long the fixture analyzer pretends to work.
const DefaultDelay = 2000 * time.Millisecond

//go:embed demo_fixture.yaml
var demoFixture []byte

// FixtureAnalyzer returns fixed content after a delay. It stands in for a real
// detector.
type FixtureAnalyzer struct {
	delay  time.Duration
	result Result
}

// NewFixtureAnalyzer creates an analyzer that returns result after delay.
func NewFixtureAnalyzer(result *Result, delay time.Duration) *FixtureAnalyzer {
	return &FixtureAnalyzer{delay: delay, result: cloneResult(result)}
}

// NewDemoAnalyzer returns the built-in three-element demonstration analyzer.
func NewDemoAnalyzer(delay time.Duration) (*FixtureAnalyzer, error) {
	result, err := DemoFixture()
	if err != nil {
		return nil, err
	}
	return NewFixtureAnalyzer(result, delay), nil
}

// DemoFixture returns the built-in demonstration elements and rows.
func DemoFixture() (*Result, error) {
	result, err := ParseFixture(demoFixture)
	if err != nil {
		return nil, fmt.Errorf("parsing built-in fixture: %w", err)
	}
	return result, nil
}

// LoadFixtureAnalyzer reads a YAML fixture from disk.
func LoadFixtureAnalyzer(path string, delay time.Duration) (*FixtureAnalyzer, error) {
	result, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return NewFixtureAnalyzer(result, delay), nil
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	result, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return result, nil
}

// ParseFixture decodes a YAML document with "elements" and "rows" lists.
func ParseFixture(data []byte) (*Result, error) {
	var result Result
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(result.Elements))
	for _, e := range result.Elements {
		if e.ID == "" {
			return nil, fmt.Errorf("element without id")
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("duplicate element id: %s", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	rowIDs := make(map[string]struct{}, len(result.Rows))
	for _, r := range result.Rows {
		if r.ID == "" {
			return nil, fmt.Errorf("row without id")
		}
		if _, dup := rowIDs[r.ID]; dup {
			return nil, fmt.Errorf("duplicate row id: %s", r.ID)
		}
		rowIDs[r.ID] = struct{}{}
	}
	return &result, nil
}

// Name implements Analyzer.
func (a *FixtureAnalyzer) Name() string { return "fixture" }

// Delay returns the simulated processing time.
func (a *FixtureAnalyzer) Delay() time.Duration { return a.delay }

// Analyze waits for the configured delay and returns a copy of the fixture.
func (a *FixtureAnalyzer) Analyze(ctx context.Context, asset models.Asset) (*Result, error) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := cloneResult(&a.result)
	return &out, nil
}

func cloneResult(r *Result) Result {
	if r == nil {
		return Result{}
	}
	out := Result{
		Elements: make([]models.Element, len(r.Elements)),
		Rows:     make([]models.Row, len(r.Rows)),
	}
	copy(out.Elements, r.Elements)
	copy(out.Rows, r.Rows)
	return out
}
