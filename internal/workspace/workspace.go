// Package workspace is the explicit state container behind one drawing session.
// It owns the uploaded asset, the detected elements, the ledger and the viewport,
// and serialises every transition behind a mutex.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/structdraw/backend/internal/analysis"
	"github.com/structdraw/backend/internal/ledger"
	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/overlay"
	"github.com/structdraw/backend/internal/viewport"
)

var (
	// ErrOrphanedReference is returned when a ledger row points at no element.
	ErrOrphanedReference = errors.New("orphaned element reference")
	// ErrNoAsset is returned by operations that need an uploaded drawing.
	ErrNoAsset = errors.New("no drawing uploaded")
	// ErrClosed is returned once the workspace has been closed.
	ErrClosed = errors.New("workspace closed")
)

// AssetStore accepts, opens and releases uploaded drawings. upload.Gate implements it.
type AssetStore interface {
	Submit(name, mimeType string, r io.Reader) (*models.Asset, error)
	Open(asset *models.Asset) (io.ReadCloser, error)
	Release(asset *models.Asset) error
}

// Options configures a workspace.
type Options struct {
	Analyzer      analysis.Analyzer
	Assets        AssetStore
	Limits        viewport.Limits
	WeightFormula ledger.WeightFormula
}

// Workspace holds the state of one drawing session.
type Workspace struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	asset    *models.Asset
	overlay  *overlay.Model
	ledger   *ledger.Ledger
	view     *viewport.Transform
	analysis models.Analysis

	generation uint64
	cancel     context.CancelFunc
	running    sync.WaitGroup
	closed     bool

	analyzer analysis.Analyzer
	assets   AssetStore
	formula  ledger.WeightFormula
	events   *broker
}

// New creates an empty workspace.
func New(id string, opts Options) *Workspace {
	formula := opts.WeightFormula
	if formula == "" {
		formula = ledger.WeightFormulaUnit
	}
	return &Workspace{
		id:        id,
		createdAt: time.Now(),
		overlay:   overlay.New(),
		ledger:    ledger.New(),
		view:      viewport.New(opts.Limits),
		analysis:  models.Analysis{Status: models.AnalysisStatusIdle},
		analyzer:  opts.Analyzer,
		assets:    opts.Assets,
		formula:   formula,
		events:    newBroker(),
	}
}

// ID returns the workspace id.
func (w *Workspace) ID() string { return w.id }

// CreatedAt returns when the workspace was created.
func (w *Workspace) CreatedAt() time.Time { return w.createdAt }

// WeightFormula returns the formula used for ledger totals.
func (w *Workspace) WeightFormula() ledger.WeightFormula { return w.formula }

// Subscribe registers for state change events. The returned function
// unsubscribes and closes the channel.
func (w *Workspace) Subscribe() (<-chan Event, func()) {
	return w.events.subscribe()
}

// Subscribers returns the number of active event subscribers.
func (w *Workspace) Subscribers() int { return w.events.count() }

func (w *Workspace) publish(eventType string, payload interface{}) {
	w.events.publish(Event{Type: eventType, WorkspaceID: w.id, Payload: payload})
}

// Upload validates and stores a drawing, installs it as the current asset and
// starts analysis. A rejected upload leaves the current asset untouched.
func (w *Workspace) Upload(name, mimeType string, r io.Reader) (*models.Asset, error) {
	if w.assets == nil {
		return nil, fmt.Errorf("workspace %s has no asset store", shortID(w.id))
	}
	asset, err := w.assets.Submit(name, mimeType, r)
	if err != nil {
		return nil, err
	}
	if err := w.SubmitAsset(asset); err != nil {
		w.release(asset)
		return nil, err
	}
	return asset, nil
}

// SubmitAsset installs an accepted asset. The previous asset's bytes are
// released, the viewport is reset and any in-flight analysis is superseded.
func (w *Workspace) SubmitAsset(asset *models.Asset) error {
	if asset == nil {
		return ErrNoAsset
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	prev := w.asset
	w.asset = asset
	w.view.Reset()
	w.cancelAnalysisLocked()
	w.publish(EventAssetChanged, asset)
	w.startAnalysisLocked(*asset)
	w.mu.Unlock()

	w.release(prev)
	return nil
}

// RemoveAsset drops the current asset. Elements and rows stay until the next
// analysis; the selection is cleared.
func (w *Workspace) RemoveAsset() error {
	w.mu.Lock()
	prev := w.asset
	if prev == nil {
		w.mu.Unlock()
		return ErrNoAsset
	}
	w.asset = nil
	hadSelection := w.overlay.Selected() != ""
	w.overlay.ClearSelection()
	w.cancelAnalysisLocked()
	w.publish(EventAssetChanged, nil)
	if hadSelection {
		w.publish(EventSelectionChanged, selectionPayload{})
	}
	w.mu.Unlock()

	w.release(prev)
	return nil
}

// Asset returns the current asset, if any.
func (w *Workspace) Asset() (*models.Asset, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.asset == nil {
		return nil, false
	}
	a := *w.asset
	return &a, true
}

// OpenAsset returns a reader over the current asset's bytes.
func (w *Workspace) OpenAsset() (*models.Asset, io.ReadCloser, error) {
	asset, ok := w.Asset()
	if !ok {
		return nil, nil, ErrNoAsset
	}
	rc, err := w.assets.Open(asset)
	if err != nil {
		return nil, nil, err
	}
	return asset, rc, nil
}

// Analysis returns the status of the latest analysis run.
func (w *Workspace) Analysis() models.Analysis {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.analysis
}

// Wait blocks until no analysis goroutine is running.
func (w *Workspace) Wait() {
	w.running.Wait()
}

// Close cancels analysis, releases the asset and closes every event stream.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	prev := w.asset
	w.asset = nil
	w.cancelAnalysisLocked()
	w.mu.Unlock()

	w.running.Wait()
	w.release(prev)
	w.events.close()
	fmt.Printf("[Workspace %s] Closed\n", shortID(w.id))
}

func (w *Workspace) release(asset *models.Asset) {
	if asset == nil || w.assets == nil {
		return
	}
	if err := w.assets.Release(asset); err != nil {
		fmt.Printf("[Workspace %s] Warning: failed to release asset %s: %v\n", shortID(w.id), shortID(asset.ID), err)
	}
}

// startAnalysisLocked begins a new generation. Caller holds w.mu.
func (w *Workspace) startAnalysisLocked(asset models.Asset) {
	if w.analyzer == nil {
		return
	}

	w.generation++
	gen := w.generation
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.analysis = models.Analysis{
		Status:     models.AnalysisStatusPending,
		Generation: gen,
		StartedAt:  time.Now().UnixMilli(),
	}
	w.publish(EventAnalysisStarted, w.analysis)

	w.running.Add(1)
	go w.runAnalysis(ctx, gen, asset)
}

// cancelAnalysisLocked supersedes the in-flight run, if any. Caller holds w.mu.
func (w *Workspace) cancelAnalysisLocked() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	w.generation++
	if w.analysis.Status == models.AnalysisStatusPending {
		w.analysis.Status = models.AnalysisStatusCancelled
		w.analysis.FinishedAt = time.Now().UnixMilli()
		w.publish(EventAnalysisCancelled, w.analysis)
	}
}

func (w *Workspace) runAnalysis(ctx context.Context, gen uint64, asset models.Asset) {
	defer w.running.Done()
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Analysis %s] PANIC recovered: %v\n", shortID(w.id), r)
			w.finishAnalysis(gen, nil, fmt.Errorf("analysis panicked: %v", r))
		}
	}()

	start := time.Now()
	fmt.Printf("[Analysis %s] Starting %s analysis of %s (generation %d)\n", shortID(w.id), w.analyzer.Name(), asset.Name, gen)

	result, err := w.analyzer.Analyze(ctx, asset)
	if err == nil && result == nil {
		err = errors.New("analyzer returned no result")
	}
	w.finishAnalysis(gen, result, err)

	fmt.Printf("[Analysis %s] Generation %d finished in %s\n", shortID(w.id), gen, time.Since(start).Round(time.Millisecond))
}

// finishAnalysis applies a result only when it belongs to the current generation.
func (w *Workspace) finishAnalysis(gen uint64, result *analysis.Result, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.generation || w.analysis.Status != models.AnalysisStatusPending {
		fmt.Printf("[Analysis %s] Discarding stale result of generation %d (current %d)\n", shortID(w.id), gen, w.generation)
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.analysis.FinishedAt = time.Now().UnixMilli()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			w.analysis.Status = models.AnalysisStatusCancelled
			w.publish(EventAnalysisCancelled, w.analysis)
			return
		}
		fmt.Printf("[Analysis %s] ERROR: %v\n", shortID(w.id), err)
		w.analysis.Status = models.AnalysisStatusError
		w.analysis.Error = err.Error()
		w.publish(EventAnalysisFailed, w.analysis)
		return
	}

	w.overlay.Replace(result.Elements)
	w.ledger.Replace(result.Rows)
	w.analysis.Status = models.AnalysisStatusComplete
	w.publish(EventAnalysisCompleted, analysisPayload{
		Analysis: w.analysis,
		Elements: w.overlay.Len(),
		Rows:     w.ledger.Len(),
	})
}

type analysisPayload struct {
	models.Analysis
	Elements int `json:"elements"`
	Rows     int `json:"rows"`
}

type selectionPayload struct {
	SelectedID string `json:"selectedId"`
}

// Snapshot returns a copy of the full state.
func (w *Workspace) Snapshot() models.WorkspaceSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := models.WorkspaceSnapshot{
		ID:         w.id,
		Elements:   w.overlay.Elements(),
		Rows:       w.ledger.Rows(),
		SelectedID: w.overlay.Selected(),
		Viewport:   w.view.State(),
		Analysis:   w.analysis,
		CreatedAt:  w.createdAt.UnixMilli(),
	}
	if w.asset != nil {
		a := *w.asset
		snap.Asset = &a
	}
	if edit, ok := w.ledger.Editing(); ok {
		snap.Edit = edit
	}
	return snap
}

// shortID safely truncates an id for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
