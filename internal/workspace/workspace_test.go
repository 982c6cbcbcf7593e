package workspace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdraw/backend/internal/analysis"
	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/ledger"
	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/overlay"
	"github.com/structdraw/backend/internal/testutil"
	"github.com/structdraw/backend/internal/upload"
	"github.com/structdraw/backend/internal/viewport"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake drawing")

func newTestWorkspace(t *testing.T, analyzer analysis.Analyzer) (*Workspace, *testutil.MockStorage) {
	t.Helper()
	store := testutil.NewMockStorage()
	ws := New("ws-test-0001", Options{
		Analyzer: analyzer,
		Assets:   upload.NewGate(store),
		Limits:   viewport.DefaultLimits(),
	})
	t.Cleanup(ws.Close)
	return ws, store
}

// analyzed returns a workspace whose first upload has completed analysis.
func analyzed(t *testing.T) (*Workspace, *testutil.MockStorage, *models.Asset) {
	t.Helper()
	stub := testutil.NewStubAnalyzer()
	ws, store := newTestWorkspace(t, stub)

	asset, err := ws.Upload("plan.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started
	stub.Complete(asset.ID, testutil.SampleResult())
	ws.Wait()

	require.Equal(t, models.AnalysisStatusComplete, ws.Analysis().Status)
	return ws, store, asset
}

func TestWorkspace_UploadRunsAnalysis(t *testing.T) {
	ws, _, asset := analyzed(t)

	snap := ws.Snapshot()
	require.NotNil(t, snap.Asset)
	assert.Equal(t, asset.ID, snap.Asset.ID)
	assert.Len(t, snap.Elements, 2)
	assert.Len(t, snap.Rows, 3)
	assert.Equal(t, uint64(1), snap.Analysis.Generation)
	assert.Equal(t, 1.0, snap.Viewport.Zoom)
	assert.True(t, snap.Viewport.OverlayVisible)
}

func TestWorkspace_RejectedUploadKeepsPriorState(t *testing.T) {
	ws, store, asset := analyzed(t)
	before := ws.Snapshot()

	_, err := ws.Upload("notes.txt", "text/plain", strings.NewReader("hello"))
	if !errors.Is(err, upload.ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}

	assert.Equal(t, before, ws.Snapshot())
	assert.True(t, store.Has(asset.Ref), "prior asset bytes must be kept")
}

func TestWorkspace_ReplacingAssetReleasesBytesAndResetsViewport(t *testing.T) {
	ws, store, first := analyzed(t)
	ws.ZoomIn()
	ws.Pointer(PointerDown, models.Point{X: 500, Y: 500}, viewport.PrimaryButton, "")
	ws.Pointer(PointerMove, models.Point{X: 520, Y: 530}, 0, "")
	ws.Pointer(PointerUp, models.Point{X: 520, Y: 530}, 0, "")
	require.NotEqual(t, models.Point{}, ws.Viewport().Pan)

	second, err := ws.Upload("plan2.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.False(t, store.Has(first.Ref))
	assert.True(t, store.Has(second.Ref))
	vp := ws.Viewport()
	assert.Equal(t, 1.0, vp.Zoom)
	assert.Equal(t, models.Point{}, vp.Pan)
	assert.Equal(t, models.AnalysisStatusPending, ws.Analysis().Status)
}

func TestWorkspace_StaleAnalysisDiscarded(t *testing.T) {
	var mu sync.Mutex
	release := map[string]chan struct{}{
		"a.png": make(chan struct{}),
		"b.png": make(chan struct{}),
	}
	results := map[string]*analysis.Result{
		"a.png": {Elements: []models.Element{{ID: "from-a"}}, Rows: []models.Row{{ID: "row-a"}}},
		"b.png": {Elements: []models.Element{{ID: "from-b"}}, Rows: []models.Row{{ID: "row-b"}}},
	}
	// Ignores cancellation so the superseded run still delivers a result.
	slow := analysis.AnalyzerFunc(func(ctx context.Context, asset models.Asset) (*analysis.Result, error) {
		mu.Lock()
		ch := release[asset.Name]
		mu.Unlock()
		<-ch
		return results[asset.Name], nil
	})

	ws, _ := newTestWorkspace(t, slow)
	_, err := ws.Upload("a.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	_, err = ws.Upload("b.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	close(release["b.png"])
	require.Eventually(t, func() bool {
		return ws.Analysis().Status == models.AnalysisStatusComplete
	}, time.Second, 5*time.Millisecond)

	close(release["a.png"])
	ws.Wait()

	snap := ws.Snapshot()
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, "from-b", snap.Elements[0].ID)
	assert.Equal(t, "row-b", snap.Rows[0].ID)
	assert.Equal(t, "b.png", snap.Asset.Name)
}

func TestWorkspace_SupersededAnalysisIsCancelled(t *testing.T) {
	stub := testutil.NewStubAnalyzer()
	ws, _ := newTestWorkspace(t, stub)
	events, unsubscribe := ws.Subscribe()
	defer unsubscribe()

	first, err := ws.Upload("a.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started
	second, err := ws.Upload("b.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started

	stub.Complete(second.ID, testutil.SampleResult())
	ws.Wait()

	assert.Equal(t, 2, stub.Calls())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.AnalysisStatusComplete, ws.Analysis().Status)

	var types []string
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []string{
		EventAssetChanged, EventAnalysisStarted,
		EventAnalysisCancelled, EventAssetChanged, EventAnalysisStarted,
		EventAnalysisCompleted,
	}, types)
}

func TestWorkspace_AnalysisFailure(t *testing.T) {
	stub := testutil.NewStubAnalyzer()
	ws, _ := newTestWorkspace(t, stub)

	asset, err := ws.Upload("a.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started
	stub.Fail(asset.ID, errors.New("detector offline"))
	ws.Wait()

	a := ws.Analysis()
	assert.Equal(t, models.AnalysisStatusError, a.Status)
	assert.Contains(t, a.Error, "detector offline")
	assert.Empty(t, ws.Snapshot().Elements)
}

func TestWorkspace_RemoveAsset(t *testing.T) {
	ws, store, asset := analyzed(t)
	require.NoError(t, ws.SelectElement("beam-1"))

	require.NoError(t, ws.RemoveAsset())

	snap := ws.Snapshot()
	assert.Nil(t, snap.Asset)
	assert.Empty(t, snap.SelectedID)
	assert.Len(t, snap.Elements, 2, "elements stay until the next analysis")
	assert.False(t, store.Has(asset.Ref))

	assert.ErrorIs(t, ws.RemoveAsset(), ErrNoAsset)
}

func TestWorkspace_RemoveAssetCancelsPendingAnalysis(t *testing.T) {
	stub := testutil.NewStubAnalyzer()
	ws, _ := newTestWorkspace(t, stub)

	_, err := ws.Upload("a.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started

	require.NoError(t, ws.RemoveAsset())
	ws.Wait()
	assert.Equal(t, models.AnalysisStatusCancelled, ws.Analysis().Status)
	assert.Empty(t, ws.Snapshot().Elements)
}

func TestWorkspace_PointerSelectsWithoutDragging(t *testing.T) {
	ws, _, _ := analyzed(t)

	res, err := ws.Pointer(PointerDown, models.Point{X: 30, Y: 25}, viewport.PrimaryButton, "beam-1")
	require.NoError(t, err)
	assert.Equal(t, "beam-1", res.SelectedID)
	assert.False(t, res.Dragging)

	ws.Pointer(PointerMove, models.Point{X: 90, Y: 90}, 0, "")
	assert.Equal(t, models.Point{}, ws.Viewport().Pan)

	// Hit test finds the column when no target is given.
	res, err = ws.Pointer(PointerDown, models.Point{X: 310, Y: 100}, viewport.PrimaryButton, "")
	require.NoError(t, err)
	assert.Equal(t, "column-1", res.SelectedID)

	_, err = ws.Pointer(PointerDown, models.Point{}, viewport.PrimaryButton, "ghost")
	assert.ErrorIs(t, err, overlay.ErrUnknownElement)
}

func TestWorkspace_PointerDragPans(t *testing.T) {
	ws, _, _ := analyzed(t)

	res, err := ws.Pointer(PointerDown, models.Point{X: 600, Y: 600}, viewport.PrimaryButton, "")
	require.NoError(t, err)
	assert.True(t, res.Dragging)
	assert.Empty(t, res.SelectedID)

	ws.Pointer(PointerMove, models.Point{X: 650, Y: 580}, 0, "")
	res, err = ws.Pointer(PointerUp, models.Point{X: 650, Y: 580}, 0, "")
	require.NoError(t, err)
	assert.False(t, res.Dragging)
	assert.Equal(t, models.Point{X: 50, Y: -20}, res.Viewport.Pan)

	// Hidden overlay: clicking where an element is drawn pans instead.
	ws.ToggleOverlay()
	res, err = ws.Pointer(PointerDown, models.Point{X: 80, Y: 5}, viewport.PrimaryButton, "beam-1")
	require.NoError(t, err)
	assert.True(t, res.Dragging)
	ws.Pointer(PointerUp, models.Point{}, 0, "")

	_, err = ws.Pointer("hover", models.Point{}, 0, "")
	assert.Error(t, err)
}

func TestWorkspace_Zoom(t *testing.T) {
	ws, _ := newTestWorkspace(t, nil)

	assert.InDelta(t, 1.1, ws.ZoomIn().Zoom, 1e-9)
	assert.InDelta(t, 1.0, ws.ZoomOut().Zoom, 1e-9)
	assert.Equal(t, 2.5, ws.SetZoomPercent(250).Zoom)
	assert.Equal(t, 0.5, ws.SetZoomPercent(10).Zoom)

	state, suppress := ws.Wheel(-3, false)
	assert.False(t, suppress)
	assert.Equal(t, 0.5, state.Zoom)
	state, suppress = ws.Wheel(-3, true)
	assert.True(t, suppress)
	assert.InDelta(t, 0.6, state.Zoom, 1e-9)
}

func TestWorkspace_Project(t *testing.T) {
	ws, _, _ := analyzed(t)
	ws.SetZoom(2)
	require.NoError(t, ws.SelectElement("column-1"))

	proj := ws.Project()
	require.Len(t, proj.Elements, 2)
	assert.Equal(t, models.Rect{X: 40, Y: 40, Width: 400, Height: 40}, proj.Elements[0].Rect)
	assert.True(t, proj.Elements[1].Selected)

	ws.ToggleOverlay()
	assert.Empty(t, ws.Project().Elements)
}

func TestWorkspace_ViewInDrawing(t *testing.T) {
	ws, _, _ := analyzed(t)
	ws.ToggleOverlay()

	el, err := ws.ViewInDrawing("bom-2")
	require.NoError(t, err)
	assert.Equal(t, "column-1", el.ID)
	snap := ws.Snapshot()
	assert.Equal(t, "column-1", snap.SelectedID)
	assert.True(t, snap.Viewport.OverlayVisible)

	_, err = ws.ViewInDrawing("bom-3")
	assert.ErrorIs(t, err, ErrOrphanedReference)
	assert.Equal(t, "column-1", ws.Snapshot().SelectedID, "orphan must not change selection")

	_, err = ws.ViewInDrawing("bom-404")
	assert.ErrorIs(t, err, ledger.ErrUnknownRow)
}

func TestWorkspace_LedgerEditing(t *testing.T) {
	ws, _, _ := analyzed(t)

	view := ws.Ledger("steel")
	assert.Equal(t, 2, view.Shown)
	assert.Equal(t, 3, view.Total)
	assert.InDelta(t, 809.0, view.TotalWeight, 1e-9)
	assert.Equal(t, ledger.WeightFormulaUnit, view.WeightFormula)

	_, err := ws.BeginEdit("bom-1")
	require.NoError(t, err)
	edit, err := ws.SetField("bom-1", "Size", "W14x30")
	require.NoError(t, err)
	assert.Equal(t, "W14x30", edit.Buffer["size"])

	_, err = ws.SetField("bom-1", "weight", "1")
	assert.ErrorIs(t, err, ledger.ErrInvalidFieldValue)

	row, err := ws.CommitEdit("bom-1")
	require.NoError(t, err)
	assert.Equal(t, "W14x30", row.Size)
	assert.Nil(t, ws.Snapshot().Edit)

	_, err = ws.BeginEdit("bom-2")
	require.NoError(t, err)
	assert.ErrorIs(t, ws.CancelEdit("bom-1"), ledger.ErrNotEditing)
	require.NoError(t, ws.CancelEdit("bom-2"))
}

func TestWorkspace_ExtendedWeightFormula(t *testing.T) {
	ws := New("ws-ext", Options{WeightFormula: ledger.WeightFormulaExtended})
	defer ws.Close()
	ws.ledger.Replace(testutil.SampleResult().Rows)

	assert.InDelta(t, 520.5*2+432.8*4+288.5*8, ws.Ledger("").TotalWeight, 1e-9)
}

func TestWorkspace_Export(t *testing.T) {
	ws, _, _ := analyzed(t)
	events, unsubscribe := ws.Subscribe()
	defer unsubscribe()

	// Narrow the listing first: export still uses every row.
	assert.Equal(t, 1, ws.Ledger("column").Shown)

	cfg := models.DefaultExportConfig()
	cfg.IncludeImages = false
	artifact, err := ws.Export(context.Background(), export.NewService(nil, nil), cfg)
	require.NoError(t, err)
	assert.Len(t, artifact.Records, 3)
	assert.Equal(t, "structural_analysis.xlsx", artifact.FileName)

	ev := <-events
	assert.Equal(t, EventExportCompleted, ev.Type)

	cfg.FileName = "  "
	_, err = ws.Export(context.Background(), export.NewService(nil, nil), cfg)
	assert.ErrorIs(t, err, export.ErrInvalidExportConfig)
}

type capturingExporter struct {
	req export.Request
}

func (c *capturingExporter) RequestExport(_ context.Context, req export.Request) (*export.Artifact, error) {
	c.req = req
	return &export.Artifact{FileName: "out.xlsx", Records: export.BuildRecords(req.Rows, req.Config)}, nil
}

func TestWorkspace_ExportImageLimit(t *testing.T) {
	ws, _, _ := analyzed(t)
	cfg := models.DefaultExportConfig()
	cfg.IncludeImages = true

	exporter := &capturingExporter{}
	_, err := ws.Export(context.Background(), exporter, cfg)
	require.NoError(t, err)
	require.NotNil(t, exporter.req.Image)
	assert.Equal(t, pngBytes, exporter.req.Image.Data)

	saved := maxEmbeddedImage
	maxEmbeddedImage = len(pngBytes) - 1
	defer func() { maxEmbeddedImage = saved }()

	exporter = &capturingExporter{}
	_, err = ws.Export(context.Background(), exporter, cfg)
	require.NoError(t, err)
	assert.Nil(t, exporter.req.Image)
	assert.Len(t, exporter.req.Rows, 3)
}

func TestWorkspace_UploadAfterCloseReleasesBytes(t *testing.T) {
	store := testutil.NewMockStorage()
	ws := New("ws-closed", Options{Analyzer: testutil.NewStubAnalyzer(), Assets: upload.NewGate(store)})
	ws.Close()

	asset, err := ws.Upload("late.png", "image/png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, asset)
	assert.Equal(t, 0, store.Count())
	assert.Len(t, store.Deleted(), 1)
}

func TestWorkspace_CloseReleasesEverything(t *testing.T) {
	stub := testutil.NewStubAnalyzer()
	store := testutil.NewMockStorage()
	ws := New("ws-close", Options{Analyzer: stub, Assets: upload.NewGate(store)})

	events, _ := ws.Subscribe()
	asset, err := ws.Upload("a.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	<-stub.Started

	ws.Close()
	assert.False(t, store.Has(asset.Ref))
	assert.ErrorIs(t, ws.SubmitAsset(asset), ErrClosed)

	for range events {
	}
	assert.Equal(t, 0, ws.Subscribers())
	ws.Close()
}
