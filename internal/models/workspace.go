package models

// AnalysisStatus represents the state of the element detection step.
type AnalysisStatus string

const (
	AnalysisStatusIdle      AnalysisStatus = "idle"
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusComplete  AnalysisStatus = "complete"
	AnalysisStatusCancelled AnalysisStatus = "cancelled"
	AnalysisStatusError     AnalysisStatus = "error"
)

// Analysis describes the latest analysis run of a workspace.
type Analysis struct {
	Status     AnalysisStatus `json:"status"`
	Generation uint64         `json:"generation"`
	Error      string         `json:"error,omitempty"`
	StartedAt  int64          `json:"startedAt,omitempty"`  // Unix ms
	FinishedAt int64          `json:"finishedAt,omitempty"` // Unix ms
}

// Point is a pointer position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportState is the pan/zoom state of the drawing viewer.
type ViewportState struct {
	Zoom           float64 `json:"zoom"`
	Pan            Point   `json:"pan"`
	OverlayVisible bool    `json:"overlayVisible"`
	Dragging       bool    `json:"dragging"`
}

// EditState describes the ledger row currently being edited.
type EditState struct {
	RowID  string            `json:"rowId"`
	Buffer map[string]string `json:"buffer"`
}

// WorkspaceSnapshot is a point-in-time copy of a workspace.
type WorkspaceSnapshot struct {
	ID         string        `json:"id"`
	Asset      *Asset        `json:"asset,omitempty"`
	Elements   []Element     `json:"elements"`
	Rows       []Row         `json:"rows"`
	SelectedID string        `json:"selectedId,omitempty"`
	Viewport   ViewportState `json:"viewport"`
	Edit       *EditState    `json:"edit,omitempty"`
	Analysis   Analysis      `json:"analysis"`
	CreatedAt  int64         `json:"createdAt"`
}
