package models

// Row is one bill-of-materials entry.
type Row struct {
	ID        string  `json:"id" yaml:"id"`
	ElementID string  `json:"elementId" yaml:"element_id"` // May be empty or orphaned
	Type      string  `json:"type" yaml:"type"`
	Size      string  `json:"size" yaml:"size"`
	Length    float64 `json:"length" yaml:"length"` // Inches
	Quantity  int     `json:"quantity" yaml:"quantity"`
	Weight    float64 `json:"weight" yaml:"weight"` // Unit weight, lb
	Material  string  `json:"material" yaml:"material"`
	Notes     string  `json:"notes" yaml:"notes"`
}
