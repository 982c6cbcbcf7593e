package models

import (
	"strings"
	"time"
)

// Asset represents an uploaded drawing (image or PDF).
type Asset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MIMEType   string    `json:"mimeType"`
	Ref        string    `json:"ref"` // Storage key of the uploaded bytes
	UploadedAt time.Time `json:"uploadedAt"`
}

// IsImage reports whether the asset is a raster image rather than a PDF.
func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}
