package models

import (
	"fmt"
	"time"
)

// FileInfo represents metadata about an uploaded media file.
type FileInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	DisplaySize string    `json:"displaySize"`
	UploadedAt  time.Time `json:"uploadedAt"`
	Status      string    `json:"status"` // "selected", "scanning", "scanned"
}

// FormatSize renders a byte count as kilobytes with one decimal place,
// e.g. 2048 -> "2.0 KB". This is the size the selection UI displays.
func FormatSize(size int64) string {
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
