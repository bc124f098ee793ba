// handlers_scan.go - Scan lifecycle operation handlers
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/media-verifier/backend/internal/models"
	"github.com/media-verifier/backend/internal/scan"
	"github.com/media-verifier/backend/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// ScanHandlerImpl implements the ScanHandler interface
type ScanHandlerImpl struct {
	scans    ScanController
	sessions *session.Store
}

// NewScanHandler creates a new scan handler instance
func NewScanHandler(scans ScanController, sessions *session.Store) ScanHandler {
	return &ScanHandlerImpl{
		scans:    scans,
		sessions: sessions,
	}
}

// HandleStartScan triggers the scan sequence for the current selection
func (h *ScanHandlerImpl) HandleStartScan(c echo.Context) error {
	snap, err := h.scans.StartScan()
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrNoSelection):
			return NewValidationError("file")
		case errors.Is(err, scan.ErrScanActive):
			return NewConflictError(err.Error())
		default:
			return NewInternalError("failed to start scan", err)
		}
	}
	return c.JSON(http.StatusAccepted, snap)
}

// HandleScanReset returns the controller to idle after a finished or failed
// scan
func (h *ScanHandlerImpl) HandleScanReset(c echo.Context) error {
	if err := h.scans.Reset(); err != nil {
		return NewConflictError(err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleCurrentScan returns a snapshot of the active scan
func (h *ScanHandlerImpl) HandleCurrentScan(c echo.Context) error {
	snap := h.scans.Current()
	if snap == nil {
		return NewNotFoundError("scan", "current")
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleGetScan returns a snapshot of a scan by ID
func (h *ScanHandlerImpl) HandleGetScan(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	snap, ok := h.scans.Get(id)
	if !ok {
		return NewNotFoundError("scan", id)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleScanLog returns the accumulated console lines of a scan
func (h *ScanHandlerImpl) HandleScanLog(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	console, ok := h.scans.Console(id)
	if !ok {
		return NewNotFoundError("scan", id)
	}
	return c.JSON(http.StatusOK, console.Lines())
}

// HandleScanResult returns the stored analysis result for the report view.
// The result is kept as text under a fixed per-scan key; it is decoded here
// so the response is the analysis document itself, not a quoted string.
func (h *ScanHandlerImpl) HandleScanResult(c echo.Context) error {
	result, apiErr := h.loadResult(c)
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, result)
}

// HandleScanResultMsgpack returns the stored analysis result encoded as
// MessagePack for compact transfer
func (h *ScanHandlerImpl) HandleScanResultMsgpack(c echo.Context) error {
	result, apiErr := h.loadResult(c)
	if apiErr != nil {
		return apiErr
	}

	data, err := msgpack.Marshal(result)
	if err != nil {
		return NewInternalError("failed to encode result", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *ScanHandlerImpl) loadResult(c echo.Context) (*models.AnalysisResult, *APIError) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}

	raw, err := h.sessions.Get(id, session.ResultKey)
	if err != nil {
		return nil, NewNotFoundError("result", id)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, NewInternalError("stored result is corrupt", err)
	}
	return &result, nil
}
