// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/media-verifier/backend/internal/console"
	"github.com/media-verifier/backend/internal/models"
	"github.com/media-verifier/backend/internal/scan"
)

// FileHandler handles file selection operations
type FileHandler interface {
	HandleSelectFile(c echo.Context) error
	HandleGetSelected(c echo.Context) error
}

// ScanHandler handles scan lifecycle operations
type ScanHandler interface {
	HandleStartScan(c echo.Context) error
	HandleScanReset(c echo.Context) error
	HandleCurrentScan(c echo.Context) error
	HandleGetScan(c echo.Context) error
	HandleScanLog(c echo.Context) error
	HandleScanResult(c echo.Context) error
	HandleScanResultMsgpack(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ScanController defines the surface the handlers need from the scan
// manager. This allows mocking in tests.
type ScanController interface {
	Select(info *models.FileInfo) error
	Selected() *models.FileInfo
	StartScan() (*models.ScanSnapshot, error)
	Reset() error
	Current() *models.ScanSnapshot
	Get(id string) (*models.ScanSnapshot, bool)
	Console(id string) (*console.Console, bool)
	Subscribe() (<-chan scan.Event, func())
}
