// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/media-verifier/backend/internal/session"
	"github.com/media-verifier/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Scans    ScanController
	Sessions *session.Store
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	File   FileHandler
	Scan   ScanHandler
	Stream *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		File:   NewFileHandler(deps.Store, deps.Scans),
		Scan:   NewScanHandler(deps.Scans, deps.Sessions),
		Stream: NewWebSocketHandler(deps.Scans),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	// File selection routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/select", handlers.File.HandleSelectFile)
	fileGroup.GET("/selected", handlers.File.HandleGetSelected)

	// Scan lifecycle routes
	scanGroup := e.Group("/api/scans")
	scanGroup.POST("", handlers.Scan.HandleStartScan)
	scanGroup.POST("/reset", handlers.Scan.HandleScanReset)
	scanGroup.GET("/current", handlers.Scan.HandleCurrentScan)
	scanGroup.GET("/:id", handlers.Scan.HandleGetScan)
	scanGroup.GET("/:id/log", handlers.Scan.HandleScanLog)
	scanGroup.GET("/:id/result", handlers.Scan.HandleScanResult)
	scanGroup.GET("/:id/result/msgpack", handlers.Scan.HandleScanResultMsgpack)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/scans", handlers.Stream.HandleWebSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
