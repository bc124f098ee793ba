// handlers_files.go - File selection operation handlers
package api

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/media-verifier/backend/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store storage.Store
	scans ScanController
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, scans ScanController) FileHandler {
	return &FileHandlerImpl{
		store: store,
		scans: scans,
	}
}

// HandleSelectFile accepts one image as multipart/form-data and records it as
// the tracked selection. When the form carries several files only the first
// one is taken; any previous selection is replaced.
func (h *FileHandlerImpl) HandleSelectFile(c echo.Context) error {
	file, err := firstFormFile(c, "file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	if err := h.scans.Select(info); err != nil {
		// The blob was never tracked; remove it again.
		if delErr := h.store.Delete(info.ID); delErr != nil {
			c.Logger().Warnf("failed to delete rejected selection %s: %v", info.ID, delErr)
		}
		return NewConflictError(err.Error())
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleGetSelected returns the current selection, or 404 when nothing is
// selected.
func (h *FileHandlerImpl) HandleGetSelected(c echo.Context) error {
	info := h.scans.Selected()
	if info == nil {
		return NewNotFoundError("selection", "current")
	}
	return c.JSON(http.StatusOK, info)
}

// firstFormFile returns the first file under the given form field, mirroring
// a drop of multiple files where only the first is considered.
func firstFormFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, echo.ErrBadRequest
	}
	return files[0], nil
}
