package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/storage"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

type UploadServiceInterface interface {
	UploadBookCover(ctx context.Context, bookID int32, r io.Reader, actorID int32) (*models.BookResponse, error)
	DeleteBookCover(ctx context.Context, bookID int32, actorID int32) (*models.BookResponse, error)
	UploadEventImage(ctx context.Context, eventID int32, r io.Reader, actorID int32) (*models.EventResponse, error)
	DeleteEventImage(ctx context.Context, eventID int32, actorID int32) (*models.EventResponse, error)
	UploadGalleryImage(ctx context.Context, r io.Reader) (storage.Info, error)
}

// UploadHandler handles file upload operations
type UploadHandler struct {
	uploadService UploadServiceInterface
	maxBytes      int64
}

// NewUploadHandler creates a new upload handler. maxBytes bounds the image
// itself; the request body may be slightly larger.
func NewUploadHandler(uploadService UploadServiceInterface, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

// openFormFile limits the request body and opens the named multipart file.
// It writes the error response itself and returns ok=false on failure.
func (h *UploadHandler) openFormFile(c *gin.Context, field string) (io.ReadCloser, bool) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}

	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload limit", nil)
			return nil, false
		}
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No file uploaded", "expected multipart field "+field)
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read uploaded file", err.Error())
		return nil, false
	}
	return file, true
}

// UploadBookCover handles book cover image upload
// @Summary Upload book cover image
// @Description Upload a cover image for a book. Large images are scaled down and a previous cover is removed.
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Book ID"
// @Param cover formData file true "Cover image file"
// @Success 200 {object} SuccessResponse{data=models.BookResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/books/{id}/cover [post]
func (h *UploadHandler) UploadBookCover(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}

	file, ok := h.openFormFile(c, "cover")
	if !ok {
		return
	}
	defer file.Close()

	book, err := h.uploadService.UploadBookCover(c.Request.Context(), bookID, file, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to upload cover image")
		return
	}

	respondSuccess(c, http.StatusOK, book, "Cover image uploaded successfully")
}

func (h *UploadHandler) DeleteBookCover(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.uploadService.DeleteBookCover(c.Request.Context(), bookID, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to delete cover image")
		return
	}

	respondSuccess(c, http.StatusOK, book, "Cover image deleted successfully")
}

func (h *UploadHandler) UploadEventImage(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	file, ok := h.openFormFile(c, "image")
	if !ok {
		return
	}
	defer file.Close()

	event, err := h.uploadService.UploadEventImage(c.Request.Context(), eventID, file, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to upload event image")
		return
	}

	respondSuccess(c, http.StatusOK, event, "Event image uploaded successfully")
}

func (h *UploadHandler) DeleteEventImage(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id", "event")
	if !ok {
		return
	}

	event, err := h.uploadService.DeleteEventImage(c.Request.Context(), eventID, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to delete event image")
		return
	}

	respondSuccess(c, http.StatusOK, event, "Event image deleted successfully")
}

// UploadGalleryImage stores a standalone image for the community gallery
func (h *UploadHandler) UploadGalleryImage(c *gin.Context) {
	file, ok := h.openFormFile(c, "image")
	if !ok {
		return
	}
	defer file.Close()

	info, err := h.uploadService.UploadGalleryImage(c.Request.Context(), file)
	if err != nil {
		writeServiceError(c, err, "Failed to upload image")
		return
	}

	respondSuccess(c, http.StatusCreated, info, "Image uploaded successfully")
}
