package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

// BookHandler handles book-related HTTP requests
type BookHandler struct {
	bookService services.BookServiceInterface
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService services.BookServiceInterface) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// CreateBook creates a new book
// @Summary Create a new book
// @Description Add a title to the catalogue with every copy available
// @Tags books
// @Accept json
// @Produce json
// @Param book body models.CreateBookRequest true "Book data"
// @Success 201 {object} SuccessResponse{data=models.BookResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to create book")
		return
	}

	respondSuccess(c, http.StatusCreated, book, "Book created successfully")
}

// GetBook retrieves a book by ID
// @Summary Get a book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse{data=models.BookResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/public/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}

	book, err := h.bookService.GetBookByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve book")
		return
	}

	respondSuccess(c, http.StatusOK, book, "")
}

// UpdateBook updates an existing book
// @Summary Update a book
// @Description Update metadata and total copies. The copy count cannot drop below the issued copies.
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param book body models.UpdateBookRequest true "Changed fields"
// @Success 200 {object} SuccessResponse{data=models.BookResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}

	var req models.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), id, req, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to update book")
		return
	}

	respondSuccess(c, http.StatusOK, book, "Book updated successfully")
}

// DeleteBook removes a book from the catalogue
// @Summary Delete a book
// @Description Soft delete; refused while copies are issued
// @Tags books
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}

	if err := h.bookService.DeleteBook(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		writeServiceError(c, err, "Failed to delete book")
		return
	}

	respondSuccess(c, http.StatusOK, nil, "Book deleted successfully")
}

// SearchBooks searches the catalogue
// @Summary Search books
// @Tags books
// @Produce json
// @Param query query string false "Title, author or ISBN"
// @Param category query string false "Category"
// @Param language query string false "Language"
// @Param available_only query bool false "Only titles with an available copy"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} SuccessResponse{data=models.BookListResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/public/books [get]
func (h *BookHandler) SearchBooks(c *gin.Context) {
	var req models.BookSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.bookService.SearchBooks(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to search books")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

// GetBookStats returns copy counts across the catalogue
// @Summary Get book statistics
// @Tags books
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.BookStats}
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/books/stats [get]
func (h *BookHandler) GetBookStats(c *gin.Context) {
	stats, err := h.bookService.GetBookStats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve book statistics")
		return
	}

	respondSuccess(c, http.StatusOK, stats, "")
}
