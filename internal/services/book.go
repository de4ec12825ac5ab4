package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// BookQuerier defines the interface for book database operations
type BookQuerier interface {
	CreateBook(ctx context.Context, arg queries.CreateBookParams) (queries.Book, error)
	GetBookByID(ctx context.Context, id int32) (queries.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (queries.Book, error)
	UpdateBook(ctx context.Context, arg queries.UpdateBookParams) (queries.Book, error)
	UpdateBookCoverImage(ctx context.Context, arg queries.UpdateBookCoverImageParams) (queries.Book, error)
	SoftDeleteBook(ctx context.Context, arg queries.SoftDeleteBookParams) (int64, error)
	GetBookStats(ctx context.Context) (queries.GetBookStatsRow, error)
	ListBooks(ctx context.Context, f queries.BookFilter) ([]queries.Book, error)
	CountBooks(ctx context.Context, f queries.BookFilter) (int64, error)
}

// BookServiceInterface defines the interface for book service operations
type BookServiceInterface interface {
	CreateBook(ctx context.Context, req models.CreateBookRequest, actorID int32) (*models.BookResponse, error)
	GetBookByID(ctx context.Context, id int32) (*models.BookResponse, error)
	UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest, actorID int32) (*models.BookResponse, error)
	DeleteBook(ctx context.Context, id int32, actorID int32) error
	SetCoverImage(ctx context.Context, id int32, url *string, actorID int32) (*models.BookResponse, error)
	SearchBooks(ctx context.Context, req models.BookSearchRequest) (*models.BookListResponse, error)
	GetBookStats(ctx context.Context) (*models.BookStats, error)
}

// BookService handles book-related business logic
type BookService struct {
	querier BookQuerier
}

// NewBookService creates a new book service
func NewBookService(querier BookQuerier) *BookService {
	return &BookService{
		querier: querier,
	}
}

// actor turns the authenticated user id into the nullable created_by/updated_by column.
func actor(id int32) pgtype.Int4 {
	return pgtype.Int4{Int32: id, Valid: id > 0}
}

// CreateBook adds a title with every copy available.
func (s *BookService) CreateBook(ctx context.Context, req models.CreateBookRequest, actorID int32) (*models.BookResponse, error) {
	if req.TotalCopies != nil && *req.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	if req.ISBN != nil {
		existing, err := s.querier.GetBookByISBN(ctx, *req.ISBN)
		if err == nil && existing.ID != 0 {
			return nil, ErrDuplicateISBN
		}
	}

	params := queries.CreateBookParams{
		Title:         req.Title,
		Author:        req.Author,
		Isbn:          queries.Text(req.ISBN),
		Category:      req.Category,
		Language:      req.Language,
		Publisher:     queries.Text(req.Publisher),
		PublishedYear: queries.Int4(req.PublishedYear),
		TotalCopies:   1,
		Price:         queries.NumericFromDecimal(decimal.Zero),
		ShelfLocation: queries.Text(req.ShelfLocation),
		CoverImageUrl: queries.Text(req.CoverImageURL),
		Description:   queries.Text(req.Description),
		CreatedBy:     actor(actorID),
	}
	if req.TotalCopies != nil {
		params.TotalCopies = *req.TotalCopies
	}
	if req.Price != nil {
		params.Price = queries.NumericFromDecimal(*req.Price)
	}

	book, err := s.querier.CreateBook(ctx, params)
	if err != nil {
		if queries.IsUniqueViolation(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	response := book.ToResponse()
	return &response, nil
}

// GetBookByID retrieves a book by its ID
func (s *BookService) GetBookByID(ctx context.Context, id int32) (*models.BookResponse, error) {
	book, err := s.querier.GetBookByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "book")
	}

	response := book.ToResponse()
	return &response, nil
}

// UpdateBook merges the requested changes into the stored title. A new total
// moves available copies by the same delta in one conditional statement.
func (s *BookService) UpdateBook(ctx context.Context, id int32, req models.UpdateBookRequest, actorID int32) (*models.BookResponse, error) {
	if req.TotalCopies != nil && *req.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.querier.GetBookByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "book")
	}

	if req.ISBN != nil && (!existing.Isbn.Valid || existing.Isbn.String != *req.ISBN) {
		conflict, err := s.querier.GetBookByISBN(ctx, *req.ISBN)
		if err == nil && conflict.ID != 0 && conflict.ID != id {
			return nil, ErrDuplicateISBN
		}
	}

	params := queries.UpdateBookParams{
		ID:            id,
		Title:         existing.Title,
		Author:        existing.Author,
		Isbn:          existing.Isbn,
		Category:      existing.Category,
		Language:      existing.Language,
		Publisher:     existing.Publisher,
		PublishedYear: existing.PublishedYear,
		TotalCopies:   existing.TotalCopies,
		Price:         existing.Price,
		ShelfLocation: existing.ShelfLocation,
		CoverImageUrl: existing.CoverImageUrl,
		Description:   existing.Description,
		UpdatedBy:     actor(actorID),
	}

	if req.Title != nil {
		params.Title = *req.Title
	}
	if req.Author != nil {
		params.Author = *req.Author
	}
	if req.ISBN != nil {
		params.Isbn = queries.Text(req.ISBN)
	}
	if req.Category != nil {
		params.Category = *req.Category
	}
	if req.Language != nil {
		params.Language = *req.Language
	}
	if req.Publisher != nil {
		params.Publisher = optionalText(*req.Publisher)
	}
	if req.PublishedYear != nil {
		params.PublishedYear = queries.Int4(req.PublishedYear)
	}
	if req.TotalCopies != nil {
		params.TotalCopies = *req.TotalCopies
	}
	if req.Price != nil {
		params.Price = queries.NumericFromDecimal(*req.Price)
	}
	if req.ShelfLocation != nil {
		params.ShelfLocation = optionalText(*req.ShelfLocation)
	}
	if req.CoverImageURL != nil {
		params.CoverImageUrl = optionalText(*req.CoverImageURL)
	}
	if req.Description != nil {
		params.Description = optionalText(*req.Description)
	}

	book, err := s.querier.UpdateBook(ctx, params)
	if err != nil {
		if queries.IsUniqueViolation(err) {
			return nil, ErrDuplicateISBN
		}
		if !queries.IsNotFound(err) {
			return nil, fmt.Errorf("failed to update book: %w", err)
		}
		// No row: either the book went away or the new total is below what is on loan.
		if _, getErr := s.querier.GetBookByID(ctx, id); getErr != nil {
			return nil, notFoundOr(getErr, "book")
		}
		return nil, ErrCannotReduceBelowIssued
	}

	response := book.ToResponse()
	return &response, nil
}

// DeleteBook soft deletes a book that has no copy on loan. Its transactions stay.
func (s *BookService) DeleteBook(ctx context.Context, id int32, actorID int32) error {
	n, err := s.querier.SoftDeleteBook(ctx, queries.SoftDeleteBookParams{
		ID:        id,
		UpdatedBy: actor(actorID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.querier.GetBookByID(ctx, id); err != nil {
		return notFoundOr(err, "book")
	}
	return ErrBookHasIssuedCopies
}

// SetCoverImage stores (or clears, with nil) the cover image URL.
func (s *BookService) SetCoverImage(ctx context.Context, id int32, url *string, actorID int32) (*models.BookResponse, error) {
	book, err := s.querier.UpdateBookCoverImage(ctx, queries.UpdateBookCoverImageParams{
		ID:            id,
		CoverImageUrl: queries.Text(url),
		UpdatedBy:     actor(actorID),
	})
	if err != nil {
		return nil, notFoundOr(err, "book")
	}

	response := book.ToResponse()
	return &response, nil
}

// SearchBooks searches for books with various filters
func (s *BookService) SearchBooks(ctx context.Context, req models.BookSearchRequest) (*models.BookListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	filter := queries.BookFilter{
		Query:         req.Query,
		Category:      req.Category,
		Language:      req.Language,
		AvailableOnly: req.AvailableOnly,
		Limit:         int32(limit),
		Offset:        int32((page - 1) * limit),
	}

	books, err := s.querier.ListBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search books: %w", err)
	}
	total, err := s.querier.CountBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	bookResponses := make([]models.BookResponse, len(books))
	for i, book := range books {
		bookResponses[i] = book.ToResponse()
	}

	return &models.BookListResponse{
		Books:      bookResponses,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetBookStats returns the catalogue copy counters
func (s *BookService) GetBookStats(ctx context.Context) (*models.BookStats, error) {
	row, err := s.querier.GetBookStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get book stats: %w", err)
	}
	return &models.BookStats{
		TotalTitles:     row.TotalTitles,
		TotalCopies:     row.TotalCopies,
		AvailableCopies: row.AvailableCopies,
		IssuedCopies:    row.IssuedCopies,
	}, nil
}

// optionalText stores an empty string as NULL.
func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
