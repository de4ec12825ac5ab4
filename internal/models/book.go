package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BookStatus is the availability of a title, derived from its copy counters.
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusIssued    BookStatus = "issued"
)

// CreateBookRequest represents the request to add a new title to the catalogue
type CreateBookRequest struct {
	Title         string           `json:"title" binding:"required,min=1,max=255"`
	Author        string           `json:"author" binding:"required,min=1,max=255"`
	ISBN          *string          `json:"isbn" binding:"omitempty,max=20"`
	Category      string           `json:"category" binding:"required,min=1,max=100"`
	Language      string           `json:"language" binding:"required,min=1,max=50"`
	Publisher     *string          `json:"publisher" binding:"omitempty,max=255"`
	PublishedYear *int32           `json:"published_year"`
	TotalCopies   *int32           `json:"total_copies"`
	Price         *decimal.Decimal `json:"price"`
	ShelfLocation *string          `json:"shelf_location" binding:"omitempty,max=50"`
	CoverImageURL *string          `json:"cover_image_url" binding:"omitempty,max=500"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
}

// UpdateBookRequest carries the fields an admin may change on a title.
// Nil fields are left untouched.
type UpdateBookRequest struct {
	Title         *string          `json:"title" binding:"omitempty,min=1,max=255"`
	Author        *string          `json:"author" binding:"omitempty,min=1,max=255"`
	ISBN          *string          `json:"isbn" binding:"omitempty,max=20"`
	Category      *string          `json:"category" binding:"omitempty,min=1,max=100"`
	Language      *string          `json:"language" binding:"omitempty,min=1,max=50"`
	Publisher     *string          `json:"publisher" binding:"omitempty,max=255"`
	PublishedYear *int32           `json:"published_year"`
	TotalCopies   *int32           `json:"total_copies"`
	Price         *decimal.Decimal `json:"price"`
	ShelfLocation *string          `json:"shelf_location" binding:"omitempty,max=50"`
	CoverImageURL *string          `json:"cover_image_url" binding:"omitempty,max=500"`
	Description   *string          `json:"description" binding:"omitempty,max=2000"`
}

// BookSearchRequest represents the request to search books
type BookSearchRequest struct {
	Query         string `json:"query" form:"query"`
	Category      string `json:"category" form:"category"`
	Language      string `json:"language" form:"language"`
	AvailableOnly bool   `json:"available_only" form:"available_only"`
	Page          int    `json:"page" form:"page,default=1" binding:"min=1"`
	Limit         int    `json:"limit" form:"limit,default=20" binding:"min=1,max=100"`
}

// BookResponse represents the response for book operations
type BookResponse struct {
	ID              int32           `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            *string         `json:"isbn"`
	Category        string          `json:"category"`
	Language        string          `json:"language"`
	Publisher       *string         `json:"publisher"`
	PublishedYear   *int32          `json:"published_year"`
	TotalCopies     int32           `json:"total_copies"`
	AvailableCopies int32           `json:"available_copies"`
	IssuedCopies    int32           `json:"issued_copies"`
	Price           decimal.Decimal `json:"price"`
	ShelfLocation   *string         `json:"shelf_location"`
	CoverImageURL   *string         `json:"cover_image_url"`
	Description     *string         `json:"description"`
	Status          BookStatus      `json:"status"`
	AddedDate       time.Time       `json:"added_date"`
	CreatedBy       *int32          `json:"created_by,omitempty"`
	UpdatedBy       *int32          `json:"updated_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BookListResponse represents the response for book list operations
type BookListResponse struct {
	Books      []BookResponse `json:"books"`
	Pagination Pagination     `json:"pagination"`
}

// BookStats summarises the catalogue's copy counters.
type BookStats struct {
	TotalTitles     int64 `json:"total_titles"`
	TotalCopies     int64 `json:"total_copies"`
	AvailableCopies int64 `json:"available_copies"`
	IssuedCopies    int64 `json:"issued_copies"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination fills in TotalPages for the given page window.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// StatusForCopies derives the displayed book status from the available counter.
func StatusForCopies(available int32) BookStatus {
	if available > 0 {
		return BookStatusAvailable
	}
	return BookStatusIssued
}

// Validate normalises and validates the CreateBookRequest
func (r *CreateBookRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	if len(r.Title) > 255 {
		return errors.New("title cannot exceed 255 characters")
	}

	r.Author = strings.TrimSpace(r.Author)
	if r.Author == "" {
		return errors.New("author is required")
	}

	r.Category = strings.TrimSpace(r.Category)
	if r.Category == "" {
		return errors.New("category is required")
	}

	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		return errors.New("language is required")
	}

	r.ISBN = trimOptional(r.ISBN)

	if r.PublishedYear != nil {
		currentYear := int32(time.Now().Year())
		if *r.PublishedYear < 1000 || *r.PublishedYear > currentYear {
			return errors.New("published_year must be between 1000 and current year")
		}
	}

	if r.TotalCopies != nil && *r.TotalCopies < 1 {
		return errors.New("total_copies must be at least 1")
	}

	if r.Price != nil && r.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}

	return nil
}

// Validate validates the UpdateBookRequest
func (r *UpdateBookRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		r.Title = &title
	}
	if r.Author != nil {
		author := strings.TrimSpace(*r.Author)
		if author == "" {
			return errors.New("author cannot be empty")
		}
		r.Author = &author
	}
	if r.Category != nil && strings.TrimSpace(*r.Category) == "" {
		return errors.New("category cannot be empty")
	}
	if r.Language != nil && strings.TrimSpace(*r.Language) == "" {
		return errors.New("language cannot be empty")
	}
	r.ISBN = trimOptional(r.ISBN)

	if r.PublishedYear != nil {
		currentYear := int32(time.Now().Year())
		if *r.PublishedYear < 1000 || *r.PublishedYear > currentYear {
			return errors.New("published_year must be between 1000 and current year")
		}
	}

	if r.TotalCopies != nil && *r.TotalCopies < 1 {
		return errors.New("total_copies must be at least 1")
	}

	if r.Price != nil && r.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}

	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
