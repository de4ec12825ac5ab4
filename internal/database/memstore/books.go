package memstore

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

func (s *Store) isbnTaken(isbn string, exceptID int32) bool {
	for _, b := range s.books {
		if b.ID != exceptID && !b.DeletedAt.Valid && b.Isbn.Valid && b.Isbn.String == isbn {
			return true
		}
	}
	return false
}

func (s *Store) CreateBook(_ context.Context, arg queries.CreateBookParams) (queries.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if arg.Isbn.Valid && s.isbnTaken(arg.Isbn.String, 0) {
		return queries.Book{}, queries.ErrUniqueViolation
	}
	now := s.stamp()
	b := queries.Book{
		ID:              s.id("books"),
		Title:           arg.Title,
		Author:          arg.Author,
		Isbn:            arg.Isbn,
		Category:        arg.Category,
		Language:        arg.Language,
		Publisher:       arg.Publisher,
		PublishedYear:   arg.PublishedYear,
		TotalCopies:     arg.TotalCopies,
		AvailableCopies: arg.TotalCopies,
		IssuedCopies:    0,
		Price:           arg.Price,
		ShelfLocation:   arg.ShelfLocation,
		CoverImageUrl:   arg.CoverImageUrl,
		Description:     arg.Description,
		AddedDate:       now,
		CreatedBy:       arg.CreatedBy,
		UpdatedBy:       arg.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.books[b.ID] = b
	return b, nil
}

func (s *Store) liveBook(id int32) (queries.Book, bool) {
	b, ok := s.books[id]
	if !ok || b.DeletedAt.Valid {
		return queries.Book{}, false
	}
	return b, true
}

func (s *Store) GetBookByID(_ context.Context, id int32) (queries.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.liveBook(id)
	if !ok {
		return queries.Book{}, pgx.ErrNoRows
	}
	return b, nil
}

func (s *Store) GetBookByISBN(_ context.Context, isbn string) (queries.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if !b.DeletedAt.Valid && b.Isbn.Valid && b.Isbn.String == isbn {
			return b, nil
		}
	}
	return queries.Book{}, pgx.ErrNoRows
}

func (s *Store) UpdateBook(_ context.Context, arg queries.UpdateBookParams) (queries.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.liveBook(arg.ID)
	if !ok {
		return queries.Book{}, pgx.ErrNoRows
	}
	available := b.AvailableCopies + (arg.TotalCopies - b.TotalCopies)
	if available < 0 {
		return queries.Book{}, pgx.ErrNoRows
	}
	if arg.Isbn.Valid && s.isbnTaken(arg.Isbn.String, b.ID) {
		return queries.Book{}, queries.ErrUniqueViolation
	}

	b.Title = arg.Title
	b.Author = arg.Author
	b.Isbn = arg.Isbn
	b.Category = arg.Category
	b.Language = arg.Language
	b.Publisher = arg.Publisher
	b.PublishedYear = arg.PublishedYear
	b.AvailableCopies = available
	b.TotalCopies = arg.TotalCopies
	b.Price = arg.Price
	b.ShelfLocation = arg.ShelfLocation
	b.CoverImageUrl = arg.CoverImageUrl
	b.Description = arg.Description
	b.UpdatedBy = arg.UpdatedBy
	b.UpdatedAt = s.stamp()
	s.books[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBookCoverImage(_ context.Context, arg queries.UpdateBookCoverImageParams) (queries.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.liveBook(arg.ID)
	if !ok {
		return queries.Book{}, pgx.ErrNoRows
	}
	b.CoverImageUrl = arg.CoverImageUrl
	b.UpdatedBy = arg.UpdatedBy
	b.UpdatedAt = s.stamp()
	s.books[b.ID] = b
	return b, nil
}

func (s *Store) SoftDeleteBook(_ context.Context, arg queries.SoftDeleteBookParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.liveBook(arg.ID)
	if !ok || b.IssuedCopies != 0 {
		return 0, nil
	}
	now := s.stamp()
	b.DeletedAt = now
	b.UpdatedAt = now
	b.UpdatedBy = arg.UpdatedBy
	s.books[b.ID] = b
	return 1, nil
}

func (s *Store) GetBookStats(_ context.Context) (queries.GetBookStatsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row queries.GetBookStatsRow
	for _, b := range s.books {
		if b.DeletedAt.Valid {
			continue
		}
		row.TotalTitles++
		row.TotalCopies += int64(b.TotalCopies)
		row.AvailableCopies += int64(b.AvailableCopies)
		row.IssuedCopies += int64(b.IssuedCopies)
	}
	return row, nil
}

func (s *Store) filterBooks(f queries.BookFilter) []queries.Book {
	var out []queries.Book
	for _, b := range s.books {
		if b.DeletedAt.Valid {
			continue
		}
		if f.Query != "" && !containsFold(b.Title, f.Query) && !containsFold(b.Author, f.Query) &&
			!(b.Isbn.Valid && containsFold(b.Isbn.String, f.Query)) {
			continue
		}
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Language != "" && b.Language != f.Language {
			continue
		}
		if f.AvailableOnly && b.AvailableCopies <= 0 {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListBooks(_ context.Context, f queries.BookFilter) ([]queries.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.filterBooks(f), f.Limit, f.Offset), nil
}

func (s *Store) CountBooks(_ context.Context, f queries.BookFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterBooks(f))), nil
}
