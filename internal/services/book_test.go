package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// MockBookQuerier is a mock implementation of BookQuerier interface
type MockBookQuerier struct {
	mock.Mock
}

func (m *MockBookQuerier) CreateBook(ctx context.Context, arg queries.CreateBookParams) (queries.Book, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockBookQuerier) GetBookByID(ctx context.Context, id int32) (queries.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockBookQuerier) GetBookByISBN(ctx context.Context, isbn string) (queries.Book, error) {
	args := m.Called(ctx, isbn)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockBookQuerier) UpdateBook(ctx context.Context, arg queries.UpdateBookParams) (queries.Book, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockBookQuerier) UpdateBookCoverImage(ctx context.Context, arg queries.UpdateBookCoverImageParams) (queries.Book, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Book), args.Error(1)
}

func (m *MockBookQuerier) SoftDeleteBook(ctx context.Context, arg queries.SoftDeleteBookParams) (int64, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookQuerier) GetBookStats(ctx context.Context) (queries.GetBookStatsRow, error) {
	args := m.Called(ctx)
	return args.Get(0).(queries.GetBookStatsRow), args.Error(1)
}

func (m *MockBookQuerier) ListBooks(ctx context.Context, f queries.BookFilter) ([]queries.Book, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]queries.Book), args.Error(1)
}

func (m *MockBookQuerier) CountBooks(ctx context.Context, f queries.BookFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func TestBookService_CreateBook(t *testing.T) {
	tests := []struct {
		name    string
		request models.CreateBookRequest
		setup   func(m *MockBookQuerier)
		wantErr error
	}{
		{
			name: "successful book creation",
			request: models.CreateBookRequest{
				Title:       "  Test Book ",
				Author:      "Test Author",
				ISBN:        stringPtr("9780000000001"),
				Category:    "Fiction",
				Language:    "English",
				TotalCopies: int32Ptr(3),
			},
			setup: func(m *MockBookQuerier) {
				m.On("GetBookByISBN", mock.Anything, "9780000000001").Return(queries.Book{}, pgx.ErrNoRows)
				m.On("CreateBook", mock.Anything, mock.MatchedBy(func(arg queries.CreateBookParams) bool {
					return arg.Title == "Test Book" && arg.TotalCopies == 3 && arg.CreatedBy.Int32 == 7
				})).Return(queries.Book{
					ID:              1,
					Title:           "Test Book",
					Author:          "Test Author",
					Isbn:            pgtype.Text{String: "9780000000001", Valid: true},
					Category:        "Fiction",
					Language:        "English",
					TotalCopies:     3,
					AvailableCopies: 3,
				}, nil)
			},
		},
		{
			name: "duplicate ISBN",
			request: models.CreateBookRequest{
				Title:    "Another",
				Author:   "Someone",
				ISBN:     stringPtr("9780000000001"),
				Category: "Fiction",
				Language: "English",
			},
			setup: func(m *MockBookQuerier) {
				m.On("GetBookByISBN", mock.Anything, "9780000000001").Return(queries.Book{ID: 5}, nil)
			},
			wantErr: ErrDuplicateISBN,
		},
		{
			name: "zero copies",
			request: models.CreateBookRequest{
				Title:       "Empty",
				Author:      "Nobody",
				Category:    "Fiction",
				Language:    "English",
				TotalCopies: int32Ptr(0),
			},
			setup:   func(m *MockBookQuerier) {},
			wantErr: ErrValidation,
		},
		{
			name: "missing title",
			request: models.CreateBookRequest{
				Title:    "   ",
				Author:   "Someone",
				Category: "Fiction",
				Language: "English",
			},
			setup:   func(m *MockBookQuerier) {},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockQuerier := new(MockBookQuerier)
			tt.setup(mockQuerier)
			service := NewBookService(mockQuerier)

			result, err := service.CreateBook(context.Background(), tt.request, 7)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int32(3), result.AvailableCopies)
				assert.Equal(t, models.BookStatusAvailable, result.Status)
			}
			mockQuerier.AssertExpectations(t)
		})
	}
}

func TestBookService_GetBookByID_NotFound(t *testing.T) {
	mockQuerier := new(MockBookQuerier)
	mockQuerier.On("GetBookByID", mock.Anything, int32(42)).Return(queries.Book{}, pgx.ErrNoRows)

	service := NewBookService(mockQuerier)
	_, err := service.GetBookByID(context.Background(), 42)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookService_UpdateBook_CannotReduceBelowIssued(t *testing.T) {
	ctx := context.Background()
	store, books, txs, _ := newLendingFixture(t)
	book := createBook(t, books, 3)
	a := createMember(t, store, "M-A")
	b := createMember(t, store, "M-B")

	_, err := txs.IssueBook(ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: a.ID}, 1)
	require.NoError(t, err)
	_, err = txs.IssueBook(ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: b.ID}, 1)
	require.NoError(t, err)

	_, err = books.UpdateBook(ctx, book.ID, models.UpdateBookRequest{TotalCopies: int32Ptr(1)}, 1)
	assert.ErrorIs(t, err, ErrCannotReduceBelowIssued)

	got := assertCopiesBalanced(t, books, book.ID)
	assert.Equal(t, int32(3), got.TotalCopies)
	assert.Equal(t, int32(1), got.AvailableCopies)
	assert.Equal(t, int32(2), got.IssuedCopies)
}

func TestBookService_UpdateBook_TotalMovesAvailable(t *testing.T) {
	ctx := context.Background()
	store, books, txs, _ := newLendingFixture(t)
	book := createBook(t, books, 2)
	m := createMember(t, store, "M-1")

	_, err := txs.IssueBook(ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: m.ID}, 1)
	require.NoError(t, err)

	updated, err := books.UpdateBook(ctx, book.ID, models.UpdateBookRequest{
		TotalCopies: int32Ptr(5),
		Title:       stringPtr("Gitanjali (2nd ed.)"),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Gitanjali (2nd ed.)", updated.Title)
	assert.Equal(t, int32(5), updated.TotalCopies)
	assert.Equal(t, int32(4), updated.AvailableCopies)
	assert.Equal(t, int32(1), updated.IssuedCopies)

	updated, err = books.UpdateBook(ctx, book.ID, models.UpdateBookRequest{TotalCopies: int32Ptr(1)}, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(0), updated.AvailableCopies)
	assert.Equal(t, models.BookStatusIssued, updated.Status)
	assertCopiesBalanced(t, books, book.ID)
}

func TestBookService_DeleteBook(t *testing.T) {
	ctx := context.Background()
	store, books, txs, _ := newLendingFixture(t)
	book := createBook(t, books, 1)
	m := createMember(t, store, "M-1")

	tx, err := txs.IssueBook(ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: m.ID}, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, books.DeleteBook(ctx, book.ID, 1), ErrBookHasIssuedCopies)

	_, err = txs.ReturnBook(ctx, tx.ID, 1)
	require.NoError(t, err)
	require.NoError(t, books.DeleteBook(ctx, book.ID, 1))

	_, err = books.GetBookByID(ctx, book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, books.DeleteBook(ctx, book.ID, 1), ErrNotFound)

	// The ledger keeps the transaction.
	kept, err := txs.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusReturned, kept.Status)
}

func TestBookService_SearchBooks(t *testing.T) {
	ctx := context.Background()
	_, books, _, _ := newLendingFixture(t)
	createBook(t, books, 1)
	_, err := books.CreateBook(ctx, models.CreateBookRequest{
		Title:    "Malgudi Days",
		Author:   "R. K. Narayan",
		Category: "Fiction",
		Language: "English",
	}, 1)
	require.NoError(t, err)

	result, err := books.SearchBooks(ctx, models.BookSearchRequest{Query: "malgudi"})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Malgudi Days", result.Books[0].Title)
	assert.Equal(t, int64(1), result.Pagination.Total)

	result, err = books.SearchBooks(ctx, models.BookSearchRequest{Language: "Bengali"})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "Gitanjali", result.Books[0].Title)

	stats, err := books.GetBookStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalTitles)
	assert.Equal(t, int64(2), stats.TotalCopies)
}
