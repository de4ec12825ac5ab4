package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/database/memstore"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

func stringPtr(s string) *string { return &s }
func int32Ptr(i int32) *int32    { return &i }
func boolPtr(b bool) *bool       { return &b }
func timePtr(t time.Time) *time.Time {
	return &t
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock is a settable clock shared by the services and the store under test.
type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newLendingFixture(t *testing.T) (*memstore.Store, *BookService, *TransactionService, *testClock) {
	t.Helper()
	clock := newTestClock()
	store := memstore.New()
	store.SetClock(clock.Now)

	books := NewBookService(store)
	txs := NewTransactionService(store, DefaultLendingPolicy(), testLogger())
	txs.SetClock(clock.Now)
	return store, books, txs, clock
}

func createBook(t *testing.T, books *BookService, copies int32) *models.BookResponse {
	t.Helper()
	book, err := books.CreateBook(context.Background(), models.CreateBookRequest{
		Title:       "Gitanjali",
		Author:      "Rabindranath Tagore",
		Category:    "Poetry",
		Language:    "Bengali",
		TotalCopies: int32Ptr(copies),
	}, 1)
	require.NoError(t, err)
	return book
}

func createMember(t *testing.T, store *memstore.Store, code string) *models.MemberResponse {
	t.Helper()
	member, err := NewMemberService(store).CreateMember(context.Background(), models.CreateMemberRequest{
		MemberCode: code,
		FullName:   "Member " + code,
	})
	require.NoError(t, err)
	return member
}

// assertCopiesBalanced checks available + issued == total and both are non-negative.
func assertCopiesBalanced(t *testing.T, books *BookService, id int32) *models.BookResponse {
	t.Helper()
	book, err := books.GetBookByID(context.Background(), id)
	require.NoError(t, err)
	require.GreaterOrEqual(t, book.AvailableCopies, int32(0))
	require.GreaterOrEqual(t, book.IssuedCopies, int32(0))
	require.Equal(t, book.TotalCopies, book.AvailableCopies+book.IssuedCopies)
	return book
}
