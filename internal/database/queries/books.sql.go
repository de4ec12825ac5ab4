package queries

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookColumns = "id, title, author, isbn, category, language, publisher, published_year, " +
	"total_copies, available_copies, issued_copies, price, shelf_location, cover_image_url, " +
	"description, added_date, created_by, updated_by, deleted_at, created_at, updated_at"

var bookColumnList = strings.Split(bookColumns, ", ")

func scanBook(row pgx.Row) (Book, error) {
	var i Book
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Author,
		&i.Isbn,
		&i.Category,
		&i.Language,
		&i.Publisher,
		&i.PublishedYear,
		&i.TotalCopies,
		&i.AvailableCopies,
		&i.IssuedCopies,
		&i.Price,
		&i.ShelfLocation,
		&i.CoverImageUrl,
		&i.Description,
		&i.AddedDate,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.DeletedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBook = `-- name: CreateBook :one
INSERT INTO books (
    title, author, isbn, category, language, publisher, published_year,
    total_copies, available_copies, issued_copies, price, shelf_location,
    cover_image_url, description, created_by, updated_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $8, 0, $9, $10, $11, $12, $13, $13
)
RETURNING ` + bookColumns

type CreateBookParams struct {
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Isbn          pgtype.Text    `json:"isbn"`
	Category      string         `json:"category"`
	Language      string         `json:"language"`
	Publisher     pgtype.Text    `json:"publisher"`
	PublishedYear pgtype.Int4    `json:"published_year"`
	TotalCopies   int32          `json:"total_copies"`
	Price         pgtype.Numeric `json:"price"`
	ShelfLocation pgtype.Text    `json:"shelf_location"`
	CoverImageUrl pgtype.Text    `json:"cover_image_url"`
	Description   pgtype.Text    `json:"description"`
	CreatedBy     pgtype.Int4    `json:"created_by"`
}

func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (Book, error) {
	row := q.db.QueryRow(ctx, createBook,
		arg.Title,
		arg.Author,
		arg.Isbn,
		arg.Category,
		arg.Language,
		arg.Publisher,
		arg.PublishedYear,
		arg.TotalCopies,
		arg.Price,
		arg.ShelfLocation,
		arg.CoverImageUrl,
		arg.Description,
		arg.CreatedBy,
	)
	return scanBook(row)
}

const getBookByID = `-- name: GetBookByID :one
SELECT ` + bookColumns + ` FROM books
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetBookByID(ctx context.Context, id int32) (Book, error) {
	row := q.db.QueryRow(ctx, getBookByID, id)
	return scanBook(row)
}

const getBookByISBN = `-- name: GetBookByISBN :one
SELECT ` + bookColumns + ` FROM books
WHERE isbn = $1 AND deleted_at IS NULL
`

func (q *Queries) GetBookByISBN(ctx context.Context, isbn string) (Book, error) {
	row := q.db.QueryRow(ctx, getBookByISBN, isbn)
	return scanBook(row)
}

// The copy delta is computed against the stored total inside the statement so
// a concurrent issue or return cannot be lost. No row is returned when the new
// total would leave fewer copies than are currently issued.
const updateBook = `-- name: UpdateBook :one
UPDATE books SET
    title = $2,
    author = $3,
    isbn = $4,
    category = $5,
    language = $6,
    publisher = $7,
    published_year = $8,
    available_copies = available_copies + ($9 - total_copies),
    total_copies = $9,
    price = $10,
    shelf_location = $11,
    cover_image_url = $12,
    description = $13,
    updated_by = $14,
    updated_at = NOW()
WHERE id = $1
  AND deleted_at IS NULL
  AND available_copies + ($9 - total_copies) >= 0
RETURNING ` + bookColumns

type UpdateBookParams struct {
	ID            int32          `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Isbn          pgtype.Text    `json:"isbn"`
	Category      string         `json:"category"`
	Language      string         `json:"language"`
	Publisher     pgtype.Text    `json:"publisher"`
	PublishedYear pgtype.Int4    `json:"published_year"`
	TotalCopies   int32          `json:"total_copies"`
	Price         pgtype.Numeric `json:"price"`
	ShelfLocation pgtype.Text    `json:"shelf_location"`
	CoverImageUrl pgtype.Text    `json:"cover_image_url"`
	Description   pgtype.Text    `json:"description"`
	UpdatedBy     pgtype.Int4    `json:"updated_by"`
}

func (q *Queries) UpdateBook(ctx context.Context, arg UpdateBookParams) (Book, error) {
	row := q.db.QueryRow(ctx, updateBook,
		arg.ID,
		arg.Title,
		arg.Author,
		arg.Isbn,
		arg.Category,
		arg.Language,
		arg.Publisher,
		arg.PublishedYear,
		arg.TotalCopies,
		arg.Price,
		arg.ShelfLocation,
		arg.CoverImageUrl,
		arg.Description,
		arg.UpdatedBy,
	)
	return scanBook(row)
}

const updateBookCoverImage = `-- name: UpdateBookCoverImage :one
UPDATE books SET cover_image_url = $2, updated_by = $3, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + bookColumns

type UpdateBookCoverImageParams struct {
	ID            int32       `json:"id"`
	CoverImageUrl pgtype.Text `json:"cover_image_url"`
	UpdatedBy     pgtype.Int4 `json:"updated_by"`
}

func (q *Queries) UpdateBookCoverImage(ctx context.Context, arg UpdateBookCoverImageParams) (Book, error) {
	row := q.db.QueryRow(ctx, updateBookCoverImage, arg.ID, arg.CoverImageUrl, arg.UpdatedBy)
	return scanBook(row)
}

const softDeleteBook = `-- name: SoftDeleteBook :execrows
UPDATE books SET deleted_at = NOW(), updated_by = $2, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL AND issued_copies = 0
`

type SoftDeleteBookParams struct {
	ID        int32       `json:"id"`
	UpdatedBy pgtype.Int4 `json:"updated_by"`
}

func (q *Queries) SoftDeleteBook(ctx context.Context, arg SoftDeleteBookParams) (int64, error) {
	result, err := q.db.Exec(ctx, softDeleteBook, arg.ID, arg.UpdatedBy)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const reserveCopy = `-- name: ReserveCopy :execrows
UPDATE books
SET available_copies = available_copies - 1,
    issued_copies = issued_copies + 1,
    updated_at = NOW()
WHERE id = $1 AND available_copies > 0 AND deleted_at IS NULL
`

// ReserveCopy moves one copy from available to issued. It affects no row when
// the title has no copy left.
func (q *Queries) ReserveCopy(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, reserveCopy, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const releaseCopy = `-- name: ReleaseCopy :execrows
UPDATE books
SET available_copies = available_copies + 1,
    issued_copies = issued_copies - 1,
    updated_at = NOW()
WHERE id = $1 AND issued_copies > 0
`

func (q *Queries) ReleaseCopy(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, releaseCopy, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getBookStats = `-- name: GetBookStats :one
SELECT
    COUNT(*)::bigint AS total_titles,
    COALESCE(SUM(total_copies), 0)::bigint AS total_copies,
    COALESCE(SUM(available_copies), 0)::bigint AS available_copies,
    COALESCE(SUM(issued_copies), 0)::bigint AS issued_copies
FROM books
WHERE deleted_at IS NULL
`

type GetBookStatsRow struct {
	TotalTitles     int64 `json:"total_titles"`
	TotalCopies     int64 `json:"total_copies"`
	AvailableCopies int64 `json:"available_copies"`
	IssuedCopies    int64 `json:"issued_copies"`
}

func (q *Queries) GetBookStats(ctx context.Context) (GetBookStatsRow, error) {
	row := q.db.QueryRow(ctx, getBookStats)
	var i GetBookStatsRow
	err := row.Scan(
		&i.TotalTitles,
		&i.TotalCopies,
		&i.AvailableCopies,
		&i.IssuedCopies,
	)
	return i, err
}

// BookFilter narrows ListBooks and CountBooks.
type BookFilter struct {
	Query         string
	Category      string
	Language      string
	AvailableOnly bool
	Limit         int32
	Offset        int32
}

func (q *Queries) ListBooks(ctx context.Context, f BookFilter) ([]Book, error) {
	query, args, err := buildBookListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Book{}
	for rows.Next() {
		i, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) CountBooks(ctx context.Context, f BookFilter) (int64, error) {
	query, args, err := buildBookCountQuery(f)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
