package queries

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = "id, book_id, borrower_id, borrower_name, issue_date, due_date, return_date, " +
	"status, fine_amount, fine_paid, renewal_count, notes, created_by, updated_by, created_at, updated_at"

var transactionColumnList = strings.Split(transactionColumns, ", ")

func transactionScanTargets(i *BookTransaction) []interface{} {
	return []interface{}{
		&i.ID,
		&i.BookID,
		&i.BorrowerID,
		&i.BorrowerName,
		&i.IssueDate,
		&i.DueDate,
		&i.ReturnDate,
		&i.Status,
		&i.FineAmount,
		&i.FinePaid,
		&i.RenewalCount,
		&i.Notes,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
}

func scanTransaction(row pgx.Row) (BookTransaction, error) {
	var i BookTransaction
	err := row.Scan(transactionScanTargets(&i)...)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO book_transactions (
    book_id, borrower_id, borrower_name, issue_date, due_date, status, notes, created_by, updated_by
) VALUES (
    $1, $2, $3, $4, $5, 'issued', $6, $7, $7
)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	BookID       int32              `json:"book_id"`
	BorrowerID   int32              `json:"borrower_id"`
	BorrowerName string             `json:"borrower_name"`
	IssueDate    pgtype.Timestamptz `json:"issue_date"`
	DueDate      pgtype.Timestamptz `json:"due_date"`
	Notes        pgtype.Text        `json:"notes"`
	CreatedBy    pgtype.Int4        `json:"created_by"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (BookTransaction, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.BookID,
		arg.BorrowerID,
		arg.BorrowerName,
		arg.IssueDate,
		arg.DueDate,
		arg.Notes,
		arg.CreatedBy,
	)
	return scanTransaction(row)
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT ` + transactionColumns + ` FROM book_transactions
WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id int32) (BookTransaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	return scanTransaction(row)
}

const markTransactionReturned = `-- name: MarkTransactionReturned :one
UPDATE book_transactions
SET status = 'returned',
    return_date = $2,
    fine_amount = $3,
    updated_by = $4,
    updated_at = NOW()
WHERE id = $1 AND status = 'issued'
RETURNING ` + transactionColumns

type MarkTransactionReturnedParams struct {
	ID         int32              `json:"id"`
	ReturnDate pgtype.Timestamptz `json:"return_date"`
	FineAmount pgtype.Numeric     `json:"fine_amount"`
	UpdatedBy  pgtype.Int4        `json:"updated_by"`
}

// MarkTransactionReturned only matches an issued transaction, so of two
// concurrent returns exactly one gets a row back.
func (q *Queries) MarkTransactionReturned(ctx context.Context, arg MarkTransactionReturnedParams) (BookTransaction, error) {
	row := q.db.QueryRow(ctx, markTransactionReturned, arg.ID, arg.ReturnDate, arg.FineAmount, arg.UpdatedBy)
	return scanTransaction(row)
}

const renewTransaction = `-- name: RenewTransaction :one
UPDATE book_transactions
SET due_date = $2,
    renewal_count = renewal_count + 1,
    updated_by = $5,
    updated_at = NOW()
WHERE id = $1
  AND status = 'issued'
  AND due_date >= $3
  AND renewal_count < $4
RETURNING ` + transactionColumns

type RenewTransactionParams struct {
	ID          int32              `json:"id"`
	DueDate     pgtype.Timestamptz `json:"due_date"`
	Now         pgtype.Timestamptz `json:"now"`
	MaxRenewals int32              `json:"max_renewals"`
	UpdatedBy   pgtype.Int4        `json:"updated_by"`
}

func (q *Queries) RenewTransaction(ctx context.Context, arg RenewTransactionParams) (BookTransaction, error) {
	row := q.db.QueryRow(ctx, renewTransaction, arg.ID, arg.DueDate, arg.Now, arg.MaxRenewals, arg.UpdatedBy)
	return scanTransaction(row)
}

const payTransactionFine = `-- name: PayTransactionFine :one
UPDATE book_transactions
SET fine_paid = TRUE, updated_by = $2, updated_at = NOW()
WHERE id = $1 AND status = 'returned' AND fine_amount > 0 AND NOT fine_paid
RETURNING ` + transactionColumns

type PayTransactionFineParams struct {
	ID        int32       `json:"id"`
	UpdatedBy pgtype.Int4 `json:"updated_by"`
}

func (q *Queries) PayTransactionFine(ctx context.Context, arg PayTransactionFineParams) (BookTransaction, error) {
	row := q.db.QueryRow(ctx, payTransactionFine, arg.ID, arg.UpdatedBy)
	return scanTransaction(row)
}

const listActiveTransactionsByBorrower = `-- name: ListActiveTransactionsByBorrower :many
SELECT ` + transactionColumns + ` FROM book_transactions
WHERE borrower_id = $1 AND status = 'issued'
ORDER BY due_date
`

func (q *Queries) ListActiveTransactionsByBorrower(ctx context.Context, borrowerID int32) ([]BookTransaction, error) {
	rows, err := q.db.Query(ctx, listActiveTransactionsByBorrower, borrowerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BookTransaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
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

const getLendingStats = `-- name: GetLendingStats :one
SELECT
    COUNT(*) FILTER (WHERE status = 'issued')::bigint AS active_loans,
    COUNT(*) FILTER (WHERE status = 'issued' AND due_date < $1)::bigint AS overdue_loans,
    COALESCE(SUM(fine_amount) FILTER (WHERE status = 'returned' AND NOT fine_paid), 0)::numeric AS outstanding_fines
FROM book_transactions
`

type GetLendingStatsRow struct {
	ActiveLoans      int64          `json:"active_loans"`
	OverdueLoans     int64          `json:"overdue_loans"`
	OutstandingFines pgtype.Numeric `json:"outstanding_fines"`
}

func (q *Queries) GetLendingStats(ctx context.Context, now pgtype.Timestamptz) (GetLendingStatsRow, error) {
	row := q.db.QueryRow(ctx, getLendingStats, now)
	var i GetLendingStatsRow
	err := row.Scan(&i.ActiveLoans, &i.OverdueLoans, &i.OutstandingFines)
	return i, err
}

// TransactionFilter narrows ListTransactions and CountTransactions. Status may
// be issued, returned or overdue; overdue is evaluated against Now.
type TransactionFilter struct {
	Status     string
	BookID     int32
	BorrowerID int32
	Now        pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]TransactionDetail, error) {
	query, args, err := buildTransactionListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TransactionDetail{}
	for rows.Next() {
		var i TransactionDetail
		targets := append(transactionScanTargets(&i.BookTransaction), &i.BookTitle)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	query, args, err := buildTransactionCountQuery(f)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
