package queries

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConditionNotMet is returned by the transactional helpers when a guarded
	// update matched no rows. Callers re-read the row to find out why.
	ErrConditionNotMet = errors.New("conditional update matched no rows")

	// ErrLoanLimit and ErrDuplicateLoan are returned by IssueBookTx when the
	// borrower's active loans rule out another one.
	ErrLoanLimit     = errors.New("borrower active loan limit reached")
	ErrDuplicateLoan = errors.New("borrower already holds this book")

	// ErrUniqueViolation is returned by stores that do not surface a *pgconn.PgError.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

const uniqueViolationCode = "23505"

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err was caused by a unique index.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
