package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store adds the multi-statement operations that must commit or roll back as
// one unit on top of the single-statement Queries.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: New(pool),
		pool:    pool,
	}
}

func (s *Store) execTx(ctx context.Context, fn func(*Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(s.WithTx(tx))
	})
}

// LoanLimits are the per-borrower rules IssueBookTx checks under the member
// lock. The zero value checks nothing.
type LoanLimits struct {
	MaxActive   int
	OnePerTitle bool
}

// Check applies the limits to the borrower's current active loans.
func (l LoanLimits) Check(active []BookTransaction, bookID int32) error {
	if l.MaxActive > 0 && len(active) >= l.MaxActive {
		return ErrLoanLimit
	}
	if l.OnePerTitle {
		for _, tx := range active {
			if tx.BookID == bookID {
				return ErrDuplicateLoan
			}
		}
	}
	return nil
}

func (l LoanLimits) guarded() bool {
	return l.MaxActive > 0 || l.OnePerTitle
}

// IssueBookTx takes one available copy of the book and records the loan.
// ErrConditionNotMet means the book had no available copy (or is gone);
// ErrLoanLimit and ErrDuplicateLoan come from limits.
func (s *Store) IssueBookTx(ctx context.Context, arg CreateTransactionParams, limits LoanLimits) (BookTransaction, error) {
	var result BookTransaction
	err := s.execTx(ctx, func(q *Queries) error {
		if limits.guarded() {
			if err := q.LockMember(ctx, arg.BorrowerID); err != nil {
				return fmt.Errorf("lock member: %w", err)
			}
			active, err := q.ListActiveTransactionsByBorrower(ctx, arg.BorrowerID)
			if err != nil {
				return fmt.Errorf("list active loans: %w", err)
			}
			if err := limits.Check(active, arg.BookID); err != nil {
				return err
			}
		}

		n, err := q.ReserveCopy(ctx, arg.BookID)
		if err != nil {
			return fmt.Errorf("reserve copy: %w", err)
		}
		if n == 0 {
			return ErrConditionNotMet
		}
		result, err = q.CreateTransaction(ctx, arg)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	return result, err
}

// ReturnBookTx closes an issued loan and gives the copy back to the book.
// ErrConditionNotMet means the transaction was not in the issued state.
func (s *Store) ReturnBookTx(ctx context.Context, arg MarkTransactionReturnedParams) (BookTransaction, error) {
	var result BookTransaction
	err := s.execTx(ctx, func(q *Queries) error {
		var err error
		result, err = q.MarkTransactionReturned(ctx, arg)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConditionNotMet
		}
		if err != nil {
			return fmt.Errorf("mark returned: %w", err)
		}
		n, err := q.ReleaseCopy(ctx, result.BookID)
		if err != nil {
			return fmt.Errorf("release copy: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("book %d has no issued copy to release", result.BookID)
		}
		return nil
	})
	return result, err
}

// RegisterForEventTx claims a place in the event and inserts the registration.
// ErrConditionNotMet means the event was not accepting registrations at now;
// ErrUniqueViolation means the email already holds an active registration.
func (s *Store) RegisterForEventTx(ctx context.Context, arg CreateRegistrationParams, now pgtype.Timestamptz) (EventRegistration, error) {
	var result EventRegistration
	err := s.execTx(ctx, func(q *Queries) error {
		existing, err := q.CountActiveRegistrationsByEmail(ctx, CountActiveRegistrationsByEmailParams{
			EventID: arg.EventID,
			Email:   arg.Email,
		})
		if err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if existing > 0 {
			return ErrUniqueViolation
		}
		n, err := q.ClaimEventSlot(ctx, ClaimEventSlotParams{ID: arg.EventID, Now: now})
		if err != nil {
			return fmt.Errorf("claim slot: %w", err)
		}
		if n == 0 {
			return ErrConditionNotMet
		}
		result, err = q.CreateRegistration(ctx, arg)
		if err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
		return nil
	})
	return result, err
}

// UpdateRegistrationStatusTx moves a registration from FromStatus to ToStatus
// and frees its place when it stops being active. ErrConditionNotMet means the
// registration was no longer in FromStatus.
func (s *Store) UpdateRegistrationStatusTx(ctx context.Context, arg SetRegistrationStatusParams, releaseSlot bool) (EventRegistration, error) {
	var result EventRegistration
	err := s.execTx(ctx, func(q *Queries) error {
		var err error
		result, err = q.SetRegistrationStatus(ctx, arg)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConditionNotMet
		}
		if err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		if !releaseSlot {
			return nil
		}
		if _, err := q.ReleaseEventSlot(ctx, result.EventID); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		return nil
	})
	return result, err
}
