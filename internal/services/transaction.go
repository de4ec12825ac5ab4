package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/metrics"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// TransactionQuerier defines the interface for transaction database operations
type TransactionQuerier interface {
	GetBookByID(ctx context.Context, id int32) (queries.Book, error)
	GetMemberByID(ctx context.Context, id int32) (queries.Member, error)
	GetTransactionByID(ctx context.Context, id int32) (queries.BookTransaction, error)
	IssueBookTx(ctx context.Context, arg queries.CreateTransactionParams, limits queries.LoanLimits) (queries.BookTransaction, error)
	ReturnBookTx(ctx context.Context, arg queries.MarkTransactionReturnedParams) (queries.BookTransaction, error)
	RenewTransaction(ctx context.Context, arg queries.RenewTransactionParams) (queries.BookTransaction, error)
	PayTransactionFine(ctx context.Context, arg queries.PayTransactionFineParams) (queries.BookTransaction, error)
	ListTransactions(ctx context.Context, f queries.TransactionFilter) ([]queries.TransactionDetail, error)
	CountTransactions(ctx context.Context, f queries.TransactionFilter) (int64, error)
}

// LendingNotifier receives committed lending events.
type LendingNotifier interface {
	BookIssued(ctx context.Context, tx models.TransactionResponse)
	BookReturned(ctx context.Context, tx models.TransactionResponse)
}

// LendingPolicy holds the circulation rules.
type LendingPolicy struct {
	LoanDays       int
	FinePerDay     decimal.Decimal
	MaxActiveLoans int
	MaxRenewals    int
}

// DefaultLendingPolicy is two weeks, 5 per day, five loans, two renewals.
func DefaultLendingPolicy() LendingPolicy {
	return LendingPolicy{
		LoanDays:       14,
		FinePerDay:     decimal.NewFromInt(5),
		MaxActiveLoans: 5,
		MaxRenewals:    2,
	}
}

// TransactionService handles all business logic related to book transactions
type TransactionService struct {
	queries  TransactionQuerier
	policy   LendingPolicy
	notifier LendingNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      Clock
}

// NewTransactionService creates a new transaction service
func NewTransactionService(querier TransactionQuerier, policy LendingPolicy, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		queries: querier,
		policy:  policy,
		logger:  logger,
		now:     systemClock,
	}
}

func (s *TransactionService) SetNotifier(n LendingNotifier) { s.notifier = n }
func (s *TransactionService) SetMetrics(m *metrics.Metrics) { s.metrics = m }
func (s *TransactionService) SetClock(now Clock)            { s.now = now }
func (s *TransactionService) FinePerDay() decimal.Decimal   { return s.policy.FinePerDay }

// IssueBook lends one copy of a title to an active member. The borrower's loan
// limits, the copy counters and the transaction row are checked and written
// together; the last copy can only be issued once however many requests race
// for it.
func (s *TransactionService) IssueBook(ctx context.Context, req models.IssueBookRequest, actorID int32) (*models.TransactionResponse, error) {
	now := s.now()

	member, err := s.queries.GetMemberByID(ctx, req.BorrowerID)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	if !member.IsActive {
		return nil, ErrBorrowerInactive
	}

	book, err := s.queries.GetBookByID(ctx, req.BookID)
	if err != nil {
		return nil, notFoundOr(err, "book")
	}

	dueDate := now.AddDate(0, 0, s.policy.LoanDays)
	if req.DueDate != nil {
		dueDate = req.DueDate.UTC()
	}
	if !dueDate.After(now) {
		return nil, fmt.Errorf("%w: due date must be in the future", ErrValidation)
	}

	tx, err := s.queries.IssueBookTx(ctx, queries.CreateTransactionParams{
		BookID:       req.BookID,
		BorrowerID:   req.BorrowerID,
		BorrowerName: member.FullName,
		IssueDate:    queries.Timestamptz(now),
		DueDate:      queries.Timestamptz(dueDate),
		Notes:        optionalText(req.Notes),
		CreatedBy:    actor(actorID),
	}, queries.LoanLimits{MaxActive: s.policy.MaxActiveLoans, OnePerTitle: true})
	switch {
	case errors.Is(err, queries.ErrLoanLimit):
		s.metrics.LoanOperation("issue", "limit")
		return nil, ErrLoanLimitReached
	case errors.Is(err, queries.ErrDuplicateLoan):
		s.metrics.LoanOperation("issue", "duplicate")
		return nil, ErrAlreadyBorrowed
	}
	if errors.Is(err, queries.ErrConditionNotMet) {
		s.metrics.LoanOperation("issue", "no_copies")
		if _, getErr := s.queries.GetBookByID(ctx, req.BookID); getErr != nil {
			return nil, notFoundOr(getErr, "book")
		}
		return nil, ErrNoCopiesAvailable
	}
	if err != nil {
		s.metrics.LoanOperation("issue", "error")
		return nil, fmt.Errorf("failed to issue book: %w", err)
	}

	s.metrics.LoanOperation("issue", "ok")
	s.logger.Info("book issued",
		"transaction_id", tx.ID,
		"book_id", tx.BookID,
		"borrower_id", tx.BorrowerID,
		"due_date", dueDate,
	)

	response := tx.ToResponse(now, s.policy.FinePerDay)
	response.BookTitle = book.Title
	if s.notifier != nil {
		s.notifier.BookIssued(ctx, response)
	}
	return &response, nil
}

// ReturnBook closes an issued loan, assesses the late fine and puts the copy
// back on the shelf. Only one of two concurrent returns succeeds.
func (s *TransactionService) ReturnBook(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error) {
	now := s.now()

	existing, err := s.queries.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, notFoundOr(err, "transaction")
	}
	if existing.Status != models.TransactionStatusIssued {
		return nil, ErrAlreadyReturned
	}

	fine := models.CalculateFine(existing.DueDate.Time, now, s.policy.FinePerDay)

	tx, err := s.queries.ReturnBookTx(ctx, queries.MarkTransactionReturnedParams{
		ID:         transactionID,
		ReturnDate: queries.Timestamptz(now),
		FineAmount: queries.NumericFromDecimal(fine),
		UpdatedBy:  actor(actorID),
	})
	if errors.Is(err, queries.ErrConditionNotMet) {
		s.metrics.LoanOperation("return", "already_returned")
		return nil, ErrAlreadyReturned
	}
	if err != nil {
		s.metrics.LoanOperation("return", "error")
		return nil, fmt.Errorf("failed to return book: %w", err)
	}

	s.metrics.LoanOperation("return", "ok")
	s.metrics.FineAssessed(fine.InexactFloat64())
	s.logger.Info("book returned",
		"transaction_id", tx.ID,
		"book_id", tx.BookID,
		"fine", fine.String(),
	)

	response := tx.ToResponse(now, s.policy.FinePerDay)
	if book, err := s.queries.GetBookByID(ctx, tx.BookID); err == nil {
		response.BookTitle = book.Title
	}
	if s.notifier != nil {
		s.notifier.BookReturned(ctx, response)
	}
	return &response, nil
}

// RenewBook extends the due date of a loan that is not yet overdue by one loan period.
func (s *TransactionService) RenewBook(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error) {
	now := s.now()

	existing, err := s.queries.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, notFoundOr(err, "transaction")
	}
	if existing.Status != models.TransactionStatusIssued {
		return nil, ErrAlreadyReturned
	}
	if models.IsOverdue(existing.Status, existing.DueDate.Time, now) {
		return nil, fmt.Errorf("%w: loan is overdue", ErrRenewalNotAllowed)
	}
	if int(existing.RenewalCount) >= s.policy.MaxRenewals {
		return nil, fmt.Errorf("%w: renewal limit reached", ErrRenewalNotAllowed)
	}

	newDue := existing.DueDate.Time.AddDate(0, 0, s.policy.LoanDays)
	tx, err := s.queries.RenewTransaction(ctx, queries.RenewTransactionParams{
		ID:          transactionID,
		DueDate:     queries.Timestamptz(newDue),
		Now:         queries.Timestamptz(now),
		MaxRenewals: int32(s.policy.MaxRenewals),
		UpdatedBy:   actor(actorID),
	})
	if queries.IsNotFound(err) {
		s.metrics.LoanOperation("renew", "refused")
		return nil, ErrRenewalNotAllowed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to renew transaction: %w", err)
	}

	s.metrics.LoanOperation("renew", "ok")
	response := tx.ToResponse(now, s.policy.FinePerDay)
	return &response, nil
}

// PayFine marks the fine of a returned transaction as paid.
func (s *TransactionService) PayFine(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error) {
	tx, err := s.queries.PayTransactionFine(ctx, queries.PayTransactionFineParams{
		ID:        transactionID,
		UpdatedBy: actor(actorID),
	})
	if queries.IsNotFound(err) {
		if _, getErr := s.queries.GetTransactionByID(ctx, transactionID); getErr != nil {
			return nil, notFoundOr(getErr, "transaction")
		}
		return nil, ErrNoFineDue
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pay fine: %w", err)
	}

	s.metrics.LoanOperation("pay_fine", "ok")
	response := tx.ToResponse(s.now(), s.policy.FinePerDay)
	return &response, nil
}

// GetTransaction returns one transaction with its overdue projection
func (s *TransactionService) GetTransaction(ctx context.Context, id int32) (*models.TransactionResponse, error) {
	tx, err := s.queries.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "transaction")
	}
	response := tx.ToResponse(s.now(), s.policy.FinePerDay)
	return &response, nil
}

// ListTransactions lists transactions. The overdue filter and every row's
// is_overdue flag are evaluated against the same instant.
func (s *TransactionService) ListTransactions(ctx context.Context, req models.TransactionListRequest) (*models.TransactionListResponse, error) {
	now := s.now()
	page, limit := normalizePage(req.Page, req.Limit)

	filter := queries.TransactionFilter{
		Status:     req.Status,
		BookID:     req.BookID,
		BorrowerID: req.BorrowerID,
		Now:        queries.Timestamptz(now),
		Limit:      int32(limit),
		Offset:     int32((page - 1) * limit),
	}

	rows, err := s.queries.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := s.queries.CountTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	items := make([]models.TransactionResponse, len(rows))
	for i := range rows {
		items[i] = rows[i].ToResponse(now, s.policy.FinePerDay)
	}

	return &models.TransactionListResponse{
		Transactions: items,
		Pagination:   models.NewPagination(page, limit, total),
	}, nil
}

// GetBorrowerHistory returns every loan of one member, newest first
func (s *TransactionService) GetBorrowerHistory(ctx context.Context, memberID int32, page, limit int) (*models.TransactionListResponse, error) {
	if _, err := s.queries.GetMemberByID(ctx, memberID); err != nil {
		return nil, notFoundOr(err, "member")
	}
	return s.ListTransactions(ctx, models.TransactionListRequest{
		BorrowerID: memberID,
		Page:       page,
		Limit:      limit,
	})
}

// ListOverdue returns every issued loan past its due date at now.
func (s *TransactionService) ListOverdue(ctx context.Context) ([]models.OverdueLoanDetail, error) {
	now := s.now()
	rows, err := s.queries.ListTransactions(ctx, queries.TransactionFilter{
		Status: models.TransactionFilterOverdue,
		Now:    queries.Timestamptz(now),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue transactions: %w", err)
	}

	details := make([]models.OverdueLoanDetail, 0, len(rows))
	for i := range rows {
		r := rows[i].ToResponse(now, s.policy.FinePerDay)
		details = append(details, models.OverdueLoanDetail{
			TransactionID: r.ID,
			BookID:        r.BookID,
			BookTitle:     r.BookTitle,
			BorrowerID:    r.BorrowerID,
			BorrowerName:  r.BorrowerName,
			DueDate:       r.DueDate,
			DaysOverdue:   r.DaysOverdue,
			AccruedFine:   r.AccruedFine,
		})
	}
	return details, nil
}
