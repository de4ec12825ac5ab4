package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

// IssueBookTx mirrors queries.Store.IssueBookTx.
func (s *Store) IssueBookTx(_ context.Context, arg queries.CreateTransactionParams, limits queries.LoanLimits) (queries.BookTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := limits.Check(s.activeLoans(arg.BorrowerID), arg.BookID); err != nil {
		return queries.BookTransaction{}, err
	}
	b, ok := s.liveBook(arg.BookID)
	if !ok || b.AvailableCopies <= 0 {
		return queries.BookTransaction{}, queries.ErrConditionNotMet
	}
	if _, ok := s.members[arg.BorrowerID]; !ok {
		return queries.BookTransaction{}, fmt.Errorf("create transaction: borrower %d does not exist", arg.BorrowerID)
	}

	now := s.stamp()
	b.AvailableCopies--
	b.IssuedCopies++
	b.UpdatedAt = now
	s.books[b.ID] = b

	tx := queries.BookTransaction{
		ID:           s.id("book_transactions"),
		BookID:       arg.BookID,
		BorrowerID:   arg.BorrowerID,
		BorrowerName: arg.BorrowerName,
		IssueDate:    arg.IssueDate,
		DueDate:      arg.DueDate,
		Status:       "issued",
		FineAmount:   queries.NumericFromDecimal(decimal.Zero),
		Notes:        arg.Notes,
		CreatedBy:    arg.CreatedBy,
		UpdatedBy:    arg.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !tx.IssueDate.Valid {
		tx.IssueDate = now
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

// ReturnBookTx mirrors queries.Store.ReturnBookTx.
func (s *Store) ReturnBookTx(_ context.Context, arg queries.MarkTransactionReturnedParams) (queries.BookTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[arg.ID]
	if !ok || tx.Status != "issued" {
		return queries.BookTransaction{}, queries.ErrConditionNotMet
	}
	b, ok := s.books[tx.BookID]
	if !ok || b.IssuedCopies <= 0 {
		return queries.BookTransaction{}, fmt.Errorf("book %d has no issued copy to release", tx.BookID)
	}

	now := s.stamp()
	b.AvailableCopies++
	b.IssuedCopies--
	b.UpdatedAt = now
	s.books[b.ID] = b

	tx.Status = "returned"
	tx.ReturnDate = arg.ReturnDate
	tx.FineAmount = arg.FineAmount
	tx.UpdatedBy = arg.UpdatedBy
	tx.UpdatedAt = now
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id int32) (queries.BookTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return queries.BookTransaction{}, pgx.ErrNoRows
	}
	return tx, nil
}

func (s *Store) RenewTransaction(_ context.Context, arg queries.RenewTransactionParams) (queries.BookTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[arg.ID]
	if !ok || tx.Status != "issued" || tx.DueDate.Time.Before(arg.Now.Time) || tx.RenewalCount >= arg.MaxRenewals {
		return queries.BookTransaction{}, pgx.ErrNoRows
	}
	tx.DueDate = arg.DueDate
	tx.RenewalCount++
	tx.UpdatedBy = arg.UpdatedBy
	tx.UpdatedAt = s.stamp()
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) PayTransactionFine(_ context.Context, arg queries.PayTransactionFineParams) (queries.BookTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[arg.ID]
	if !ok || tx.Status != "returned" || tx.FinePaid || !queries.DecimalFromNumeric(tx.FineAmount).IsPositive() {
		return queries.BookTransaction{}, pgx.ErrNoRows
	}
	tx.FinePaid = true
	tx.UpdatedBy = arg.UpdatedBy
	tx.UpdatedAt = s.stamp()
	s.transactions[tx.ID] = tx
	return tx, nil
}

// activeLoans returns the borrower's issued transactions. Callers hold s.mu.
func (s *Store) activeLoans(borrowerID int32) []queries.BookTransaction {
	out := []queries.BookTransaction{}
	for _, tx := range s.transactions {
		if tx.BorrowerID == borrowerID && tx.Status == "issued" {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Time.Before(out[j].DueDate.Time) })
	return out
}

func (s *Store) GetLendingStats(_ context.Context, now pgtype.Timestamptz) (queries.GetLendingStatsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row queries.GetLendingStatsRow
	outstanding := decimal.Zero
	for _, tx := range s.transactions {
		switch tx.Status {
		case "issued":
			row.ActiveLoans++
			if tx.DueDate.Time.Before(now.Time) {
				row.OverdueLoans++
			}
		case "returned":
			if !tx.FinePaid {
				outstanding = outstanding.Add(queries.DecimalFromNumeric(tx.FineAmount))
			}
		}
	}
	row.OutstandingFines = queries.NumericFromDecimal(outstanding)
	return row, nil
}

func (s *Store) filterTransactions(f queries.TransactionFilter) []queries.TransactionDetail {
	var out []queries.TransactionDetail
	for _, tx := range s.transactions {
		switch f.Status {
		case "issued", "returned":
			if tx.Status != f.Status {
				continue
			}
		case "overdue":
			if tx.Status != "issued" || !tx.DueDate.Time.Before(f.Now.Time) {
				continue
			}
		}
		if f.BookID > 0 && tx.BookID != f.BookID {
			continue
		}
		if f.BorrowerID > 0 && tx.BorrowerID != f.BorrowerID {
			continue
		}
		out = append(out, queries.TransactionDetail{
			BookTransaction: tx,
			BookTitle:       s.books[tx.BookID].Title,
		})
	}

	if f.Status == "overdue" {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].DueDate.Time.Equal(out[j].DueDate.Time) {
				return out[i].DueDate.Time.Before(out[j].DueDate.Time)
			}
			return out[i].ID < out[j].ID
		})
	} else {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].IssueDate.Time.Equal(out[j].IssueDate.Time) {
				return out[i].IssueDate.Time.After(out[j].IssueDate.Time)
			}
			return out[i].ID > out[j].ID
		})
	}
	return out
}

func (s *Store) ListTransactions(_ context.Context, f queries.TransactionFilter) ([]queries.TransactionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.filterTransactions(f), f.Limit, f.Offset), nil
}

func (s *Store) CountTransactions(_ context.Context, f queries.TransactionFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterTransactions(f))), nil
}
