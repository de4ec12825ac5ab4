package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stored transaction statuses. Overdue is never stored, see IsOverdue.
const (
	TransactionStatusIssued   = "issued"
	TransactionStatusReturned = "returned"
)

// TransactionFilterOverdue is the list filter value selecting issued loans past due.
const TransactionFilterOverdue = "overdue"

// IsOverdue reports whether a loan is overdue at now. This is the only place the
// rule lives; listings, reports and the overdue filter all go through it.
func IsOverdue(status string, dueDate, now time.Time) bool {
	return status == TransactionStatusIssued && dueDate.Before(now)
}

// DaysLate counts started 24 hour periods from due to at, so a loan that
// IsOverdue is always at least one day late. Zero when at is not past due.
func DaysLate(due, at time.Time) int {
	if !at.After(due) {
		return 0
	}
	late := at.Sub(due)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// CalculateFine returns daysLate * finePerDay for a loan due at due and
// returned (or evaluated) at at.
func CalculateFine(due, at time.Time, finePerDay decimal.Decimal) decimal.Decimal {
	days := DaysLate(due, at)
	if days == 0 {
		return decimal.Zero
	}
	return finePerDay.Mul(decimal.NewFromInt(int64(days)))
}

// IssueBookRequest represents a request to lend a copy to a member
type IssueBookRequest struct {
	BookID     int32      `json:"book_id" binding:"required,min=1"`
	BorrowerID int32      `json:"borrower_id" binding:"required,min=1"`
	DueDate    *time.Time `json:"due_date"`
	Notes      string     `json:"notes" binding:"max=500"`
}

// TransactionListRequest represents the filters accepted by the transaction listing
type TransactionListRequest struct {
	Status     string `form:"status" binding:"omitempty,oneof=issued returned overdue"`
	BookID     int32  `form:"book_id"`
	BorrowerID int32  `form:"borrower_id"`
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// TransactionResponse represents a transaction response. IsOverdue, DaysOverdue
// and AccruedFine are computed at read time.
type TransactionResponse struct {
	ID           int32           `json:"id"`
	BookID       int32           `json:"book_id"`
	BookTitle    string          `json:"book_title,omitempty"`
	BorrowerID   int32           `json:"borrower_id"`
	BorrowerName string          `json:"borrower_name"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	ReturnDate   *time.Time      `json:"return_date,omitempty"`
	Status       string          `json:"status"`
	IsOverdue    bool            `json:"is_overdue"`
	DaysOverdue  int             `json:"days_overdue"`
	FineAmount   decimal.Decimal `json:"fine_amount"`
	AccruedFine  decimal.Decimal `json:"accrued_fine"`
	FinePaid     bool            `json:"fine_paid"`
	RenewalCount int32           `json:"renewal_count"`
	Notes        string          `json:"notes"`
	CreatedBy    *int32          `json:"created_by,omitempty"`
	UpdatedBy    *int32          `json:"updated_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TransactionListResponse represents a paginated transaction listing
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}
