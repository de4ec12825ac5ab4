package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardReport aggregates the counters shown on the admin dashboard.
type DashboardReport struct {
	TotalTitles         int64           `json:"total_titles"`
	TotalCopies         int64           `json:"total_copies"`
	AvailableCopies     int64           `json:"available_copies"`
	IssuedCopies        int64           `json:"issued_copies"`
	ActiveMembers       int64           `json:"active_members"`
	ActiveLoans         int64           `json:"active_loans"`
	OverdueLoans        int64           `json:"overdue_loans"`
	OutstandingFines    decimal.Decimal `json:"outstanding_fines"`
	UpcomingEvents      int64           `json:"upcoming_events"`
	ActiveRegistrations int64           `json:"active_registrations"`
	GeneratedAt         time.Time       `json:"generated_at"`
}

// OverdueLoanDetail is a row of the overdue report.
type OverdueLoanDetail struct {
	TransactionID int32           `json:"transaction_id"`
	BookID        int32           `json:"book_id"`
	BookTitle     string          `json:"book_title"`
	BorrowerID    int32           `json:"borrower_id"`
	BorrowerName  string          `json:"borrower_name"`
	DueDate       time.Time       `json:"due_date"`
	DaysOverdue   int             `json:"days_overdue"`
	AccruedFine   decimal.Decimal `json:"accrued_fine"`
}
