package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// ReportQuerier interface defines the database operations needed for reports
type ReportQuerier interface {
	GetBookStats(ctx context.Context) (queries.GetBookStatsRow, error)
	CountActiveMembers(ctx context.Context) (int64, error)
	GetLendingStats(ctx context.Context, now pgtype.Timestamptz) (queries.GetLendingStatsRow, error)
	CountUpcomingEvents(ctx context.Context, now pgtype.Timestamptz) (int64, error)
	CountActiveRegistrations(ctx context.Context) (int64, error)
}

// ReportService builds the admin dashboard counters
type ReportService struct {
	db    ReportQuerier
	clock Clock
}

// NewReportService creates a new report service instance
func NewReportService(db ReportQuerier) *ReportService {
	return &ReportService{db: db, clock: systemClock}
}

func (rs *ReportService) SetClock(clock Clock) { rs.clock = clock }

// Dashboard gathers the catalogue, lending and event counters. Overdue loans
// and outstanding fines are evaluated at the current time.
func (rs *ReportService) Dashboard(ctx context.Context) (*models.DashboardReport, error) {
	now := rs.clock()
	at := queries.Timestamptz(now)

	books, err := rs.db.GetBookStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get book stats: %w", err)
	}
	members, err := rs.db.CountActiveMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	lending, err := rs.db.GetLendingStats(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to get lending stats: %w", err)
	}
	upcoming, err := rs.db.CountUpcomingEvents(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to count upcoming events: %w", err)
	}
	registrations, err := rs.db.CountActiveRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}

	return &models.DashboardReport{
		TotalTitles:         books.TotalTitles,
		TotalCopies:         books.TotalCopies,
		AvailableCopies:     books.AvailableCopies,
		IssuedCopies:        books.IssuedCopies,
		ActiveMembers:       members,
		ActiveLoans:         lending.ActiveLoans,
		OverdueLoans:        lending.OverdueLoans,
		OutstandingFines:    queries.DecimalFromNumeric(lending.OutstandingFines),
		UpcomingEvents:      upcoming,
		ActiveRegistrations: registrations,
		GeneratedAt:         now,
	}, nil
}
