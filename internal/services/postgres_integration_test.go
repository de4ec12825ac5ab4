package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/maxcyking/ngo-library-sub001/internal/config"
	"github.com/maxcyking/ngo-library-sub001/internal/database"
	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// PostgresIntegrationTestSuite runs the lending and registration invariants
// against a real database. It needs DATABASE_URL.
type PostgresIntegrationTestSuite struct {
	suite.Suite
	db      *database.Database
	store   *queries.Store
	books   *BookService
	members *MemberService
	txs     *TransactionService
	events  *EventService
	regs    *RegistrationService
	ctx     context.Context
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationTestSuite))
}

func (s *PostgresIntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("Skipping integration tests in short mode")
	}
	if os.Getenv("DATABASE_URL") == "" {
		s.T().Skip("DATABASE_URL not set, skipping database integration tests")
	}

	s.ctx = context.Background()
	cfg, err := config.Load()
	s.Require().NoError(err)

	s.db, err = database.New(cfg)
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(s.ctx, s.db.Pool))

	s.store = queries.NewStore(s.db.Pool)
	s.books = NewBookService(s.store)
	s.members = NewMemberService(s.store)
	s.txs = NewTransactionService(s.store, DefaultLendingPolicy(), testLogger())
	s.events = NewEventService(s.store, testLogger())
	s.regs = NewRegistrationService(s.store, testLogger())
}

func (s *PostgresIntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresIntegrationTestSuite) newBook(copies int32) *models.BookResponse {
	book, err := s.books.CreateBook(s.ctx, models.CreateBookRequest{
		Title:       "Godan " + uuid.NewString()[:8],
		Author:      "Premchand",
		Category:    "Fiction",
		Language:    "Hindi",
		TotalCopies: int32Ptr(copies),
	}, 0)
	s.Require().NoError(err)
	return book
}

func (s *PostgresIntegrationTestSuite) newMember() *models.MemberResponse {
	code := "IT-" + uuid.NewString()[:12]
	member, err := s.members.CreateMember(s.ctx, models.CreateMemberRequest{
		MemberCode: code,
		FullName:   "Member " + code,
	})
	s.Require().NoError(err)
	return member
}

func (s *PostgresIntegrationTestSuite) TestIssueAndReturnKeepCopiesBalanced() {
	book := s.newBook(2)
	member := s.newMember()

	tx, err := s.txs.IssueBook(s.ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: member.ID}, 0)
	s.Require().NoError(err)
	s.Equal(models.TransactionStatusIssued, tx.Status)

	got, err := s.books.GetBookByID(s.ctx, book.ID)
	s.Require().NoError(err)
	s.Equal(int32(1), got.AvailableCopies)
	s.Equal(int32(1), got.IssuedCopies)

	returned, err := s.txs.ReturnBook(s.ctx, tx.ID, 0)
	s.Require().NoError(err)
	s.Equal(models.TransactionStatusReturned, returned.Status)

	_, err = s.txs.ReturnBook(s.ctx, tx.ID, 0)
	s.ErrorIs(err, ErrAlreadyReturned)

	got, err = s.books.GetBookByID(s.ctx, book.ID)
	s.Require().NoError(err)
	s.Equal(got.TotalCopies, got.AvailableCopies)
	s.Equal(int32(0), got.IssuedCopies)
}

func (s *PostgresIntegrationTestSuite) TestParallelIssueOfLastCopy() {
	book := s.newBook(1)
	const n = 8
	borrowers := make([]int32, n)
	for i := range borrowers {
		borrowers[i] = s.newMember().ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.txs.IssueBook(s.ctx, models.IssueBookRequest{BookID: book.ID, BorrowerID: borrowers[i]}, 0)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, ErrNoCopiesAvailable)
	}
	s.Equal(1, ok)

	got, err := s.books.GetBookByID(s.ctx, book.ID)
	s.Require().NoError(err)
	s.Equal(int32(0), got.AvailableCopies)
	s.Equal(int32(1), got.IssuedCopies)
}

func (s *PostgresIntegrationTestSuite) TestRegistrationCapacityUnderLoad() {
	const capacity = 3
	const n = 12
	event, err := s.events.CreateEvent(s.ctx, models.CreateEventRequest{
		Title:              "Literacy Workshop " + uuid.NewString()[:8],
		EventDate:          time.Now().Add(72 * time.Hour),
		MaxParticipants:    int32Ptr(capacity),
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	}, 0)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, n)
	ids := make([]int32, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := s.regs.Register(s.ctx, event.ID, models.RegisterRequest{
				ParticipantName: fmt.Sprintf("Participant %d", i),
				Email:           fmt.Sprintf("p%d@example.org", i),
			})
			errs[i] = err
			if err == nil {
				ids[i] = reg.ID
			}
		}(i)
	}
	wg.Wait()

	var first int32
	ok := 0
	for i, err := range errs {
		if err == nil {
			ok++
			first = ids[i]
			continue
		}
		s.ErrorIs(err, ErrRegistrationClosed)
	}
	s.Equal(capacity, ok)

	got, err := s.events.GetEvent(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(int32(capacity), got.CurrentParticipants)

	_, err = s.regs.UpdateStatus(s.ctx, first, models.RegistrationStatusCancelled)
	s.Require().NoError(err)

	got, err = s.events.GetEvent(s.ctx, event.ID)
	s.Require().NoError(err)
	s.Equal(int32(capacity-1), got.CurrentParticipants)
}

func (s *PostgresIntegrationTestSuite) TestDeleteEventWithCancelledRegistrations() {
	event, err := s.events.CreateEvent(s.ctx, models.CreateEventRequest{
		Title:              "Story Hour " + uuid.NewString()[:8],
		EventDate:          time.Now().Add(48 * time.Hour),
		IsRegistrationOpen: true,
		Status:             models.EventStatusPublished,
	}, 0)
	s.Require().NoError(err)

	cancelled, err := s.regs.Register(s.ctx, event.ID, models.RegisterRequest{ParticipantName: "Meera", Email: "meera@example.org"})
	s.Require().NoError(err)
	noShow, err := s.regs.Register(s.ctx, event.ID, models.RegisterRequest{ParticipantName: "Ravi", Email: "ravi@example.org"})
	s.Require().NoError(err)

	s.ErrorIs(s.events.DeleteEvent(s.ctx, event.ID), ErrEventHasRegistrations)

	_, err = s.regs.UpdateStatus(s.ctx, cancelled.ID, models.RegistrationStatusCancelled)
	s.Require().NoError(err)
	_, err = s.regs.UpdateStatus(s.ctx, noShow.ID, models.RegistrationStatusNoShow)
	s.Require().NoError(err)

	s.Require().NoError(s.events.DeleteEvent(s.ctx, event.ID))

	_, err = s.events.GetEvent(s.ctx, event.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.regs.GetRegistration(s.ctx, cancelled.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresIntegrationTestSuite) TestParallelIssueRespectsLoanLimit() {
	member := s.newMember()
	limit := DefaultLendingPolicy().MaxActiveLoans
	const n = 10
	titles := make([]int32, n)
	for i := range titles {
		titles[i] = s.newBook(1).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.txs.IssueBook(s.ctx, models.IssueBookRequest{BookID: titles[i], BorrowerID: member.ID}, 0)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, ErrLoanLimitReached)
	}
	s.Equal(limit, ok)

	_, err := s.txs.IssueBook(s.ctx, models.IssueBookRequest{BookID: titles[0], BorrowerID: member.ID}, 0)
	s.Error(err)
}
