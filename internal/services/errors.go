package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

// Error classes. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// Lending and registration preconditions.
var (
	ErrNoCopiesAvailable       = errors.New("no copies available")
	ErrAlreadyReturned         = errors.New("transaction already returned")
	ErrCannotReduceBelowIssued = errors.New("total copies cannot be reduced below issued copies")
	ErrBookHasIssuedCopies     = errors.New("book has issued copies")
	ErrRegistrationClosed      = errors.New("registration closed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	ErrInvalidCopies = fmt.Errorf("%w: total copies must be at least 1", ErrValidation)

	ErrBorrowerInactive          = fmt.Errorf("%w: borrower is not an active member", ErrConflict)
	ErrLoanLimitReached          = fmt.Errorf("%w: borrower has reached the active loan limit", ErrConflict)
	ErrAlreadyBorrowed           = fmt.Errorf("%w: borrower already holds a copy of this book", ErrConflict)
	ErrRenewalNotAllowed         = fmt.Errorf("%w: loan cannot be renewed", ErrConflict)
	ErrNoFineDue                 = fmt.Errorf("%w: no unpaid fine on this transaction", ErrConflict)
	ErrDuplicateISBN             = fmt.Errorf("%w: a book with this ISBN already exists", ErrConflict)
	ErrDuplicateMember           = fmt.Errorf("%w: member code already in use", ErrConflict)
	ErrAlreadyRegistered         = fmt.Errorf("%w: email already registered for this event", ErrConflict)
	ErrEventHasRegistrations     = fmt.Errorf("%w: event still has active registrations", ErrConflict)
	ErrCapacityBelowParticipants = fmt.Errorf("%w: max participants is below current participants", ErrConflict)
)

func validationError(err error) error {
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}

// notFoundOr maps a missing row to ErrNotFound and wraps anything else.
func notFoundOr(err error, what string) error {
	if queries.IsNotFound(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
