package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// ToResponse converts queries.Book to models.BookResponse
func (b *Book) ToResponse() models.BookResponse {
	return models.BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            TextPtr(b.Isbn),
		Category:        b.Category,
		Language:        b.Language,
		Publisher:       TextPtr(b.Publisher),
		PublishedYear:   Int4Ptr(b.PublishedYear),
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		IssuedCopies:    b.IssuedCopies,
		Price:           DecimalFromNumeric(b.Price),
		ShelfLocation:   TextPtr(b.ShelfLocation),
		CoverImageURL:   TextPtr(b.CoverImageUrl),
		Description:     TextPtr(b.Description),
		Status:          models.StatusForCopies(b.AvailableCopies),
		AddedDate:       b.AddedDate.Time,
		CreatedBy:       Int4Ptr(b.CreatedBy),
		UpdatedBy:       Int4Ptr(b.UpdatedBy),
		CreatedAt:       b.CreatedAt.Time,
		UpdatedAt:       b.UpdatedAt.Time,
	}
}

// ToResponse converts a transaction, deriving the overdue projection at now.
// The accrued fine of an issued loan is what returning it at now would cost;
// a returned loan reports its stored fine.
func (t *BookTransaction) ToResponse(now time.Time, finePerDay decimal.Decimal) models.TransactionResponse {
	resp := models.TransactionResponse{
		ID:           t.ID,
		BookID:       t.BookID,
		BorrowerID:   t.BorrowerID,
		BorrowerName: t.BorrowerName,
		IssueDate:    t.IssueDate.Time,
		DueDate:      t.DueDate.Time,
		ReturnDate:   TimePtr(t.ReturnDate),
		Status:       t.Status,
		IsOverdue:    models.IsOverdue(t.Status, t.DueDate.Time, now),
		FineAmount:   DecimalFromNumeric(t.FineAmount),
		FinePaid:     t.FinePaid,
		RenewalCount: t.RenewalCount,
		Notes:        t.Notes.String,
		CreatedBy:    Int4Ptr(t.CreatedBy),
		UpdatedBy:    Int4Ptr(t.UpdatedBy),
		CreatedAt:    t.CreatedAt.Time,
		UpdatedAt:    t.UpdatedAt.Time,
	}

	if resp.IsOverdue {
		resp.DaysOverdue = models.DaysLate(t.DueDate.Time, now)
		resp.AccruedFine = models.CalculateFine(t.DueDate.Time, now, finePerDay)
	} else {
		resp.AccruedFine = resp.FineAmount
	}

	return resp
}

// ToResponse converts a joined transaction row.
func (t *TransactionDetail) ToResponse(now time.Time, finePerDay decimal.Decimal) models.TransactionResponse {
	resp := t.BookTransaction.ToResponse(now, finePerDay)
	resp.BookTitle = t.BookTitle
	return resp
}

func (m *Member) ToResponse() models.MemberResponse {
	return models.MemberResponse{
		ID:             m.ID,
		MemberCode:     m.MemberCode,
		FullName:       m.FullName,
		Email:          TextPtr(m.Email),
		Phone:          TextPtr(m.Phone),
		Address:        TextPtr(m.Address),
		MembershipType: m.MembershipType,
		IsActive:       m.IsActive,
		JoinedDate:     m.JoinedDate.Time,
		CreatedAt:      m.CreatedAt.Time,
		UpdatedAt:      m.UpdatedAt.Time,
	}
}

// Times extracts the fields the event status rules work on.
func (e *Event) Times() models.EventTimes {
	return models.EventTimes{
		Status:               e.Status,
		EventDate:            e.EventDate.Time,
		EndDate:              TimePtr(e.EndDate),
		RegistrationDeadline: TimePtr(e.RegistrationDeadline),
		IsRegistrationOpen:   e.IsRegistrationOpen,
		MaxParticipants:      Int4Ptr(e.MaxParticipants),
		CurrentParticipants:  e.CurrentParticipants,
	}
}

// ToResponse converts an event, deriving its displayed status at now.
func (e *Event) ToResponse(now time.Time) models.EventResponse {
	times := e.Times()
	return models.EventResponse{
		ID:                   e.ID,
		Title:                e.Title,
		TitleLocal:           TextPtr(e.TitleLocal),
		Description:          e.Description,
		DescriptionLocal:     TextPtr(e.DescriptionLocal),
		Location:             e.Location,
		EventDate:            e.EventDate.Time,
		EndDate:              times.EndDate,
		RegistrationDeadline: times.RegistrationDeadline,
		MaxParticipants:      times.MaxParticipants,
		CurrentParticipants:  e.CurrentParticipants,
		IsRegistrationOpen:   e.IsRegistrationOpen,
		CanRegister:          models.RegistrationClosedReason(times, now) == "",
		Status:               models.DeriveEventStatus(times, now),
		ImageURL:             TextPtr(e.ImageUrl),
		CreatedBy:            Int4Ptr(e.CreatedBy),
		UpdatedBy:            Int4Ptr(e.UpdatedBy),
		CreatedAt:            e.CreatedAt.Time,
		UpdatedAt:            e.UpdatedAt.Time,
	}
}

func (r *EventRegistration) ToResponse() models.RegistrationResponse {
	code := ""
	if r.RegistrationCode.Valid {
		code = uuid.UUID(r.RegistrationCode.Bytes).String()
	}
	return models.RegistrationResponse{
		ID:               r.ID,
		EventID:          r.EventID,
		RegistrationCode: code,
		ParticipantName:  r.ParticipantName,
		Email:            r.Email,
		Phone:            TextPtr(r.Phone),
		Organization:     TextPtr(r.Organization),
		Notes:            TextPtr(r.Notes),
		Status:           r.Status,
		CreatedAt:        r.CreatedAt.Time,
		UpdatedAt:        r.UpdatedAt.Time,
	}
}

func (u *User) ToModel() *models.User {
	return &models.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         models.UserRole(u.Role),
		IsActive:     u.IsActive,
		LastLogin:    TimePtr(u.LastLogin),
		CreatedAt:    u.CreatedAt.Time,
		UpdatedAt:    u.UpdatedAt.Time,
	}
}
