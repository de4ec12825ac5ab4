package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Book struct {
	ID              int32              `json:"id"`
	Title           string             `json:"title"`
	Author          string             `json:"author"`
	Isbn            pgtype.Text        `json:"isbn"`
	Category        string             `json:"category"`
	Language        string             `json:"language"`
	Publisher       pgtype.Text        `json:"publisher"`
	PublishedYear   pgtype.Int4        `json:"published_year"`
	TotalCopies     int32              `json:"total_copies"`
	AvailableCopies int32              `json:"available_copies"`
	IssuedCopies    int32              `json:"issued_copies"`
	Price           pgtype.Numeric     `json:"price"`
	ShelfLocation   pgtype.Text        `json:"shelf_location"`
	CoverImageUrl   pgtype.Text        `json:"cover_image_url"`
	Description     pgtype.Text        `json:"description"`
	AddedDate       pgtype.Timestamptz `json:"added_date"`
	CreatedBy       pgtype.Int4        `json:"created_by"`
	UpdatedBy       pgtype.Int4        `json:"updated_by"`
	DeletedAt       pgtype.Timestamptz `json:"deleted_at"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

type BookTransaction struct {
	ID           int32              `json:"id"`
	BookID       int32              `json:"book_id"`
	BorrowerID   int32              `json:"borrower_id"`
	BorrowerName string             `json:"borrower_name"`
	IssueDate    pgtype.Timestamptz `json:"issue_date"`
	DueDate      pgtype.Timestamptz `json:"due_date"`
	ReturnDate   pgtype.Timestamptz `json:"return_date"`
	Status       string             `json:"status"`
	FineAmount   pgtype.Numeric     `json:"fine_amount"`
	FinePaid     bool               `json:"fine_paid"`
	RenewalCount int32              `json:"renewal_count"`
	Notes        pgtype.Text        `json:"notes"`
	CreatedBy    pgtype.Int4        `json:"created_by"`
	UpdatedBy    pgtype.Int4        `json:"updated_by"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

// TransactionDetail is a transaction joined with the title of its book.
type TransactionDetail struct {
	BookTransaction
	BookTitle string `json:"book_title"`
}

type Member struct {
	ID             int32              `json:"id"`
	MemberCode     string             `json:"member_code"`
	FullName       string             `json:"full_name"`
	Email          pgtype.Text        `json:"email"`
	Phone          pgtype.Text        `json:"phone"`
	Address        pgtype.Text        `json:"address"`
	MembershipType string             `json:"membership_type"`
	IsActive       bool               `json:"is_active"`
	JoinedDate     pgtype.Date        `json:"joined_date"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type Event struct {
	ID                   int32              `json:"id"`
	Title                string             `json:"title"`
	TitleLocal           pgtype.Text        `json:"title_local"`
	Description          string             `json:"description"`
	DescriptionLocal     pgtype.Text        `json:"description_local"`
	Location             string             `json:"location"`
	EventDate            pgtype.Timestamptz `json:"event_date"`
	EndDate              pgtype.Timestamptz `json:"end_date"`
	RegistrationDeadline pgtype.Timestamptz `json:"registration_deadline"`
	MaxParticipants      pgtype.Int4        `json:"max_participants"`
	CurrentParticipants  int32              `json:"current_participants"`
	IsRegistrationOpen   bool               `json:"is_registration_open"`
	Status               string             `json:"status"`
	ImageUrl             pgtype.Text        `json:"image_url"`
	CreatedBy            pgtype.Int4        `json:"created_by"`
	UpdatedBy            pgtype.Int4        `json:"updated_by"`
	CreatedAt            pgtype.Timestamptz `json:"created_at"`
	UpdatedAt            pgtype.Timestamptz `json:"updated_at"`
}

type EventRegistration struct {
	ID               int32              `json:"id"`
	EventID          int32              `json:"event_id"`
	RegistrationCode pgtype.UUID        `json:"registration_code"`
	ParticipantName  string             `json:"participant_name"`
	Email            string             `json:"email"`
	Phone            pgtype.Text        `json:"phone"`
	Organization     pgtype.Text        `json:"organization"`
	Notes            pgtype.Text        `json:"notes"`
	Status           string             `json:"status"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type User struct {
	ID           int32              `json:"id"`
	Username     string             `json:"username"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash"`
	Role         string             `json:"role"`
	IsActive     bool               `json:"is_active"`
	LastLogin    pgtype.Timestamptz `json:"last_login"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}
