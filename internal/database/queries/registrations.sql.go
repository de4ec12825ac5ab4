package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const registrationColumns = "id, event_id, registration_code, participant_name, email, phone, " +
	"organization, notes, status, created_at, updated_at"

func scanRegistration(row pgx.Row) (EventRegistration, error) {
	var i EventRegistration
	err := row.Scan(
		&i.ID,
		&i.EventID,
		&i.RegistrationCode,
		&i.ParticipantName,
		&i.Email,
		&i.Phone,
		&i.Organization,
		&i.Notes,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createRegistration = `-- name: CreateRegistration :one
INSERT INTO event_registrations (
    event_id, registration_code, participant_name, email, phone, organization, notes, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, 'registered'
)
RETURNING ` + registrationColumns

type CreateRegistrationParams struct {
	EventID          int32       `json:"event_id"`
	RegistrationCode pgtype.UUID `json:"registration_code"`
	ParticipantName  string      `json:"participant_name"`
	Email            string      `json:"email"`
	Phone            pgtype.Text `json:"phone"`
	Organization     pgtype.Text `json:"organization"`
	Notes            pgtype.Text `json:"notes"`
}

func (q *Queries) CreateRegistration(ctx context.Context, arg CreateRegistrationParams) (EventRegistration, error) {
	row := q.db.QueryRow(ctx, createRegistration,
		arg.EventID,
		arg.RegistrationCode,
		arg.ParticipantName,
		arg.Email,
		arg.Phone,
		arg.Organization,
		arg.Notes,
	)
	return scanRegistration(row)
}

const getRegistrationByID = `-- name: GetRegistrationByID :one
SELECT ` + registrationColumns + ` FROM event_registrations WHERE id = $1
`

func (q *Queries) GetRegistrationByID(ctx context.Context, id int32) (EventRegistration, error) {
	row := q.db.QueryRow(ctx, getRegistrationByID, id)
	return scanRegistration(row)
}

const getRegistrationByCode = `-- name: GetRegistrationByCode :one
SELECT ` + registrationColumns + ` FROM event_registrations WHERE registration_code = $1
`

func (q *Queries) GetRegistrationByCode(ctx context.Context, code pgtype.UUID) (EventRegistration, error) {
	row := q.db.QueryRow(ctx, getRegistrationByCode, code)
	return scanRegistration(row)
}

const countActiveRegistrationsByEmail = `-- name: CountActiveRegistrationsByEmail :one
SELECT COUNT(*) FROM event_registrations
WHERE event_id = $1
  AND lower(email) = lower($2)
  AND status IN ('registered', 'confirmed', 'attended')
`

type CountActiveRegistrationsByEmailParams struct {
	EventID int32  `json:"event_id"`
	Email   string `json:"email"`
}

func (q *Queries) CountActiveRegistrationsByEmail(ctx context.Context, arg CountActiveRegistrationsByEmailParams) (int64, error) {
	row := q.db.QueryRow(ctx, countActiveRegistrationsByEmail, arg.EventID, arg.Email)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const setRegistrationStatus = `-- name: SetRegistrationStatus :one
UPDATE event_registrations
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING ` + registrationColumns

type SetRegistrationStatusParams struct {
	ID         int32  `json:"id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// SetRegistrationStatus only applies when the registration is still in
// FromStatus, so two concurrent transitions cannot both succeed.
func (q *Queries) SetRegistrationStatus(ctx context.Context, arg SetRegistrationStatusParams) (EventRegistration, error) {
	row := q.db.QueryRow(ctx, setRegistrationStatus, arg.ID, arg.FromStatus, arg.ToStatus)
	return scanRegistration(row)
}

const countActiveRegistrations = `-- name: CountActiveRegistrations :one
SELECT COUNT(*) FROM event_registrations
WHERE status IN ('registered', 'confirmed', 'attended')
`

func (q *Queries) CountActiveRegistrations(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countActiveRegistrations)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listRegistrationsByEvent = `-- name: ListRegistrationsByEvent :many
SELECT ` + registrationColumns + ` FROM event_registrations
WHERE event_id = $1 AND ($2::text = '' OR status = $2::text)
ORDER BY created_at, id
LIMIT $3 OFFSET $4
`

type ListRegistrationsByEventParams struct {
	EventID int32  `json:"event_id"`
	Status  string `json:"status"`
	Limit   int32  `json:"limit"`
	Offset  int32  `json:"offset"`
}

func (q *Queries) ListRegistrationsByEvent(ctx context.Context, arg ListRegistrationsByEventParams) ([]EventRegistration, error) {
	rows, err := q.db.Query(ctx, listRegistrationsByEvent, arg.EventID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []EventRegistration{}
	for rows.Next() {
		i, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRegistrationsByEvent = `-- name: CountRegistrationsByEvent :one
SELECT COUNT(*) FROM event_registrations
WHERE event_id = $1 AND ($2::text = '' OR status = $2::text)
`

type CountRegistrationsByEventParams struct {
	EventID int32  `json:"event_id"`
	Status  string `json:"status"`
}

func (q *Queries) CountRegistrationsByEvent(ctx context.Context, arg CountRegistrationsByEventParams) (int64, error) {
	row := q.db.QueryRow(ctx, countRegistrationsByEvent, arg.EventID, arg.Status)
	var count int64
	err := row.Scan(&count)
	return count, err
}
