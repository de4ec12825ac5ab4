package queries

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const eventColumns = "id, title, title_local, description, description_local, location, event_date, " +
	"end_date, registration_deadline, max_participants, current_participants, is_registration_open, " +
	"status, image_url, created_by, updated_by, created_at, updated_at"

var eventColumnList = strings.Split(eventColumns, ", ")

func scanEvent(row pgx.Row) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.TitleLocal,
		&i.Description,
		&i.DescriptionLocal,
		&i.Location,
		&i.EventDate,
		&i.EndDate,
		&i.RegistrationDeadline,
		&i.MaxParticipants,
		&i.CurrentParticipants,
		&i.IsRegistrationOpen,
		&i.Status,
		&i.ImageUrl,
		&i.CreatedBy,
		&i.UpdatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (
    title, title_local, description, description_local, location, event_date, end_date,
    registration_deadline, max_participants, is_registration_open, status, image_url,
    created_by, updated_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13
)
RETURNING ` + eventColumns

type CreateEventParams struct {
	Title                string             `json:"title"`
	TitleLocal           pgtype.Text        `json:"title_local"`
	Description          string             `json:"description"`
	DescriptionLocal     pgtype.Text        `json:"description_local"`
	Location             string             `json:"location"`
	EventDate            pgtype.Timestamptz `json:"event_date"`
	EndDate              pgtype.Timestamptz `json:"end_date"`
	RegistrationDeadline pgtype.Timestamptz `json:"registration_deadline"`
	MaxParticipants      pgtype.Int4        `json:"max_participants"`
	IsRegistrationOpen   bool               `json:"is_registration_open"`
	Status               string             `json:"status"`
	ImageUrl             pgtype.Text        `json:"image_url"`
	CreatedBy            pgtype.Int4        `json:"created_by"`
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRow(ctx, createEvent,
		arg.Title,
		arg.TitleLocal,
		arg.Description,
		arg.DescriptionLocal,
		arg.Location,
		arg.EventDate,
		arg.EndDate,
		arg.RegistrationDeadline,
		arg.MaxParticipants,
		arg.IsRegistrationOpen,
		arg.Status,
		arg.ImageUrl,
		arg.CreatedBy,
	)
	return scanEvent(row)
}

const getEventByID = `-- name: GetEventByID :one
SELECT ` + eventColumns + ` FROM events WHERE id = $1
`

func (q *Queries) GetEventByID(ctx context.Context, id int32) (Event, error) {
	row := q.db.QueryRow(ctx, getEventByID, id)
	return scanEvent(row)
}

// A capacity below the current participant count is refused by the statement
// itself; no row comes back in that case.
const updateEvent = `-- name: UpdateEvent :one
UPDATE events SET
    title = $2,
    title_local = $3,
    description = $4,
    description_local = $5,
    location = $6,
    event_date = $7,
    end_date = $8,
    registration_deadline = $9,
    max_participants = $10,
    is_registration_open = $11,
    status = $12,
    image_url = $13,
    updated_by = $14,
    updated_at = NOW()
WHERE id = $1
  AND ($10::int IS NULL OR current_participants <= $10::int)
RETURNING ` + eventColumns

type UpdateEventParams struct {
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
	IsRegistrationOpen   bool               `json:"is_registration_open"`
	Status               string             `json:"status"`
	ImageUrl             pgtype.Text        `json:"image_url"`
	UpdatedBy            pgtype.Int4        `json:"updated_by"`
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRow(ctx, updateEvent,
		arg.ID,
		arg.Title,
		arg.TitleLocal,
		arg.Description,
		arg.DescriptionLocal,
		arg.Location,
		arg.EventDate,
		arg.EndDate,
		arg.RegistrationDeadline,
		arg.MaxParticipants,
		arg.IsRegistrationOpen,
		arg.Status,
		arg.ImageUrl,
		arg.UpdatedBy,
	)
	return scanEvent(row)
}

const updateEventImage = `-- name: UpdateEventImage :one
UPDATE events SET image_url = $2, updated_by = $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + eventColumns

type UpdateEventImageParams struct {
	ID        int32       `json:"id"`
	ImageUrl  pgtype.Text `json:"image_url"`
	UpdatedBy pgtype.Int4 `json:"updated_by"`
}

func (q *Queries) UpdateEventImage(ctx context.Context, arg UpdateEventImageParams) (Event, error) {
	row := q.db.QueryRow(ctx, updateEventImage, arg.ID, arg.ImageUrl, arg.UpdatedBy)
	return scanEvent(row)
}

const deleteEvent = `-- name: DeleteEvent :execrows
DELETE FROM events WHERE id = $1 AND current_participants = 0
`

// DeleteEvent removes an event that holds no active registration.
func (q *Queries) DeleteEvent(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const claimEventSlot = `-- name: ClaimEventSlot :execrows
UPDATE events
SET current_participants = current_participants + 1, updated_at = NOW()
WHERE id = $1
  AND status = 'published'
  AND is_registration_open
  AND (registration_deadline IS NULL OR registration_deadline >= $2)
  AND COALESCE(end_date, event_date) >= $2
  AND (max_participants IS NULL OR current_participants < max_participants)
`

type ClaimEventSlotParams struct {
	ID  int32              `json:"id"`
	Now pgtype.Timestamptz `json:"now"`
}

// ClaimEventSlot takes one place in an event when it is accepting
// registrations at Now. It affects no row otherwise.
func (q *Queries) ClaimEventSlot(ctx context.Context, arg ClaimEventSlotParams) (int64, error) {
	result, err := q.db.Exec(ctx, claimEventSlot, arg.ID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const releaseEventSlot = `-- name: ReleaseEventSlot :execrows
UPDATE events
SET current_participants = current_participants - 1, updated_at = NOW()
WHERE id = $1 AND current_participants > 0
`

func (q *Queries) ReleaseEventSlot(ctx context.Context, id int32) (int64, error) {
	result, err := q.db.Exec(ctx, releaseEventSlot, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countUpcomingEvents = `-- name: CountUpcomingEvents :one
SELECT COUNT(*) FROM events
WHERE status = 'published' AND COALESCE(end_date, event_date) >= $1
`

func (q *Queries) CountUpcomingEvents(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	row := q.db.QueryRow(ctx, countUpcomingEvents, now)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// EventFilter narrows ListEvents and CountEvents. When UpcomingAfter is set only
// events that have not ended by then are returned.
type EventFilter struct {
	Status        string
	UpcomingAfter pgtype.Timestamptz
	Limit         int32
	Offset        int32
}

func (q *Queries) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	query, args, err := buildEventListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Event{}
	for rows.Next() {
		i, err := scanEvent(rows)
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

func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	query, args, err := buildEventCountQuery(f)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
