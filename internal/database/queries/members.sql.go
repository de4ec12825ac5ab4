package queries

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const memberColumns = "id, member_code, full_name, email, phone, address, membership_type, " +
	"is_active, joined_date, created_at, updated_at"

var memberColumnList = strings.Split(memberColumns, ", ")

func scanMember(row pgx.Row) (Member, error) {
	var i Member
	err := row.Scan(
		&i.ID,
		&i.MemberCode,
		&i.FullName,
		&i.Email,
		&i.Phone,
		&i.Address,
		&i.MembershipType,
		&i.IsActive,
		&i.JoinedDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createMember = `-- name: CreateMember :one
INSERT INTO members (member_code, full_name, email, phone, address, membership_type)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + memberColumns

type CreateMemberParams struct {
	MemberCode     string      `json:"member_code"`
	FullName       string      `json:"full_name"`
	Email          pgtype.Text `json:"email"`
	Phone          pgtype.Text `json:"phone"`
	Address        pgtype.Text `json:"address"`
	MembershipType string      `json:"membership_type"`
}

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (Member, error) {
	row := q.db.QueryRow(ctx, createMember,
		arg.MemberCode,
		arg.FullName,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.MembershipType,
	)
	return scanMember(row)
}

const getMemberByID = `-- name: GetMemberByID :one
SELECT ` + memberColumns + ` FROM members WHERE id = $1
`

func (q *Queries) GetMemberByID(ctx context.Context, id int32) (Member, error) {
	row := q.db.QueryRow(ctx, getMemberByID, id)
	return scanMember(row)
}

const lockMember = `-- name: LockMember :one
SELECT id FROM members WHERE id = $1 FOR UPDATE
`

// LockMember serialises loan decisions for one borrower until the surrounding
// transaction ends.
func (q *Queries) LockMember(ctx context.Context, id int32) error {
	row := q.db.QueryRow(ctx, lockMember, id)
	var locked int32
	return row.Scan(&locked)
}

const getMemberByCode = `-- name: GetMemberByCode :one
SELECT ` + memberColumns + ` FROM members WHERE member_code = $1
`

func (q *Queries) GetMemberByCode(ctx context.Context, memberCode string) (Member, error) {
	row := q.db.QueryRow(ctx, getMemberByCode, memberCode)
	return scanMember(row)
}

const updateMember = `-- name: UpdateMember :one
UPDATE members SET
    full_name = $2,
    email = $3,
    phone = $4,
    address = $5,
    membership_type = $6,
    is_active = $7,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + memberColumns

type UpdateMemberParams struct {
	ID             int32       `json:"id"`
	FullName       string      `json:"full_name"`
	Email          pgtype.Text `json:"email"`
	Phone          pgtype.Text `json:"phone"`
	Address        pgtype.Text `json:"address"`
	MembershipType string      `json:"membership_type"`
	IsActive       bool        `json:"is_active"`
}

func (q *Queries) UpdateMember(ctx context.Context, arg UpdateMemberParams) (Member, error) {
	row := q.db.QueryRow(ctx, updateMember,
		arg.ID,
		arg.FullName,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.MembershipType,
		arg.IsActive,
	)
	return scanMember(row)
}

const countActiveMembers = `-- name: CountActiveMembers :one
SELECT COUNT(*) FROM members WHERE is_active
`

func (q *Queries) CountActiveMembers(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countActiveMembers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// MemberFilter narrows ListMembers and CountMembers.
type MemberFilter struct {
	Query    string
	IsActive pgtype.Bool
	Limit    int32
	Offset   int32
}

func (q *Queries) ListMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	query, args, err := buildMemberListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Member{}
	for rows.Next() {
		i, err := scanMember(rows)
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

func (q *Queries) CountMembers(ctx context.Context, f MemberFilter) (int64, error) {
	query, args, err := buildMemberCountQuery(f)
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
