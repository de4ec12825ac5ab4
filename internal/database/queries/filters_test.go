package queries

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBookListQuery(t *testing.T) {
	query, args, err := buildBookListQuery(BookFilter{
		Query:         "tagore",
		Category:      "Poetry",
		AvailableOnly: true,
		Limit:         20,
		Offset:        40,
	})
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "books"`)
	assert.Contains(t, query, `"deleted_at" IS NULL`)
	assert.Contains(t, query, `"title" ILIKE $`)
	assert.Contains(t, query, `"available_copies" > $`)
	assert.Contains(t, query, `ORDER BY "title" ASC, "id" ASC`)
	assert.Contains(t, query, "LIMIT $")
	assert.Contains(t, args, "%tagore%")
	assert.Contains(t, args, "Poetry")
}

func TestBuildBookCountQuery(t *testing.T) {
	query, args, err := buildBookCountQuery(BookFilter{Language: "Hindi"})
	require.NoError(t, err)

	assert.Contains(t, query, "COUNT(*)")
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []interface{}{"Hindi"}, args)
}

func TestBuildTransactionListQuery_Overdue(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	query, args, err := buildTransactionListQuery(TransactionFilter{
		Status: "overdue",
		Now:    pgtype.Timestamptz{Time: now, Valid: true},
		Limit:  10,
	})
	require.NoError(t, err)

	assert.Contains(t, query, `INNER JOIN "books" AS "b"`)
	assert.Contains(t, query, `"t"."status" = $`)
	assert.Contains(t, query, `"t"."due_date" < $`)
	assert.Contains(t, query, `"b"."title"`)
	assert.Contains(t, query, `ORDER BY "t"."due_date" ASC`)
	assert.Contains(t, args, "issued")
	assert.Contains(t, args, now)
}

func TestBuildTransactionCountQuery_Returned(t *testing.T) {
	query, args, err := buildTransactionCountQuery(TransactionFilter{Status: "returned", BorrowerID: 7})
	require.NoError(t, err)

	assert.Contains(t, query, `"t"."borrower_id" = $`)
	assert.NotContains(t, query, "due_date")
	assert.Contains(t, args, "returned")
}

func TestBuildEventListQuery_Upcoming(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	query, _, err := buildEventListQuery(EventFilter{
		Status:        "published",
		UpcomingAfter: pgtype.Timestamptz{Time: now, Valid: true},
	})
	require.NoError(t, err)

	assert.Contains(t, query, `COALESCE("end_date", "event_date") >= $`)
	assert.Contains(t, query, `ORDER BY "event_date" ASC`)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off%`, likePattern(" 50% off "))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
}

func TestNumericRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12.50")
	n := NumericFromDecimal(d)
	assert.True(t, n.Valid)
	assert.True(t, d.Equal(DecimalFromNumeric(n)))

	assert.True(t, DecimalFromNumeric(pgtype.Numeric{}).IsZero())
	assert.True(t, decimal.NewFromInt(5).Equal(DecimalFromNumeric(pgtype.Numeric{Int: big.NewInt(500), Exp: -2, Valid: true})))
}
