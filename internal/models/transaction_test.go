package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   string
		due      time.Time
		expected bool
	}{
		{"issued and past due", TransactionStatusIssued, now.Add(-time.Hour), true},
		{"issued and due later", TransactionStatusIssued, now.Add(time.Hour), false},
		{"issued and due exactly now", TransactionStatusIssued, now, false},
		{"returned after due date", TransactionStatusReturned, now.Add(-48 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOverdue(tt.status, tt.due, now))
		})
	}
}

func TestDaysLate(t *testing.T) {
	due := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       time.Time
		expected int
	}{
		{"before due", due.Add(-time.Hour), 0},
		{"exactly on due", due, 0},
		{"one minute late", due.Add(time.Minute), 1},
		{"same day after due time", due.Add(3 * time.Hour), 1},
		{"next calendar day", time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC), 1},
		{"exactly one day", due.Add(24 * time.Hour), 1},
		{"just over one day", due.Add(24*time.Hour + time.Second), 2},
		{"ten days late", due.AddDate(0, 0, 10), 10},
		{"zone of at does not matter", time.Date(2025, 3, 5, 23, 30, 0, 0, time.FixedZone("X", -5*3600)), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysLate(due, tt.at))
		})
	}
}

func TestCalculateFine(t *testing.T) {
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	perDay := decimal.NewFromInt(5)

	assert.True(t, CalculateFine(due, due.Add(-time.Minute), perDay).IsZero())
	assert.True(t, decimal.NewFromInt(50).Equal(CalculateFine(due, due.AddDate(0, 0, 10), perDay)))
	assert.True(t, CalculateFine(due, due.AddDate(0, 0, 10), decimal.Zero).IsZero())
}

func TestOverdueMatchesFine(t *testing.T) {
	due := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	perDay := decimal.NewFromInt(5)

	for _, offset := range []time.Duration{
		-time.Hour, 0, time.Second, 2 * time.Minute, 22 * time.Hour, 24 * time.Hour, 73 * time.Hour,
	} {
		at := due.Add(offset)
		overdue := IsOverdue(TransactionStatusIssued, due, at)
		days := DaysLate(due, at)
		fine := CalculateFine(due, at, perDay)

		assert.Equal(t, overdue, days > 0, "offset %s", offset)
		assert.Equal(t, overdue, fine.IsPositive(), "offset %s", offset)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
}

func TestCreateBookRequestValidate(t *testing.T) {
	zero := int32(0)
	isbn := "  "

	req := CreateBookRequest{Title: " Gitanjali ", Author: "Tagore", Category: "Poetry", Language: "Bengali", ISBN: &isbn}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "Gitanjali", req.Title)
	assert.Nil(t, req.ISBN)

	req = CreateBookRequest{Title: "T", Author: "A", Category: "C", Language: "L", TotalCopies: &zero}
	assert.Error(t, req.Validate())

	req = CreateBookRequest{Title: "T", Author: "A", Language: "L"}
	assert.EqualError(t, req.Validate(), "category is required")
}
