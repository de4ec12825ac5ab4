// Package memstore keeps every table in process memory. It offers the same
// methods as queries.Store and guards each operation with one mutex, so the
// conditional updates behave atomically. Used for tests and the memory driver.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

type Store struct {
	mu sync.RWMutex

	books         map[int32]queries.Book
	transactions  map[int32]queries.BookTransaction
	members       map[int32]queries.Member
	events        map[int32]queries.Event
	registrations map[int32]queries.EventRegistration
	users         map[int32]queries.User

	nextID map[string]int32
	now    func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		books:         make(map[int32]queries.Book),
		transactions:  make(map[int32]queries.BookTransaction),
		members:       make(map[int32]queries.Member),
		events:        make(map[int32]queries.Event),
		registrations: make(map[int32]queries.EventRegistration),
		users:         make(map[int32]queries.User),
		nextID:        make(map[string]int32),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id(table string) int32 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) stamp() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: s.now(), Valid: true}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func window[T any](items []T, limit, offset int32) []T {
	if offset > 0 {
		if int(offset) >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedKeys[V any](m map[int32]V) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
