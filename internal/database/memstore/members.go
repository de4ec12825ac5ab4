package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

func (s *Store) CreateMember(_ context.Context, arg queries.CreateMemberParams) (queries.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.MemberCode == arg.MemberCode {
			return queries.Member{}, queries.ErrUniqueViolation
		}
	}
	now := s.stamp()
	m := queries.Member{
		ID:             s.id("members"),
		MemberCode:     arg.MemberCode,
		FullName:       arg.FullName,
		Email:          arg.Email,
		Phone:          arg.Phone,
		Address:        arg.Address,
		MembershipType: arg.MembershipType,
		IsActive:       true,
		JoinedDate:     pgtype.Date{Time: now.Time.Truncate(24 * time.Hour), Valid: true},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.members[m.ID] = m
	return m, nil
}

func (s *Store) GetMemberByID(_ context.Context, id int32) (queries.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return queries.Member{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *Store) GetMemberByCode(_ context.Context, memberCode string) (queries.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.MemberCode == memberCode {
			return m, nil
		}
	}
	return queries.Member{}, pgx.ErrNoRows
}

func (s *Store) UpdateMember(_ context.Context, arg queries.UpdateMemberParams) (queries.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[arg.ID]
	if !ok {
		return queries.Member{}, pgx.ErrNoRows
	}
	m.FullName = arg.FullName
	m.Email = arg.Email
	m.Phone = arg.Phone
	m.Address = arg.Address
	m.MembershipType = arg.MembershipType
	m.IsActive = arg.IsActive
	m.UpdatedAt = s.stamp()
	s.members[m.ID] = m
	return m, nil
}

func (s *Store) CountActiveMembers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.members {
		if m.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) filterMembers(f queries.MemberFilter) []queries.Member {
	var out []queries.Member
	for _, m := range s.members {
		if f.Query != "" && !containsFold(m.FullName, f.Query) && !containsFold(m.MemberCode, f.Query) &&
			!(m.Email.Valid && containsFold(m.Email.String, f.Query)) {
			continue
		}
		if f.IsActive.Valid && m.IsActive != f.IsActive.Bool {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListMembers(_ context.Context, f queries.MemberFilter) ([]queries.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return window(s.filterMembers(f), f.Limit, f.Offset), nil
}

func (s *Store) CountMembers(_ context.Context, f queries.MemberFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterMembers(f))), nil
}
