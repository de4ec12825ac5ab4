package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
)

func (s *Store) CreateUser(_ context.Context, arg queries.CreateUserParams) (queries.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == arg.Username || strings.EqualFold(u.Email, arg.Email) {
			return queries.User{}, queries.ErrUniqueViolation
		}
	}
	now := s.stamp()
	u := queries.User{
		ID:           s.id("users"),
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int32) (queries.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return queries.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (queries.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return queries.User{}, pgx.ErrNoRows
}

func (s *Store) UpdateUserLastLogin(_ context.Context, arg queries.UpdateUserLastLoginParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[arg.ID]
	if !ok {
		return nil
	}
	u.LastLogin = arg.LastLogin
	u.UpdatedAt = s.stamp()
	s.users[u.ID] = u
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, arg queries.UpdateUserPasswordParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[arg.ID]
	if !ok {
		return nil
	}
	u.PasswordHash = arg.PasswordHash
	u.UpdatedAt = s.stamp()
	s.users[u.ID] = u
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]queries.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]queries.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
