package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/maxcyking/ngo-library-sub001/internal/database/queries"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// MemberQuerier defines the member database operations
type MemberQuerier interface {
	CreateMember(ctx context.Context, arg queries.CreateMemberParams) (queries.Member, error)
	GetMemberByID(ctx context.Context, id int32) (queries.Member, error)
	GetMemberByCode(ctx context.Context, memberCode string) (queries.Member, error)
	UpdateMember(ctx context.Context, arg queries.UpdateMemberParams) (queries.Member, error)
	ListMembers(ctx context.Context, f queries.MemberFilter) ([]queries.Member, error)
	CountMembers(ctx context.Context, f queries.MemberFilter) (int64, error)
}

// MemberService manages the people allowed to borrow books
type MemberService struct {
	querier MemberQuerier
}

func NewMemberService(querier MemberQuerier) *MemberService {
	return &MemberService{querier: querier}
}

// CreateMember registers a new member
func (s *MemberService) CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.MemberResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	if existing, err := s.querier.GetMemberByCode(ctx, req.MemberCode); err == nil && existing.ID != 0 {
		return nil, ErrDuplicateMember
	}

	member, err := s.querier.CreateMember(ctx, queries.CreateMemberParams{
		MemberCode:     req.MemberCode,
		FullName:       req.FullName,
		Email:          queries.Text(req.Email),
		Phone:          queries.Text(req.Phone),
		Address:        queries.Text(req.Address),
		MembershipType: req.MembershipType,
	})
	if err != nil {
		if queries.IsUniqueViolation(err) {
			return nil, ErrDuplicateMember
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	response := member.ToResponse()
	return &response, nil
}

func (s *MemberService) GetMember(ctx context.Context, id int32) (*models.MemberResponse, error) {
	member, err := s.querier.GetMemberByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	response := member.ToResponse()
	return &response, nil
}

// UpdateMember applies the non-nil fields of req
func (s *MemberService) UpdateMember(ctx context.Context, id int32, req models.UpdateMemberRequest) (*models.MemberResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.querier.GetMemberByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}

	params := queries.UpdateMemberParams{
		ID:             id,
		FullName:       existing.FullName,
		Email:          existing.Email,
		Phone:          existing.Phone,
		Address:        existing.Address,
		MembershipType: existing.MembershipType,
		IsActive:       existing.IsActive,
	}
	if req.FullName != nil {
		params.FullName = *req.FullName
	}
	if req.Email != nil {
		params.Email = queries.Text(req.Email)
	}
	if req.Phone != nil {
		params.Phone = queries.Text(req.Phone)
	}
	if req.Address != nil {
		params.Address = optionalText(*req.Address)
	}
	if req.MembershipType != nil {
		params.MembershipType = *req.MembershipType
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	member, err := s.querier.UpdateMember(ctx, params)
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	response := member.ToResponse()
	return &response, nil
}

// DeactivateMember stops a member from borrowing. Existing loans are unaffected.
func (s *MemberService) DeactivateMember(ctx context.Context, id int32) (*models.MemberResponse, error) {
	inactive := false
	return s.UpdateMember(ctx, id, models.UpdateMemberRequest{IsActive: &inactive})
}

// ListMembers searches members by name, code or email
func (s *MemberService) ListMembers(ctx context.Context, req models.MemberSearchRequest) (*models.MemberListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	filter := queries.MemberFilter{
		Query:  req.Query,
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if req.IsActive != nil {
		filter.IsActive = pgtype.Bool{Bool: *req.IsActive, Valid: true}
	}

	members, err := s.querier.ListMembers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	total, err := s.querier.CountMembers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	items := make([]models.MemberResponse, len(members))
	for i := range members {
		items[i] = members[i].ToResponse()
	}
	return &models.MemberListResponse{
		Members:    items,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}
