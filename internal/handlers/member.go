package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// MemberServiceInterface defines the interface for member service operations
type MemberServiceInterface interface {
	CreateMember(ctx context.Context, req models.CreateMemberRequest) (*models.MemberResponse, error)
	GetMember(ctx context.Context, id int32) (*models.MemberResponse, error)
	UpdateMember(ctx context.Context, id int32, req models.UpdateMemberRequest) (*models.MemberResponse, error)
	DeactivateMember(ctx context.Context, id int32) (*models.MemberResponse, error)
	ListMembers(ctx context.Context, req models.MemberSearchRequest) (*models.MemberListResponse, error)
}

// MemberHandler handles borrower management requests
type MemberHandler struct {
	memberService MemberServiceInterface
}

func NewMemberHandler(memberService MemberServiceInterface) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// CreateMember registers a new borrower
// @Summary Create a member
// @Tags members
// @Accept json
// @Produce json
// @Param member body models.CreateMemberRequest true "Member data"
// @Success 201 {object} SuccessResponse{data=models.MemberResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Duplicate member number"
// @Router /api/v1/admin/members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req models.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to create member")
		return
	}

	respondSuccess(c, http.StatusCreated, member, "Member created successfully")
}

func (h *MemberHandler) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	member, err := h.memberService.GetMember(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve member")
		return
	}

	respondSuccess(c, http.StatusOK, member, "")
}

func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	var req models.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err, "Failed to update member")
		return
	}

	respondSuccess(c, http.StatusOK, member, "Member updated successfully")
}

// DeactivateMember stops a member from borrowing; their history is kept
func (h *MemberHandler) DeactivateMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	member, err := h.memberService.DeactivateMember(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to deactivate member")
		return
	}

	respondSuccess(c, http.StatusOK, member, "Member deactivated successfully")
}

func (h *MemberHandler) ListMembers(c *gin.Context) {
	var req models.MemberSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.memberService.ListMembers(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to list members")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}
