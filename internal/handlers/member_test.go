package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcyking/ngo-library-sub001/internal/database/memstore"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/services"
)

func setupMemberTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	handler := NewMemberHandler(services.NewMemberService(store))

	router := gin.New()
	members := router.Group("/api/v1/admin/members", withUser(1))
	{
		members.POST("", handler.CreateMember)
		members.GET("", handler.ListMembers)
		members.GET("/:id", handler.GetMember)
		members.PUT("/:id", handler.UpdateMember)
		members.DELETE("/:id", handler.DeactivateMember)
	}
	return router
}

func TestMemberHandler_CreateMember(t *testing.T) {
	router := setupMemberTestRouter(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "new member",
			body:           models.CreateMemberRequest{MemberCode: "M-001", FullName: "Lakshmi Iyer", Email: stringPtr("lakshmi@example.org")},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "duplicate member code",
			body:           models.CreateMemberRequest{MemberCode: "M-001", FullName: "Someone Else"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONFLICT_ERROR",
		},
		{
			name:           "invalid email",
			body:           models.CreateMemberRequest{MemberCode: "M-002", FullName: "No Mail", Email: stringPtr("nope")},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "unknown membership type",
			body:           models.CreateMemberRequest{MemberCode: "M-003", FullName: "Typed", MembershipType: "gold"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/api/v1/admin/members", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			} else {
				member := decodeData[models.MemberResponse](t, w)
				assert.True(t, member.IsActive)
			}
		})
	}
}

func TestMemberHandler_UpdateAndDeactivate(t *testing.T) {
	router := setupMemberTestRouter(t)

	w := performRequest(router, http.MethodPost, "/api/v1/admin/members",
		models.CreateMemberRequest{MemberCode: "M-010", FullName: "Vikram Rao"})
	require.Equal(t, http.StatusCreated, w.Code)
	member := decodeData[models.MemberResponse](t, w)
	path := fmt.Sprintf("/api/v1/admin/members/%d", member.ID)

	w = performRequest(router, http.MethodPut, path, models.UpdateMemberRequest{Phone: stringPtr("+91 98450 12345")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[models.MemberResponse](t, w)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+91 98450 12345", *updated.Phone)

	w = performRequest(router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeData[models.MemberResponse](t, w).IsActive)

	w = performRequest(router, http.MethodGet, "/api/v1/admin/members?active=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[models.MemberListResponse](t, w).Members)

	w = performRequest(router, http.MethodGet, "/api/v1/admin/members/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
