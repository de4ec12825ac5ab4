package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/middleware"
	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// TransactionServiceInterface defines the interface for transaction service operations
type TransactionServiceInterface interface {
	IssueBook(ctx context.Context, req models.IssueBookRequest, actorID int32) (*models.TransactionResponse, error)
	ReturnBook(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error)
	RenewBook(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error)
	PayFine(ctx context.Context, transactionID int32, actorID int32) (*models.TransactionResponse, error)
	GetTransaction(ctx context.Context, id int32) (*models.TransactionResponse, error)
	ListTransactions(ctx context.Context, req models.TransactionListRequest) (*models.TransactionListResponse, error)
	GetBorrowerHistory(ctx context.Context, memberID int32, page, limit int) (*models.TransactionListResponse, error)
	ListOverdue(ctx context.Context) ([]models.OverdueLoanDetail, error)
}

// TransactionHandler handles lending HTTP requests
type TransactionHandler struct {
	transactionService TransactionServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// IssueBook lends one copy of a book to a member
// @Summary Issue a book
// @Description Decrements the available copies and records the loan in one database transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body models.IssueBookRequest true "Issue request"
// @Success 201 {object} SuccessResponse{data=models.TransactionResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "NO_COPIES_AVAILABLE or borrower not eligible"
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/transactions/issue [post]
func (h *TransactionHandler) IssueBook(c *gin.Context) {
	var req models.IssueBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tx, err := h.transactionService.IssueBook(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to issue book")
		return
	}

	respondSuccess(c, http.StatusCreated, tx, "Book issued successfully")
}

// ReturnBook closes a loan and assesses any late fine
// @Summary Return a book
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=models.TransactionResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "ALREADY_RETURNED"
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/transactions/{id}/return [post]
func (h *TransactionHandler) ReturnBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	tx, err := h.transactionService.ReturnBook(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to return book")
		return
	}

	respondSuccess(c, http.StatusOK, tx, "Book returned successfully")
}

// RenewBook extends the due date of an active loan
// @Summary Renew a loan
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=models.TransactionResponse}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/transactions/{id}/renew [post]
func (h *TransactionHandler) RenewBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	tx, err := h.transactionService.RenewBook(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to renew loan")
		return
	}

	respondSuccess(c, http.StatusOK, tx, "Loan renewed successfully")
}

// PayFine marks the fine of a returned loan as paid
// @Summary Pay a fine
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=models.TransactionResponse}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/transactions/{id}/pay-fine [post]
func (h *TransactionHandler) PayFine(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	tx, err := h.transactionService.PayFine(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "Failed to record fine payment")
		return
	}

	respondSuccess(c, http.StatusOK, tx, "Fine paid successfully")
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	tx, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve transaction")
		return
	}

	respondSuccess(c, http.StatusOK, tx, "")
}

// ListTransactions lists loans
// @Summary List transactions
// @Tags transactions
// @Produce json
// @Param status query string false "issued, returned or overdue"
// @Param book_id query int false "Book ID"
// @Param borrower_id query int false "Member ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} SuccessResponse{data=models.TransactionListResponse}
// @Router /api/v1/admin/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var req models.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "Failed to list transactions")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

// GetMemberHistory lists every loan of one member, newest first
func (h *TransactionHandler) GetMemberHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}
	page, limit := parsePaginationParams(c)

	result, err := h.transactionService.GetBorrowerHistory(c.Request.Context(), id, page, limit)
	if err != nil {
		writeServiceError(c, err, "Failed to retrieve borrowing history")
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

func (h *TransactionHandler) ListOverdue(c *gin.Context) {
	overdue, err := h.transactionService.ListOverdue(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to list overdue loans")
		return
	}

	respondSuccess(c, http.StatusOK, overdue, "")
}
