package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// withdrawalHandler handles HTTP requests related to withdrawals.
type withdrawalHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
}

func registerWithdrawalRoutes(rg *gin.RouterGroup, withdrawalService portssvc.WithdrawalSvcFacade) {
	h := &withdrawalHandler{withdrawalService: withdrawalService}

	withdrawals := rg.Group("/withdrawals")
	{
		withdrawals.POST("", h.initiateWithdrawal)
		withdrawals.GET("", h.listWithdrawals)
		withdrawals.GET("/:id", h.getWithdrawal)
		withdrawals.POST("/:id/cancel", h.cancelWithdrawal)
	}
}

// initiateWithdrawal godoc
// @Summary Initiate a withdrawal
// @Description Creates a withdrawal and submits it to the payment provider
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param withdrawal body dto.InitiateWithdrawalRequest true "Withdrawal details"
// @Success 202 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string "Invalid input or insufficient balance"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 502 {object} map[string]string "Provider rejected the submission"
// @Security BearerAuth
// @Router /withdrawals [post]
func (h *withdrawalHandler) initiateWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.InitiateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for initiateWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	withdrawal, err := h.withdrawalService.Initiate(c.Request.Context(), req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		case errors.Is(err, apperrors.ErrProviderSubmission):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Provider rejected the payout request"})
		default:
			logger.Error("Failed to initiate withdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate withdrawal"})
		}
		return
	}

	// Accepted, not completed: settlement arrives on the provider callbacks.
	c.JSON(http.StatusAccepted, dto.ToWithdrawalResponse(withdrawal))
}

// getWithdrawal godoc
// @Summary Get a withdrawal by ID
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Security BearerAuth
// @Router /withdrawals/{id} [get]
func (h *withdrawalHandler) getWithdrawal(c *gin.Context) {
	withdrawal, err := h.withdrawalService.GetWithdrawalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get withdrawal"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(withdrawal))
}

// listWithdrawals godoc
// @Summary List withdrawals
// @Tags withdrawals
// @Produce json
// @Param accountID query string false "Filter by account"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.WithdrawalResponse
// @Security BearerAuth
// @Router /withdrawals [get]
func (h *withdrawalHandler) listWithdrawals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListWithdrawalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	withdrawals, err := h.withdrawalService.ListWithdrawals(c.Request.Context(), params.AccountID, params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list withdrawals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list withdrawals"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListWithdrawalResponse(withdrawals))
}

// cancelWithdrawal godoc
// @Summary Cancel a withdrawal
// @Description Cancels an INITIATED withdrawal. Withdrawals already accepted by the provider cannot be cancelled.
// @Tags withdrawals
// @Produce json
// @Param id path string true "Withdrawal ID"
// @Success 204 "Cancelled"
// @Failure 404 {object} map[string]string "Withdrawal not found"
// @Failure 409 {object} map[string]string "Withdrawal can no longer be cancelled"
// @Security BearerAuth
// @Router /withdrawals/{id}/cancel [post]
func (h *withdrawalHandler) cancelWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	actorID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.withdrawalService.Cancel(c.Request.Context(), c.Param("id"), actorID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Withdrawal not found"})
		case errors.Is(err, apperrors.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Withdrawal can no longer be cancelled"})
		default:
			logger.Error("Failed to cancel withdrawal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel withdrawal"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
