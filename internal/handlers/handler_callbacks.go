package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/ChangoHQ/chango_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// callbackHandler receives the provider's asynchronous callbacks. These
// endpoints are retried by the provider, so every path through them must be
// idempotent and answer fast.
type callbackHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
	withdrawalService     portssvc.WithdrawalSvcFacade
}

// registerCallbackRoutes registers the provider callback endpoints. They sit
// outside the JWT surface; the unguessable secret path segment is the
// authentication.
func registerCallbackRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := &callbackHandler{
		reconciliationService: services.Reconciliation,
		withdrawalService:     services.Withdrawal,
	}

	callbacks := r.Group("/callbacks/:secret", middleware.CallbackAuth(cfg.CallbackSecret))
	{
		callbacks.POST("/c2b/confirmation", h.c2bConfirmation)
		callbacks.POST("/b2c/result", h.b2cResult)
		callbacks.POST("/b2c/timeout", h.b2cTimeout)
	}
}

// c2bConfirmation godoc
// @Summary C2B payment confirmation callback
// @Description Receives an inbound payment notification and posts it to the ledger. Replays are acknowledged without double-posting.
// @Tags callbacks
// @Accept json
// @Produce json
// @Param secret path string true "Callback secret"
// @Success 200 {object} dto.CallbackResponse
// @Failure 400 {object} dto.CallbackResponse "Malformed or invalid payload"
// @Failure 500 {object} dto.CallbackResponse "Posting failed; provider should retry"
// @Router /callbacks/{secret}/c2b/confirmation [post]
func (h *callbackHandler) c2bConfirmation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	// Keep the raw body: it is stored verbatim on the ledger row.
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "unreadable body"})
		return
	}

	var req dto.C2BConfirmationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Warn("Malformed C2B confirmation payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "malformed payload"})
		return
	}

	event, err := req.ToPaymentEvent(raw)
	if err != nil {
		logger.Warn("Unparseable C2B confirmation", slog.String("trans_id", req.TransID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "invalid payload"})
		return
	}

	result, err := h.reconciliationService.Reconcile(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidEvent) || errors.Is(err, apperrors.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "invalid payload"})
			return
		}
		// A 5xx tells the provider to retry; the posting is idempotent so
		// the retry is safe.
		c.JSON(http.StatusInternalServerError, dto.CallbackResponse{Status: "failed", Message: "processing error"})
		return
	}

	message := "accepted"
	if result.Duplicate {
		message = "already processed"
	}
	c.JSON(http.StatusOK, dto.CallbackResponse{Status: "success", Message: message})
}

// b2cResult godoc
// @Summary B2C payout result callback
// @Description Settles a pending withdrawal. Duplicate and late deliveries are acknowledged without effect.
// @Tags callbacks
// @Accept json
// @Produce json
// @Param secret path string true "Callback secret"
// @Success 200 {object} dto.CallbackResponse
// @Failure 400 {object} dto.CallbackResponse "Malformed payload"
// @Failure 500 {object} dto.CallbackResponse "Processing failed; provider should retry"
// @Router /callbacks/{secret}/b2c/result [post]
func (h *callbackHandler) b2cResult(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.B2CResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Malformed B2C result payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "malformed payload"})
		return
	}

	_, err := h.withdrawalService.ApplyResult(
		c.Request.Context(),
		req.Result.ConversationID,
		req.Result.ResultCode,
		req.Result.ResultDesc,
		req.Result.TransactionID,
	)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Unknown conversation id. Acknowledge so the provider stops
			// retrying a callback we can never match.
			logger.Warn("B2C result for unknown conversation id",
				slog.String("conversation_id", req.Result.ConversationID))
			c.JSON(http.StatusOK, dto.CallbackResponse{Status: "success", Message: "unknown conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.CallbackResponse{Status: "failed", Message: "processing error"})
		return
	}

	c.JSON(http.StatusOK, dto.CallbackResponse{Status: "success", Message: "accepted"})
}

// b2cTimeout godoc
// @Summary B2C payout queue timeout callback
// @Description Fails a pending withdrawal after a provider queue timeout. A result that already settled it wins.
// @Tags callbacks
// @Accept json
// @Produce json
// @Param secret path string true "Callback secret"
// @Success 200 {object} dto.CallbackResponse
// @Failure 400 {object} dto.CallbackResponse "Malformed payload"
// @Failure 500 {object} dto.CallbackResponse "Processing failed; provider should retry"
// @Router /callbacks/{secret}/b2c/timeout [post]
func (h *callbackHandler) b2cTimeout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.B2CResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Malformed B2C timeout payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.CallbackResponse{Status: "failed", Message: "malformed payload"})
		return
	}

	_, err := h.withdrawalService.ApplyTimeout(c.Request.Context(), req.Result.ConversationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusOK, dto.CallbackResponse{Status: "success", Message: "unknown conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.CallbackResponse{Status: "failed", Message: "processing error"})
		return
	}

	c.JSON(http.StatusOK, dto.CallbackResponse{Status: "success", Message: "accepted"})
}
