package handlers

import (
	"errors"
	"net/http"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// transactionHandler serves single ledger entry lookups.
type transactionHandler struct {
	statementService portssvc.StatementSvcFacade
}

func registerTransactionRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade) {
	h := &transactionHandler{statementService: statementService}

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:id", h.getTransaction)
	}
}

// getTransaction godoc
// @Summary Get a ledger entry by ID
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	txn, err := h.statementService.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transaction"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
