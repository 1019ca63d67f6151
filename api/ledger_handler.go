package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"jolaman/pkg/models"
	"jolaman/service"
	"jolaman/storage"
)

type LedgerHandler struct {
	ledger service.LedgerService
}

func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type applyTransactionRequest struct {
	DriverID    int64           `json:"driver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	OrderID     *int64          `json:"order_id"`
}

func (h *LedgerHandler) Apply(c *gin.Context) {
	var body applyTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.ledger.Apply(c.Request.Context(), service.ApplyTransactionInput{
		DriverID:    body.DriverID,
		Amount:      body.Amount,
		Type:        models.TransactionType(body.Type),
		Description: body.Description,
		OrderID:     body.OrderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *LedgerHandler) History(c *gin.Context) {
	driverID, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	page, limit := pagination(c)

	txs, total, err := h.ledger.History(c.Request.Context(), driverID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

func (h *LedgerHandler) List(c *gin.Context) {
	var filter storage.TransactionFilter

	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("driver_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.DriverID = &id
		}
	}
	if v := c.Query("from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &ts
		}
	}
	if v := c.Query("to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &ts
		}
	}
	filter.Search = c.Query("search")
	page, limit := pagination(c)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	txs, err := h.ledger.AllTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "page": page, "limit": limit})
}

func (h *LedgerHandler) Verify(c *gin.Context) {
	driverID, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	report, err := h.ledger.VerifyDriverLedger(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
