package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jolaman/pkg/models"
	"jolaman/service"
)

type OrderHandler struct {
	orders service.OrderService
}

func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var in service.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Clients create orders for themselves; dispatchers pass client_id.
	if role := c.GetString(ctxRole); role == models.RoleClient {
		in.ClientID = c.GetInt64(ctxUserID)
		in.DispatcherID = nil
	} else if role == models.RoleDispatcher {
		id := c.GetInt64(ctxUserID)
		in.DispatcherID = &id
	}

	order, err := h.orders.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	page, limit := pagination(c)
	userID := c.GetInt64(ctxUserID)

	var (
		orders []*models.Order
		err    error
	)
	if c.GetString(ctxRole) == models.RoleDriver {
		orders, err = h.orders.DriverOrders(c.Request.Context(), userID, page, limit)
	} else {
		orders, err = h.orders.ClientOrders(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "limit": limit})
}

func (h *OrderHandler) Accept(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var body struct {
		DriverID int64 `json:"driver_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.Accept(c.Request.Context(), id, body.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.AdvanceStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Finish(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var body struct {
		DistanceKm  float64 `json:"distance_km"`
		DurationMin float64 `json:"duration_min"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.Finish(c.Request.Context(), id, body.DistanceKm, body.DurationMin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	// The reason is optional, so an empty body is fine; anything else
	// must be well-formed JSON.
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	order, err := h.orders.Cancel(c.Request.Context(), id, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
