package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jolaman/pkg/models"
	"jolaman/service"
)

type TariffHandler struct {
	tariffs service.TariffService
}

func NewTariffHandler(tariffs service.TariffService) *TariffHandler {
	return &TariffHandler{tariffs: tariffs}
}

func (h *TariffHandler) List(c *gin.Context) {
	activeOnly := c.Query("all") == ""
	tariffs, err := h.tariffs.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tariffs": tariffs})
}

func (h *TariffHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid tariff id")
		return
	}
	tariff, err := h.tariffs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tariff)
}

func (h *TariffHandler) Create(c *gin.Context) {
	var tariff models.Tariff
	if err := c.ShouldBindJSON(&tariff); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.tariffs.Create(c.Request.Context(), &tariff)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TariffHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid tariff id")
		return
	}
	var tariff models.Tariff
	if err := c.ShouldBindJSON(&tariff); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	tariff.ID = id

	if err := h.tariffs.Update(c.Request.Context(), &tariff); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tariff)
}

func (h *TariffHandler) SetActive(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid tariff id")
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.tariffs.SetActive(c.Request.Context(), id, body.Active); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
