package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jolaman/service"
)

type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Phone == "" || body.Password == "" {
		abortWithError(c, http.StatusBadRequest, "phone and password are required")
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), body.Phone, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}
