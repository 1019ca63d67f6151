package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jolaman/pkg/myerrors"
)

type errorResponse struct {
	Error string `json:"error"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// respondError maps service errors onto HTTP statuses: validation to
// 400, missing entities to 404, state conflicts to 409.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, myerrors.ErrValidation),
		errors.Is(err, myerrors.ErrInvalidAmount),
		errors.Is(err, myerrors.ErrUnknownOperationType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, myerrors.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, myerrors.ErrOrderNotFound),
		errors.Is(err, myerrors.ErrTariffNotFound),
		errors.Is(err, myerrors.ErrDriverNotFound),
		errors.Is(err, myerrors.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, myerrors.ErrInvalidTransition):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "internal error")
	}
}
