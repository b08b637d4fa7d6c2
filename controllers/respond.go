package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"crediario/database"
	"crediario/services"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": message} with the matching status code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	message := "Erro inesperado"
	var failure *services.Failure
	if errors.As(err, &failure) {
		message = failure.Message
	}
	c.JSON(statusFor(err), gin.H{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConstraintViolation), errors.Is(err, services.ErrPaymentAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, database.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// parseID reads a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "ID inválido")
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dto.
func bindJSON(c *gin.Context, dto interface{}) bool {
	if err := c.ShouldBindJSON(dto); err != nil {
		badRequest(c, "Corpo da requisição inválido")
		return false
	}
	return true
}
