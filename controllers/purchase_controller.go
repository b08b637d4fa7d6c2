package controllers

import (
	"net/http"

	"crediario/services"

	"github.com/gin-gonic/gin"
)

// PurchaseController handles purchase registration.
type PurchaseController struct {
	facade *services.Facade
}

// NewPurchaseController creates a PurchaseController.
func NewPurchaseController(facade *services.Facade) *PurchaseController {
	return &PurchaseController{facade: facade}
}

// RegisterPurchase handles POST /api/compras and returns the purchase with its installments.
func (h *PurchaseController) RegisterPurchase(c *gin.Context) {
	var dto services.RegisterPurchaseDTO
	if !bindJSON(c, &dto) {
		return
	}

	result, err := h.facade.RegisterPurchase(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListPurchasePayments returns the installments of a purchase in order.
func (h *PurchaseController) ListPurchasePayments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payments, err := h.facade.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
