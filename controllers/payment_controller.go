package controllers

import (
	"net/http"

	"crediario/services"

	"github.com/gin-gonic/gin"
)

type markPaidRequest struct {
	PaidDate string `json:"data_pagamento"`
}

// PaymentController handles installment and collection endpoints.
type PaymentController struct {
	facade *services.Facade
}

// NewPaymentController creates a PaymentController.
func NewPaymentController(facade *services.Facade) *PaymentController {
	return &PaymentController{facade: facade}
}

// ListOverduePayments returns every pending installment past its due date.
func (h *PaymentController) ListOverduePayments(c *gin.Context) {
	payments, err := h.facade.ListOverduePayments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// MarkPaid handles POST /api/pagamentos/:id/pagar. The body is optional;
// without data_pagamento the installment is paid today.
func (h *PaymentController) MarkPaid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req markPaidRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	payment, err := h.facade.MarkPaymentPaid(c.Request.Context(), id, req.PaidDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// CollectionQueue handles GET /api/cobrancas?busca=&status=.
func (h *PaymentController) CollectionQueue(c *gin.Context) {
	filter := services.CollectionFilter{
		Term:   c.Query("busca"),
		Bucket: services.CollectionBucket(c.Query("status")),
	}

	items, err := h.facade.CollectionQueue(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
