package controllers

import (
	"net/http"

	"crediario/models"
	"crediario/services"

	"github.com/gin-gonic/gin"
)

// CardController handles the card endpoints.
type CardController struct {
	facade *services.Facade
}

// NewCardController creates a CardController.
func NewCardController(facade *services.Facade) *CardController {
	return &CardController{facade: facade}
}

// CreateCard handles POST /api/cartoes.
func (h *CardController) CreateCard(c *gin.Context) {
	var dto services.CreateCardDTO
	if !bindJSON(c, &dto) {
		return
	}

	card, err := h.facade.CreateCard(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// ListCards returns every card.
func (h *CardController) ListCards(c *gin.Context) {
	cards, err := h.facade.ListCards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// UpdateCard handles PATCH /api/cartoes/:id.
func (h *CardController) UpdateCard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.CardPatch
	if !bindJSON(c, &patch) {
		return
	}

	card, err := h.facade.UpdateCard(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// ListCardPurchases returns the purchases made with a card.
func (h *CardController) ListCardPurchases(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	purchases, err := h.facade.ListPurchasesByCard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}
