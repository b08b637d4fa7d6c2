package controllers

import (
	"net/http"

	"crediario/models"
	"crediario/services"

	"github.com/gin-gonic/gin"
)

// CustomerController handles the customer endpoints.
type CustomerController struct {
	facade *services.Facade
}

// NewCustomerController creates a CustomerController.
func NewCustomerController(facade *services.Facade) *CustomerController {
	return &CustomerController{facade: facade}
}

// CreateCustomer handles POST /api/clientes.
func (h *CustomerController) CreateCustomer(c *gin.Context) {
	var dto services.CreateCustomerDTO
	if !bindJSON(c, &dto) {
		return
	}

	customer, err := h.facade.CreateCustomer(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// ListCustomers handles GET /api/clientes?nome=&cpf=&status=.
func (h *CustomerController) ListCustomers(c *gin.Context) {
	filter := services.CustomerFilter{
		Name:       c.Query("nome"),
		NationalID: c.Query("cpf"),
		Status:     models.CustomerStatus(c.Query("status")),
	}

	customers, err := h.facade.ListCustomers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// GetCustomer returns one customer by id.
func (h *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	customer, err := h.facade.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PATCH /api/clientes/:id; absent fields are kept.
func (h *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch models.CustomerPatch
	if !bindJSON(c, &patch) {
		return
	}

	customer, err := h.facade.UpdateCustomer(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// ListCustomerCards returns the cards issued to a customer.
func (h *CustomerController) ListCustomerCards(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	cards, err := h.facade.ListCardsByCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}
