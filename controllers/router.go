package controllers

import (
	"net/http"

	"crediario/config"
	"crediario/middleware"
	"crediario/services"
	"crediario/utils"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every HTTP route to the facade.
func NewRouter(cfg *config.Config, facade *services.Facade) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.RateLimit(utils.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window), cfg.RateLimit.Requests))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "online"})
	})

	customers := NewCustomerController(facade)
	cards := NewCardController(facade)
	purchases := NewPurchaseController(facade)
	payments := NewPaymentController(facade)
	dashboard := NewDashboardController(facade)

	api := r.Group("/api")
	{
		api.POST("/clientes", customers.CreateCustomer)
		api.GET("/clientes", customers.ListCustomers)
		api.GET("/clientes/:id", customers.GetCustomer)
		api.PATCH("/clientes/:id", customers.UpdateCustomer)
		api.GET("/clientes/:id/cartoes", customers.ListCustomerCards)

		api.POST("/cartoes", cards.CreateCard)
		api.GET("/cartoes", cards.ListCards)
		api.PATCH("/cartoes/:id", cards.UpdateCard)
		api.GET("/cartoes/:id/compras", cards.ListCardPurchases)

		api.POST("/compras", purchases.RegisterPurchase)
		api.GET("/compras/:id/pagamentos", purchases.ListPurchasePayments)

		api.GET("/pagamentos/vencidos", payments.ListOverduePayments)
		api.POST("/pagamentos/:id/pagar", payments.MarkPaid)
		api.GET("/cobrancas", payments.CollectionQueue)

		api.GET("/estatisticas", dashboard.GetStatistics)
		api.GET("/metrics", dashboard.GetMetrics)
	}

	return r
}
