package httpapi

import (
	"net/http"

	"github.com/fabrica-p6f5/backoffice/internal/logging"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	svc    Services
	logger logging.Logger
}

// NewRouter builds the gin engine serving the whole API.
func NewRouter(svc Services, logger logging.Logger, allowHeaderActor bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))
	Register(router, svc, logger, allowHeaderActor)
	return router
}

func Register(router *gin.Engine, svc Services, logger logging.Logger, allowHeaderActor bool) {
	h := &handlers{svc: svc, logger: logger}

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := api.Group("/v1")
	v1.POST("/auth/register", h.register)
	v1.POST("/auth/login", h.login)
	v1.POST("/auth/refresh", h.refresh)

	protected := v1.Group("")
	protected.Use(AuthRequired(svc.Users, allowHeaderActor))
	protected.GET("/me", h.me)
	protected.POST("/auth/logout", h.logout)

	protected.GET("/users", h.listUsers)
	protected.GET("/users/:id", h.getUser)
	protected.PUT("/users/:id", h.updateUser)
	protected.DELETE("/users/:id", h.deleteUser)
	protected.GET("/users/:id/preferences", h.getPreferences)
	protected.PUT("/users/:id/preferences", h.putPreferences)

	protected.POST("/invoices", h.createInvoice)
	protected.GET("/invoices", h.listInvoices)
	protected.GET("/invoices/:id", h.getInvoice)
	protected.PUT("/invoices/:id", h.updateInvoice)
	protected.POST("/invoices/:id/issue", h.issueInvoice)
	protected.GET("/invoices/:id/history", h.invoiceHistory)

	protected.GET("/shipments", h.listShipments)
	protected.POST("/shipments", h.createShipment)
	protected.GET("/shipments/:id", h.getShipment)

	protected.POST("/documents", h.uploadDocument)
	protected.GET("/documents/:id", h.downloadDocument)
}
