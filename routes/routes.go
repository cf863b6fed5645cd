package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salonpro-booking/config"
	"salonpro-booking/controllers"
	"salonpro-booking/models"
	"salonpro-booking/utils"
)

type RouterConfig struct {
	JWTSecret      string
	WebhookSecret  string
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
}

type Handlers struct {
	Appointments *controllers.AppointmentController
	Services     *controllers.ServiceController
	Offers       *controllers.OfferController
	Wallets      *controllers.WalletController
	Payments     *controllers.PaymentController
	Customers    *controllers.CustomerController
	Salon        *controllers.SalonController
}

func SetupRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Called by the payment gateway handler once it has verified the signature.
	r.POST("/webhooks/payments", utils.WebhookSecretMiddleware(cfg.WebhookSecret), h.Payments.HandlePaymentEvent)

	staff := utils.RequireRole(models.RoleOwner, models.RoleStaff)
	owner := utils.RequireRole(models.RoleOwner)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(cfg.JWTSecret))
	{
		appointments := api.Group("/appointments")
		{
			appointments.POST("/quote", h.Appointments.Quote)
			appointments.POST("", h.Appointments.Create)
			appointments.GET("", h.Appointments.List)
			appointments.GET("/:id", h.Appointments.Get)
			appointments.GET("/:id/invoice", h.Appointments.Invoice)
			appointments.PUT("/:id/status", staff, h.Appointments.UpdateStatus)
			appointments.PUT("/:id/cancel", h.Appointments.Cancel)
			appointments.PUT("/:id/reschedule", h.Appointments.Reschedule)
		}

		services := api.Group("/services")
		{
			services.GET("", h.Services.GetServices)
			services.GET("/:id", h.Services.GetService)
			services.POST("", staff, h.Services.CreateService)
			services.PUT("/:id", staff, h.Services.UpdateService)
			services.DELETE("/:id", staff, h.Services.DeleteService)
		}

		offers := api.Group("/offers")
		{
			offers.GET("", h.Offers.GetOffers)
			offers.GET("/:id", h.Offers.GetOffer)
			offers.POST("", staff, h.Offers.CreateOffer)
			offers.DELETE("/:id", owner, h.Offers.DeleteOffer)
		}

		customers := api.Group("/customers", staff)
		{
			customers.POST("", h.Customers.CreateCustomer)
			customers.GET("", h.Customers.GetCustomers)
			customers.GET("/:id", h.Customers.GetCustomer)
		}

		api.GET("/wallet", h.Wallets.GetWallet)
		api.POST("/wallets/:userId/credit", owner, h.Wallets.CreditWallet)

		salon := api.Group("/salon", owner)
		{
			salon.GET("", h.Salon.GetSalon)
			salon.PUT("/hours", h.Salon.UpdateWorkingHours)
			salon.PUT("/notifications", h.Salon.UpdateNotificationSettings)
		}
	}

	return r
}
