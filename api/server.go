package api

import (
	"errors"
	"net/http"

	"dishdash/config"
	"dishdash/pkg/events"
	"dishdash/pkg/logger"
	"dishdash/service"
	"dishdash/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type Server struct {
	svc    service.IServiceManager
	stg    storage.IStorage
	events events.IPublisher
	tokens *TokenService
	log    logger.ILogger
}

func NewServer(svc service.IServiceManager, stg storage.IStorage, ev events.IPublisher, cfg config.Config, log logger.ILogger) *Server {
	return &Server{
		svc:    svc,
		stg:    stg,
		events: ev,
		tokens: NewTokenService(cfg.JWTSecret),
		log:    log,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	api := r.Group("/api")

	// Public storefront surface.
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/meals", s.handleListMeals)
	api.POST("/promotions/validate", s.handleValidatePromo)

	// Customer surface.
	authed := api.Group("")
	authed.Use(AuthMiddleware(s.tokens))
	authed.POST("/orders", s.handleCreateOrder)
	authed.GET("/orders", s.handleListMyOrders)
	authed.GET("/orders/:id", s.handleGetMyOrder)
	authed.GET("/track/:number", s.handleTrackOrder)
	authed.POST("/payments/intent", s.handleCreatePaymentIntent)
	authed.GET("/notifications", s.handleListNotifications)
	authed.PUT("/me/push-token", s.handleRegisterPushToken)
	authed.PUT("/me/email-opt-out", s.handleSetEmailOptOut)
	authed.POST("/drivers/apply", s.handleDriverApply)

	// Drivers update only their assigned orders.
	driver := api.Group("/driver")
	driver.Use(AuthMiddleware(s.tokens), RequireRole("driver", "admin"))
	driver.GET("/orders", s.handleDriverOrders)
	driver.PATCH("/orders/:id/status", s.handleDriverUpdateStatus)

	return r
}

// AdminRouter serves the console on its own port so the storefront
// surface can be exposed publicly while this one stays internal.
func (s *Server) AdminRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	admin := r.Group("/admin")
	admin.Use(AuthMiddleware(s.tokens), RequireRole("admin"))
	admin.GET("/orders", s.handleAdminListOrders)
	admin.POST("/orders", s.handleAdminCreateOrder)
	admin.PATCH("/orders/:id/status", s.handleAdminUpdateStatus)
	admin.PATCH("/orders/:id/driver", s.handleAdminAssignDriver)
	admin.PATCH("/orders/:id/payment", s.handleAdminSetPaymentStatus)
	admin.DELETE("/orders", s.handleAdminBulkDelete)
	admin.GET("/stats", s.handleAdminStats)
	admin.GET("/orders/stream", s.handleAdminStreamOrders)
	admin.GET("/meals", s.handleAdminListMeals)
	admin.POST("/meals", s.handleAdminCreateMeal)
	admin.PUT("/meals/:id", s.handleAdminUpdateMeal)
	admin.PATCH("/meals/:id/availability", s.handleAdminSetMealAvailability)
	admin.DELETE("/meals/:id", s.handleAdminDeactivateMeal)
	admin.GET("/promotions", s.handleAdminListPromos)
	admin.POST("/promotions", s.handleAdminCreatePromo)
	admin.PUT("/promotions/:id", s.handleAdminUpdatePromo)
	admin.DELETE("/promotions/:id", s.handleAdminDeletePromo)
	admin.GET("/drivers", s.handleAdminListDrivers)
	admin.PATCH("/drivers/:id/status", s.handleAdminUpdateDriverStatus)
	admin.GET("/users", s.handleAdminListUsers)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// respondError maps domain errors to HTTP statuses with a specific,
// actionable message. Notification and other fan-out failures never
// reach this path by design.
func (s *Server) respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var mErr *service.MinOrderError
	var tErr *service.TransitionError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &mErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": mErr.Error()})
	case errors.As(err, &tErr):
		c.JSON(http.StatusConflict, gin.H{"error": tErr.Error()})
	case errors.Is(err, service.ErrPromoNotFound),
		errors.Is(err, service.ErrPromoInactive),
		errors.Is(err, service.ErrPromoNotStarted),
		errors.Is(err, service.ErrPromoExpired),
		errors.Is(err, service.ErrPromoLimitReached):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAmountTooSmall),
		errors.Is(err, service.ErrDriverNotApproved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you do not have access to this resource"})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		s.log.Error("unhandled request error", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
