package app

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
	"dispatch/internal/notify"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	DispatchHandler *handler.DispatchHandler
	DriverHandler   *handler.DriverHandler
	FareHandler     *handler.FareHandler
	LedgerHandler   *handler.LedgerHandler
	WSHandler       *notify.WSHandler
	DB              *sql.DB
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	IdempotencyTTL  time.Duration
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.IdempotencyTTL))

	// Health check with dependency pings.
	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		code := 200

		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = 503
		}
		if err := deps.RedisClient.Ping(c.Request.Context()).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = err.Error()
			code = 503
		}

		c.JSON(code, status)
	})

	// WebSocket event streams.
	ws := router.Group("/ws")
	{
		ws.GET("/passengers/:id", deps.WSHandler.PassengerSocket)
		ws.GET("/drivers/:id", deps.WSHandler.DriverSocket)
		ws.GET("/dispatch", deps.WSHandler.DispatchSocket)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		v1.POST("/estimate-price", deps.FareHandler.EstimatePrice)

		// Passenger routes.
		passengers := v1.Group("/passengers")
		{
			passengers.POST("/:id/trips", deps.TripHandler.RequestTrip)
			passengers.GET("/:id/trips", deps.TripHandler.ListPassengerTrips)
			passengers.GET("/:id/trips/active", deps.TripHandler.GetActiveTrip)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.RegisterDriver)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.GET("/:id/nearby-requests", deps.DispatchHandler.ListNearby)
			drivers.POST("/:id/accept/:trip_id", deps.DispatchHandler.AcceptTrip)
			drivers.POST("/:id/reject/:trip_id", deps.DispatchHandler.RejectTrip)
			drivers.PUT("/:id/trips/:trip_id/status", deps.TripHandler.UpdateTripStatus)
			drivers.GET("/:id/trips", deps.TripHandler.ListDriverTrips)
			drivers.GET("/:id/finances", deps.LedgerHandler.GetFinances)
			drivers.GET("/:id/finances/payments", deps.LedgerHandler.ListPayments)
			drivers.GET("/:id/earnings-summary", deps.LedgerHandler.GetEarningsSummary)
		}

		// Admin routes.
		admin := v1.Group("/admin")
		{
			admin.GET("/pricing-config", deps.FareHandler.GetPricingConfig)
			admin.PUT("/pricing-config", deps.FareHandler.UpdatePricingConfig)
			admin.GET("/fare-ranges", deps.FareHandler.ListFareRanges)
			admin.POST("/fare-ranges", deps.FareHandler.CreateFareRange)
			admin.PUT("/fare-ranges/:id", deps.FareHandler.UpdateFareRange)
			admin.DELETE("/fare-ranges/:id", deps.FareHandler.DeleteFareRange)
			admin.GET("/finances/drivers", deps.LedgerHandler.ListAllLedgers)
			admin.GET("/finances/drivers/:id", deps.LedgerHandler.GetDriverDetail)
			admin.POST("/finances/payments", deps.LedgerHandler.RecordPayment)
			admin.GET("/finances/summary", deps.LedgerHandler.GetFinancialSummary)
		}
	}

	return router
}
