// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lifti/internal/http/handlers"
	"lifti/internal/http/middleware"
	"lifti/internal/infra"
	"lifti/internal/modules/booking"
	"lifti/internal/modules/fare"
	"lifti/internal/modules/ledger"
	"lifti/internal/modules/location"
	"lifti/internal/modules/matching"
	"lifti/internal/modules/schedule"
	"lifti/internal/notify"
	"lifti/internal/service"
)

// Deps carries everything the router wires into handlers. Optional fields
// (Router, Planner, Notify) may be nil; their endpoints then degrade or are
// not registered.
type Deps struct {
	Verifier infra.TokenVerifier
	Log      *logrus.Logger

	Fare     *fare.Service
	Schedule *schedule.Service
	Booking  *booking.Service
	Matching *matching.Service
	Location *location.Service
	Ledger   *ledger.Service

	Router  handlers.Router
	Planner *service.ErrandPlanner
	Notify  *notify.Service

	NearbyRadiusKm float64
}

func NewRouter(d Deps) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.RequestLog(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(d.Verifier))

	quoteHandler := handlers.NewQuoteHandler(d.Fare, d.Router)
	api.POST("/quotes", quoteHandler.Create)

	scheduleHandler := handlers.NewScheduleHandler(d.Schedule)
	api.POST("/schedules/expand", scheduleHandler.Expand)

	bookingHandler := handlers.NewBookingHandler(d.Booking)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	driverHandler := handlers.NewDriverHandler(d.Booking, d.Matching)
	api.POST("/drivers/pool", driverHandler.JoinPool)
	api.DELETE("/drivers/pool", driverHandler.LeavePool)
	api.GET("/drivers/bookings", driverHandler.ListOpen)
	api.POST("/bookings/:id/accept", driverHandler.Accept)
	api.POST("/bookings/:id/start", driverHandler.Start)
	api.POST("/bookings/:id/complete", driverHandler.Complete)

	locationHandler := handlers.NewLocationHandler(d.Location, d.NearbyRadiusKm)
	api.PUT("/location", locationHandler.Update)
	api.GET("/drivers/nearby", locationHandler.NearbyDrivers)

	ledgerHandler := handlers.NewLedgerHandler(d.Ledger)
	api.GET("/accounts/:id/balance", ledgerHandler.Balance)
	api.POST("/accounts/:id/credits", ledgerHandler.Credit)

	if d.Planner != nil {
		conciergeHandler := handlers.NewConciergeHandler(d.Planner)
		api.POST("/concierge/errands", conciergeHandler.Plan)
	}

	if d.Notify != nil {
		deviceHandler := handlers.NewDeviceHandler(d.Notify)
		api.POST("/devices/token", deviceHandler.RegisterToken)
	}

	return r
}
