package api

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of the HTTP API
type Dependencies struct {
	Bookings BookingServicer
	Rooms    RoomServicer
	Store    Pinger
	// Events serves the booking update stream; nil disables /events
	Events http.Handler
	// SubmitLimiter limits booking submissions; nil disables limiting
	SubmitLimiter *RequesterLimiter
	Logger        *zap.Logger
	Now           func() time.Time
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(deps Dependencies) *httprouter.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, logger, &AppError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		logger.Error("Handler panicked", zap.String("path", r.URL.Path), zap.Any("panic", v))
		writeError(w, logger, &AppError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError})
	}

	// Health check endpoints for Kubernetes
	router.HandlerFunc(http.MethodGet, "/health/live", HealthLiveHandler)
	router.HandlerFunc(http.MethodGet, "/health/ready", HealthReadyHandler(deps.Store))

	rooms := NewRoomHandler(deps.Rooms, logger, deps.Now)
	router.GET("/api/rooms", rooms.Search)
	router.GET("/api/rooms/:id", rooms.Get)
	router.PUT("/api/rooms/:id", rooms.Put)
	router.GET("/api/rooms/:id/schedule", rooms.Schedule)
	router.GET("/api/rooms/:id/status", rooms.Status)
	router.GET("/api/rooms/:id/week", rooms.Week)

	bookings := NewBookingHandler(deps.Bookings, logger)
	var submit httprouter.Handle = bookings.Submit
	if deps.SubmitLimiter != nil {
		submit = deps.SubmitLimiter.Limit(submit)
	}
	router.POST("/api/bookings", submit)
	router.GET("/api/bookings", bookings.List)
	router.GET("/api/bookings/:id", bookings.Get)
	router.POST("/api/bookings/:id/cancel", bookings.CancelOwn)
	router.POST("/api/admin/bookings/:id/:action", bookings.AdminTransition)

	if deps.Events != nil {
		router.Handler(http.MethodGet, "/events", deps.Events)
	}

	return router
}
