package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"teamcalendar/internal/delivery/http/controllers"
	"teamcalendar/internal/delivery/http/middleware"
	"teamcalendar/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// metricsHandler may be nil, in which case /metrics is not served.
func NewRouter(
	eventController *controllers.EventController,
	availabilityController *controllers.AvailabilityController,
	resourceController *controllers.ResourceController,
	verifier domain.TokenVerifier,
	metricsHandler http.Handler,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Events
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events.ics", auth(eventController.ExportCalendar))
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{id}", auth(eventController.GetEvent))
	mux.HandleFunc("PUT /events/{id}", auth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{id}", auth(eventController.DeleteEvent))
	mux.HandleFunc("PATCH /events/{id}/status", auth(eventController.UpdateEventStatus))

	// Participants
	mux.HandleFunc("GET /events/{id}/participants", auth(eventController.ListParticipants))
	mux.HandleFunc("POST /events/{id}/participants", auth(eventController.AddParticipant))
	mux.HandleFunc("PUT /events/{id}/participants/{userId}", auth(eventController.UpdateParticipant))
	mux.HandleFunc("DELETE /events/{id}/participants/{userId}", auth(eventController.RemoveParticipant))

	// Availability
	mux.HandleFunc("GET /resources/availability", auth(availabilityController.BulkAvailability))
	mux.HandleFunc("GET /resources/{id}/availability", auth(availabilityController.ResourceAvailability))

	// Resources, resource types and locations
	mux.HandleFunc("POST /resources", auth(resourceController.CreateResource))
	mux.HandleFunc("GET /resources", auth(resourceController.ListResources))
	mux.HandleFunc("GET /resources/{id}", auth(resourceController.GetResource))
	mux.HandleFunc("DELETE /resources/{id}", auth(resourceController.DeleteResource))
	mux.HandleFunc("PATCH /resources/{id}/bookable", auth(resourceController.SetResourceBookable))
	mux.HandleFunc("POST /resource-types", auth(resourceController.CreateResourceType))
	mux.HandleFunc("GET /resource-types", auth(resourceController.ListResourceTypes))
	mux.HandleFunc("POST /locations", auth(resourceController.CreateLocation))
	mux.HandleFunc("GET /locations", auth(resourceController.ListLocations))
	mux.HandleFunc("DELETE /locations/{id}", auth(resourceController.DeleteLocation))

	// Operations
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
