package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carloseedutra-ti/EPIFlow/internal/api"
	apiMiddleware "github.com/carloseedutra-ti/EPIFlow/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.userService)
	agentHandler := api.NewAgentHandler(app.agentService)
	employeeHandler := api.NewEmployeeHandler(app.employeeService, app.biometricService)
	biometricHandler := api.NewBiometricHandler(app.biometricService, app.userStore)
	deviceHandler := api.NewDeviceHandler(app.biometricService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Agent wire protocol (credentialed by API key in the body)
		r.Route("/agent", func(r chi.Router) {
			r.Post("/config", deviceHandler.Config)
			r.Post("/poll", deviceHandler.Poll)
			r.Post("/complete", deviceHandler.Complete)
			r.Post("/fail", deviceHandler.Fail)
		})

		// Protected operator routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Agent management endpoints
			r.Post("/agents", agentHandler.Register)
			r.Get("/agents", agentHandler.List)
			r.Put("/agents/{id}/status", agentHandler.SetStatus)
			r.Post("/agents/{id}/reset-key", agentHandler.ResetAPIKey)

			// Employee endpoints
			r.Post("/employees", employeeHandler.Create)
			r.Get("/employees/{id}", employeeHandler.Get)
			r.Get("/employees/{id}/biometrics", employeeHandler.Biometrics)
			r.Delete("/employees/{id}/biometrics", employeeHandler.ClearBiometrics)

			// Capture task endpoints
			r.Post("/biometrics/enrollments", biometricHandler.RequestEnrollment)
			r.Post("/biometrics/verifications", biometricHandler.RequestVerification)
			r.Get("/biometrics/tasks/{id}", biometricHandler.GetTask)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
