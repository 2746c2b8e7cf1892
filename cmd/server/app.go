package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carloseedutra-ti/EPIFlow/internal/config"
	"github.com/carloseedutra-ti/EPIFlow/internal/platform/postgres"
	"github.com/carloseedutra-ti/EPIFlow/internal/service"
	"github.com/carloseedutra-ti/EPIFlow/internal/service/auth"
	"github.com/carloseedutra-ti/EPIFlow/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore     store.UserStore
	agentStore    store.AgentStore
	employeeStore store.EmployeeStore
	taskStore     store.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	agentService     service.AgentService
	employeeService  service.EmployeeService
	biometricService service.BiometricService

	// Background expiry sweep
	sweeper *service.Sweeper
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.agentStore = postgres.NewPostgresAgentStore(db, logger)
	app.employeeStore = postgres.NewPostgresEmployeeStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// Initialize user service
	app.userService, err = service.NewUserService(
		app.userStore,
		app.passwordVerifier,
		app.jwtService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	// Initialize agent service
	app.agentService, err = service.NewAgentService(app.agentStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent service: %w", err)
	}

	// Initialize employee service
	app.employeeService, err = service.NewEmployeeService(app.employeeStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee service: %w", err)
	}

	// Initialize the capture task orchestration service
	app.biometricService, err = service.NewBiometricService(
		db,
		app.agentStore,
		app.taskStore,
		app.employeeStore,
		time.Duration(cfg.Biometrics.CaptureTimeoutMinutes)*time.Minute,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create biometric service: %w", err)
	}

	// Start the background expiry sweeper; the per-poll sweep only covers
	// agents that keep polling.
	app.sweeper = service.NewSweeper(app.biometricService, service.SweeperConfig{
		CheckInterval: time.Duration(cfg.Biometrics.SweepIntervalSeconds) * time.Second,
	}, logger)
	app.sweeper.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the expiry sweeper
	if app.sweeper != nil {
		app.sweeper.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
