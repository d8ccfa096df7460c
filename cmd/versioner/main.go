package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pluginforge/pluginvcs/cmd/versioner/container"
	"github.com/pluginforge/pluginvcs/cmd/versioner/routes"
	"github.com/pluginforge/pluginvcs/common/bootstrap"
	"github.com/pluginforge/pluginvcs/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "versioner")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap versioner: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (all stores and services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	srv := server.New("versioner", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		if components.DB != nil {
			if err := components.DB.Health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status":  "degraded",
					"service": "versioner",
					"error":   err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  status,
			"service": "versioner",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterPluginRoutes(e, serviceContainer)
	routes.RegisterVersionRoutes(e, serviceContainer)
	routes.RegisterCompareRoutes(e, serviceContainer)
	routes.RegisterTagRoutes(e, serviceContainer)
}
