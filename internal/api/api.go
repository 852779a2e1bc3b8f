package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/ethanbaker/bucket/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	bucket_module "github.com/ethanbaker/bucket/internal/api/modules/bucket"
	health_module "github.com/ethanbaker/bucket/internal/api/modules/health"
)

// NewRouter builds the gin engine with every module registered
func NewRouter(cfg *utils.Config, backend bucket_module.Backend) (*gin.Engine, error) {
	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	if err := bucket_module.RegisterRoutes(baseGroup, cfg, backend); err != nil {
		return nil, err
	}

	// Literal dumps are plain files written by the factoid engine
	baseGroup.Static("/literal", cfg.GetWithDefault("BUCKET_LITERAL_PATH", "literal"))

	return engine, nil
}

// NewServer wraps the router in an http.Server listening on API_PORT
func NewServer(cfg *utils.Config, backend bucket_module.Backend) (*http.Server, error) {
	router, err := NewRouter(cfg, backend)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.GetWithDefault("API_PORT", "8080"), ":"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}
