package bucket

import (
	"context"
	"fmt"

	"github.com/ethanbaker/api/pkg/api_key"
	"github.com/ethanbaker/bucket/pkg/store"
	"github.com/ethanbaker/bucket/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Backend is the slice of the factoid engine the admin routes read from
type Backend interface {
	Items() []string
	InventorySize() int
	Lookup(ctx context.Context, fact string) ([]*store.Factoid, error)
	Forget(ctx context.Context, id uint) (*store.Factoid, error)
	Friend(ctx context.Context, nick string) (*store.Friend, error)
}

// Register routes for the bucket module
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config, backend Backend) error {
	// Make api key validator
	validator, err := makeApiKeyValidator(cfg)
	if err != nil {
		return fmt.Errorf("failed to create API key validator: %w", err)
	}

	ctrl := &controller{backend: backend}

	// Create base group for bucket routes
	group := g.Group("/bucket")
	group.Handlers = append(group.Handlers, api_key.APIKeyHeaderHandler(validator))

	group.GET("/inventory", ctrl.getInventory)  // What the bot is holding
	group.GET("/facts/:fact", ctrl.getFacts)    // Every factoid for a trigger
	group.DELETE("/facts/:id", ctrl.deleteFact) // Forget a factoid by id
	group.GET("/friends/:nick", ctrl.getFriend) // Reputation of a nick

	return nil
}

// makeApiKeyValidator checks if the provided API key is valid
func makeApiKeyValidator(cfg *utils.Config) (func(key string) bool, error) {
	// Get api key from config
	apiKey := cfg.Get("API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY not set in environment")
	}

	return func(key string) bool {
		return apiKey == key
	}, nil
}
