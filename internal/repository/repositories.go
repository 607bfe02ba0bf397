package repository

import (
	"fmt"

	"github.com/deppfellow/product-inventory/internal/config"
	"github.com/deppfellow/product-inventory/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Products ProductStore
}

// NewRepositories builds the product store for the configured driver from
// the clients the server container has opened.
func NewRepositories(s *server.Server) (*Repositories, error) {
	store := s.Config.Store

	var products ProductStore
	switch store.Driver {
	case config.DriverDynamoDB:
		if s.Dynamo == nil {
			return nil, fmt.Errorf("dynamodb client not initialized")
		}
		products = NewDynamoStore(s.Dynamo, store.Table, store.PageSize)
	case config.DriverPostgres:
		if s.DB == nil {
			return nil, fmt.Errorf("database pool not initialized")
		}
		products = NewPostgresStore(s.DB.Pool, store.PageSize)
	case config.DriverRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("redis client not initialized")
		}
		products = NewRedisStore(s.Redis, store.Table, store.PageSize)
	case config.DriverMemory:
		products = NewMemoryStore(store.PageSize)
	default:
		return nil, fmt.Errorf("unknown store driver %q", store.Driver)
	}

	return &Repositories{Products: products}, nil
}
