package http

import (
	"github.com/Andreo9078/orgdirectory/internal/adapters/postgres"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
	"github.com/Andreo9078/orgdirectory/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Organizations *usecases.OrganizationService
	Buildings     *usecases.BuildingService
	Activities    *usecases.ActivityService
	DB            *postgres.DB
	Cache         ports.CacheService

	// APIKey guards all /v1 routes when non-empty.
	APIKey string

	// ResponseTTL is the response cache TTL in seconds.
	ResponseTTL int
}
