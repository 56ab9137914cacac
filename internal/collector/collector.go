package collector

import (
	"context"
	"errors"

	"github.com/vigilops/vigil/pkg/models"
)

var (
	ErrCollectionFailed = errors.New("metric collection failed")
	ErrTimeout          = errors.New("collection timeout")
	ErrResourceNotFound = errors.New("resource not found")
	ErrInvalidResponse  = errors.New("invalid response from data source")
)

// Collector defines the interface for metric collection
type Collector interface {
	// Collect fetches the current metrics of a monitored resource
	Collect(ctx context.Context, resourceID string) (*models.ResourceMetrics, error)

	// HealthCheck verifies the collector can reach its data source
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the collector
	Close() error
}
