// Package storage defines the persistent link store consumed by the cache
// layer on misses and during warming.
package storage

import (
	"context"

	"link-router/internal/models"
)

// Storage is the persistent store contract. Implementations exist for
// SQLite and PostgreSQL. Unlike the cache tiers, storage errors propagate
// to callers; the cache has no further fallback once both tiers and the
// store have failed.
type Storage interface {
	// CreateLink persists a new link.
	CreateLink(ctx context.Context, link *models.Link) error

	// GetLink retrieves a link by short code. Returns a not_found error
	// when no such code exists.
	GetLink(ctx context.Context, code string) (*models.Link, error)

	// ListLinks retrieves paginated links ordered by creation time.
	ListLinks(ctx context.Context, limit, offset int) ([]*models.Link, error)

	// MostUsed retrieves up to limit links ordered by descending hit
	// count. Used by the cache warmer.
	MostUsed(ctx context.Context, limit int) ([]*models.Link, error)

	// ByDomain retrieves up to limit links whose destination shares the
	// given domain. Used by adaptive pre-caching of related links.
	ByDomain(ctx context.Context, domain string, limit int) ([]*models.Link, error)

	// RecordHit increments a link's usage counter.
	RecordHit(ctx context.Context, code string) error

	// GetLinkStats returns the derived per-link report.
	GetLinkStats(ctx context.Context, code string) (*models.LinkStats, error)

	// Health checks connectivity to the underlying database.
	Health() error

	// Close releases the database connection.
	Close() error
}
