// Package sqlite implements the link store on an embedded SQLite database,
// the default backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "link-router/internal/common/errors"
	"link-router/internal/models"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS links (
		code TEXT PRIMARY KEY,
		destination TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		campaign TEXT NOT NULL DEFAULT '',
		hit_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_links_domain ON links(domain);
	CREATE INDEX IF NOT EXISTS idx_links_hit_count ON links(hit_count);
	`
	_, err := a.db.Exec(schema)
	return err
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Health() error {
	return a.db.Ping()
}

func (a *Adapter) CreateLink(ctx context.Context, link *models.Link) error {
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now
	if link.Domain == "" {
		link.Domain = models.DomainOf(link.Destination)
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO links (code, destination, domain, campaign, hit_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.Code, link.Destination, link.Domain, link.Campaign, link.HitCount,
		link.CreatedAt, link.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

func (a *Adapter) GetLink(ctx context.Context, code string) (*models.Link, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT code, destination, domain, campaign, hit_count, created_at, updated_at
		 FROM links WHERE code = ?`, code)

	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("link")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func (a *Adapter) ListLinks(ctx context.Context, limit, offset int) ([]*models.Link, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT code, destination, domain, campaign, hit_count, created_at, updated_at
		 FROM links ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	return collectLinks(rows)
}

func (a *Adapter) MostUsed(ctx context.Context, limit int) ([]*models.Link, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT code, destination, domain, campaign, hit_count, created_at, updated_at
		 FROM links ORDER BY hit_count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most used links: %w", err)
	}
	defer rows.Close()

	return collectLinks(rows)
}

func (a *Adapter) ByDomain(ctx context.Context, domain string, limit int) ([]*models.Link, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT code, destination, domain, campaign, hit_count, created_at, updated_at
		 FROM links WHERE domain = ? ORDER BY hit_count DESC LIMIT ?`, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query links by domain: %w", err)
	}
	defer rows.Close()

	return collectLinks(rows)
}

func (a *Adapter) RecordHit(ctx context.Context, code string) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE links SET hit_count = hit_count + 1, updated_at = ? WHERE code = ?`,
		time.Now().UTC(), code)
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return nil
}

func (a *Adapter) GetLinkStats(ctx context.Context, code string) (*models.LinkStats, error) {
	link, err := a.GetLink(ctx, code)
	if err != nil {
		return nil, err
	}

	return &models.LinkStats{
		Code:         link.Code,
		Destination:  link.Destination,
		HitCount:     link.HitCount,
		CreatedAt:    link.CreatedAt,
		LastModified: link.UpdatedAt,
	}, nil
}

// scanner abstracts *sql.Row and *sql.Rows for link scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLink(s scanner) (*models.Link, error) {
	var link models.Link
	err := s.Scan(&link.Code, &link.Destination, &link.Domain, &link.Campaign,
		&link.HitCount, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func collectLinks(rows *sql.Rows) ([]*models.Link, error) {
	var links []*models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}
