// Package models defines the data structures shared across the link router.
package models

import (
	"net/url"
	"strings"
	"time"
)

// Link represents a short code mapped to a destination URL.
type Link struct {
	Code        string    `json:"code"`
	Destination string    `json:"destination"`
	Domain      string    `json:"domain"`
	Campaign    string    `json:"campaign,omitempty"`
	HitCount    int64     `json:"hit_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DomainOf extracts the lowercase host of a destination URL. Links sharing a
// domain are considered related for pre-caching purposes.
func DomainOf(destination string) string {
	u, err := url.Parse(destination)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// LinkStats is the derived per-link report served from the reports cache.
type LinkStats struct {
	Code         string    `json:"code"`
	Destination  string    `json:"destination"`
	HitCount     int64     `json:"hit_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// CreateLinkRequest is the payload for creating a new link.
type CreateLinkRequest struct {
	Code        string `json:"code"`
	Destination string `json:"destination"`
	Campaign    string `json:"campaign,omitempty"`
}

// Validate checks that a create request is well-formed.
func (r *CreateLinkRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return errEmptyCode
	}
	u, err := url.Parse(r.Destination)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errInvalidDestination
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return errInvalidDestination
	}
	return nil
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
