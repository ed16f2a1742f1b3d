package app

import (
	"context"

	"link-router/internal/storage"
)

// linkSource adapts the persistent store to the pattern tracker's source
// contract. Related links share the destination domain of the looked-up
// code.
type linkSource struct {
	store storage.Storage
}

func (s *linkSource) Lookup(ctx context.Context, code string) (string, error) {
	link, err := s.store.GetLink(ctx, code)
	if err != nil {
		return "", err
	}
	return link.Destination, nil
}

func (s *linkSource) Related(ctx context.Context, code string, limit int) (map[string]string, error) {
	link, err := s.store.GetLink(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.Domain == "" {
		return nil, nil
	}

	related, err := s.store.ByDomain(ctx, link.Domain, limit)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(related))
	for _, r := range related {
		if r.Code == code {
			continue
		}
		out[r.Code] = r.Destination
	}
	return out, nil
}
