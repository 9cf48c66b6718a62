package wikibase

import (
	"context"
	"net/url"
	"strings"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/logging"
	"github.com/agentstation/factmap/pkg/values"
)

type getEntitiesResponse struct {
	Entities map[string]entityJSON `json:"entities"`
}

// Fetch loads the current claims and revision of one entity.
func (c *Client) Fetch(ctx context.Context, id string) (*claims.Record, error) {
	id = strings.TrimSpace(id)
	if !values.IsEntityID(id) {
		return nil, errors.NewValidationError("id", id, "not an entity ID")
	}
	records, err := c.FetchMany(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// FetchMany loads several entities, batching wbgetentities calls. Records
// come back in the order of ids. A missing entity fails the whole call.
func (c *Client) FetchMany(ctx context.Context, ids []string) ([]*claims.Record, error) {
	logger := logging.FromContext(ctx)
	out := make([]*claims.Record, 0, len(ids))
	for start := 0; start < len(ids); start += constants.MaxEntitiesPerRequest {
		batch := ids[start:min(start+constants.MaxEntitiesPerRequest, len(ids))]

		params := url.Values{}
		params.Set("action", "wbgetentities")
		params.Set("ids", strings.Join(batch, "|"))
		params.Set("props", "claims|info")

		var resp getEntitiesResponse
		if err := c.get(ctx, params, &resp); err != nil {
			return nil, err
		}
		for _, id := range batch {
			e, ok := resp.Entities[id]
			if !ok || len(e.Missing) > 0 {
				return nil, errors.NewNotFoundError("entity", id)
			}
			r, err := c.codec.decodeRecord(e)
			if err != nil {
				return nil, err
			}
			logger.Debug().
				Str("record", r.ID).
				Int64("revision", r.Revision).
				Int("facts", len(r.Facts)).
				Msg("Fetched record")
			out = append(out, r)
		}
	}
	return out, nil
}
