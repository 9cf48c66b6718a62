package wikibase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/factmap/internal/cache"
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/logging"
)

// Key is a (property, value) lookup pair, typically an external identifier.
type Key struct {
	Property claims.PropertyID
	Value    string
}

// String renders the key as "P214=113230702".
func (k Key) String() string {
	return string(k.Property) + "=" + k.Value
}

// ParseKey parses "P214=113230702".
func ParseKey(s string) (Key, error) {
	prop, value, ok := strings.Cut(s, "=")
	if !ok || value == "" {
		return Key{}, errors.NewValidationError("key", s, "expected PROPERTY=VALUE")
	}
	k := Key{Property: claims.PropertyID(strings.TrimSpace(prop)), Value: strings.TrimSpace(value)}
	if err := k.Property.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Resolver maps identifier values to the entities carrying them, using the
// query service. Results are cached per key, including empty ones.
type Resolver struct {
	client *Client
	cache  *cache.Cache[[]string]
}

// NewResolver returns a resolver backed by the client's SPARQL endpoint.
func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache.New[[]string](constants.CacheTTL, constants.CacheCleanupInterval),
	}
}

// CacheStats reports resolver cache usage.
func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// ResolveByPropertyValues returns, for every requested (property, value),
// the concept URIs of entities with that value. Values without a match map
// to an empty slice.
func (r *Resolver) ResolveByPropertyValues(ctx context.Context, lookups map[claims.PropertyID][]string) (map[Key][]string, error) {
	logger := logging.FromContext(ctx)
	out := make(map[Key][]string)

	props := make([]claims.PropertyID, 0, len(lookups))
	for p := range lookups {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	slices.Sort(props)

	for _, prop := range props {
		var pending []string
		for _, v := range lookups[prop] {
			k := Key{Property: prop, Value: v}
			if _, done := out[k]; done {
				continue
			}
			if hit, ok := r.cache.Get(k.String()); ok {
				out[k] = hit
				continue
			}
			out[k] = nil
			pending = append(pending, v)
		}

		for start := 0; start < len(pending); start += constants.MaxSPARQLValues {
			chunk := pending[start:min(start+constants.MaxSPARQLValues, len(pending))]
			found, err := r.query(ctx, prop, chunk)
			if err != nil {
				return nil, err
			}
			for _, v := range chunk {
				k := Key{Property: prop, Value: v}
				out[k] = found[v]
				r.cache.Set(k.String(), found[v])
			}
			logger.Debug().
				Str("property", string(prop)).
				Int("values", len(chunk)).
				Int("matched", len(found)).
				Msg("Resolved identifiers")
		}
	}

	for k, v := range out {
		if v == nil {
			out[k] = []string{}
		}
	}
	return out, nil
}

// ResolveIDs is ResolveByPropertyValues reduced to bare entity IDs.
func (r *Resolver) ResolveIDs(ctx context.Context, keys ...Key) (map[Key][]string, error) {
	lookups := make(map[claims.PropertyID][]string)
	for _, k := range keys {
		lookups[k.Property] = append(lookups[k.Property], k.Value)
	}
	res, err := r.ResolveByPropertyValues(ctx, lookups)
	if err != nil {
		return nil, err
	}
	for k, uris := range res {
		ids := make([]string, 0, len(uris))
		for _, u := range uris {
			ids = append(ids, strings.TrimPrefix(u, r.client.prefix))
		}
		res[k] = ids
	}
	return res, nil
}

func (r *Resolver) query(ctx context.Context, prop claims.PropertyID, vals []string) (map[string][]string, error) {
	q := buildQuery(prop, vals)
	params := url.Values{}
	params.Set("query", q)
	params.Set("format", "json")
	u := r.client.sparqlURL + "?" + params.Encode()

	var resp sparqlResponse
	err := r.client.reads.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/sparql-results+json")
		return req, nil
	}, &resp)
	if err != nil {
		return nil, errors.WrapResource("resolve", "identifiers", string(prop), err)
	}

	found := make(map[string][]string)
	for _, b := range resp.Results.Bindings {
		item, value := b["item"].Value, b["value"].Value
		if item == "" || slices.Contains(found[value], item) {
			continue
		}
		found[value] = append(found[value], item)
	}
	return found, nil
}

func buildQuery(prop claims.PropertyID, vals []string) string {
	var b strings.Builder
	b.WriteString("SELECT ?item ?value WHERE { VALUES ?value { ")
	for _, v := range vals {
		b.WriteString(strconv.Quote(v))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "} ?item wdt:%s ?value . }", prop)
	return b.String()
}
