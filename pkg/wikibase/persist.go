package wikibase

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/logging"
	"github.com/agentstation/factmap/pkg/planner"
	"github.com/agentstation/factmap/pkg/reconciler"
)

type tokenResponse struct {
	Query struct {
		Tokens struct {
			CSRFToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type editResponse struct {
	Success int `json:"success"`
	Entity  struct {
		ID        string `json:"id"`
		LastRevID int64  `json:"lastrevid"`
	} `json:"entity"`
}

// anonymousToken is what the API hands out without a session.
const anonymousToken = `+\`

// Persist writes the plan with a single wbeditentity call carrying every
// create, update and removal, pinned to the plan's base revision.
func (c *Client) Persist(ctx context.Context, plan *planner.Plan) (*reconciler.PersistResult, error) {
	return c.PersistWithSummary(ctx, plan, c.summary)
}

// PersistWithSummary is Persist with a per-call edit summary.
func (c *Client) PersistWithSummary(ctx context.Context, plan *planner.Plan, summary string) (*reconciler.PersistResult, error) {
	if !c.edits.Authenticated() {
		return nil, errors.NewAuthenticationError("oauth2", "an access token is required to edit", nil)
	}
	writes := plan.Writes()
	if len(writes) == 0 {
		return &reconciler.PersistResult{RecordID: plan.RecordID, Revision: plan.BaseRevision}, nil
	}

	data, err := c.encodeWrites(writes)
	if err != nil {
		return nil, errors.WrapResource("encode", "plan", plan.RecordID, err)
	}

	token, err := c.csrfToken(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("action", "wbeditentity")
	params.Set("id", plan.RecordID)
	params.Set("data", string(data))
	params.Set("baserevid", strconv.FormatInt(plan.BaseRevision, 10))
	if summary != "" {
		params.Set("summary", summary)
	}
	if c.bot {
		params.Set("bot", "1")
	}
	params.Set("token", token)

	var resp editResponse
	if err := c.post(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Success != 1 {
		return nil, errors.NewAPIError("wbeditentity", 200, "", "edit was not acknowledged")
	}

	logging.FromContext(ctx).Info().
		Str("record", plan.RecordID).
		Int64("revision", resp.Entity.LastRevID).
		Int("writes", len(writes)).
		Msg("Persisted plan")

	return &reconciler.PersistResult{
		RecordID: plan.RecordID,
		Revision: resp.Entity.LastRevID,
		Writes:   len(writes),
	}, nil
}

func (c *Client) encodeWrites(writes []planner.Write) ([]byte, error) {
	statements := make([]statementJSON, 0, len(writes))
	for _, w := range writes {
		switch w.Kind {
		case planner.WriteRemove:
			empty := ""
			statements = append(statements, statementJSON{ID: w.FactID, Remove: &empty})
		default:
			st, err := c.codec.encodeStatement(w.Fact)
			if err != nil {
				return nil, err
			}
			if w.Kind == planner.WriteUpdate {
				st.ID = w.FactID
			} else {
				st.ID = ""
			}
			statements = append(statements, st)
		}
	}
	return json.Marshal(map[string]any{"claims": statements})
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", "csrf")

	var resp tokenResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", err
	}
	token := resp.Query.Tokens.CSRFToken
	if token == "" || token == anonymousToken {
		return "", errors.NewAuthenticationError("csrf", "the API did not issue an edit token for this session", nil)
	}
	return token, nil
}
