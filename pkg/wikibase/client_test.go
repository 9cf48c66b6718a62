package wikibase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/planner"
	"github.com/agentstation/factmap/pkg/values"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []Option{
		WithAPIURL(srv.URL + "/w/api.php"),
		WithSPARQLURL(srv.URL + "/sparql"),
		WithEditsPerMinute(0),
		WithRetries(1, time.Millisecond, time.Millisecond),
	}
	c, err := NewClient(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(WithAPIURL("not a url"))
	assert.True(t, errors.IsValidationError(err))
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wbgetentities", r.URL.Query().Get("action"))
		assert.Equal(t, "Q42", r.URL.Query().Get("ids"))
		assert.Equal(t, "2", r.URL.Query().Get("formatversion"))
		_, _ = w.Write([]byte(douglasAdams))
	})

	r, err := c.Fetch(context.Background(), "Q42")
	require.NoError(t, err)
	assert.Equal(t, int64(2187663041), r.Revision)
	assert.Len(t, r.Facts, 5)
}

func TestFetch_Missing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entities":{"Q999999999":{"id":"Q999999999","missing":true}}}`))
	})

	_, err := c.Fetch(context.Background(), "Q999999999")
	assert.True(t, errors.IsNotFound(err))
}

func TestFetch_EmptyClaims(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entities":{"Q1":{"id":"Q1","lastrevid":5,"claims":[]}}}`))
	})

	r, err := c.Fetch(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), r.Revision)
	assert.Empty(t, r.Facts)
}

func TestFetch_InvalidID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Fetch(context.Background(), "Douglas Adams")
	assert.True(t, errors.IsValidationError(err))
}

func TestFetch_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"no-such-entity","info":"Could not find an entity with the ID \"Q0\"."}}`))
	})
	_, err := c.Fetch(context.Background(), "Q1")
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "no-such-entity", apiErr.Code)
	assert.True(t, errors.IsNotFound(err))
}

func testPlan() *planner.Plan {
	record := &claims.Record{ID: "Q42", Revision: 100, Facts: []claims.Fact{
		{ID: "Q42$a", Property: "P31", Value: values.Entity("Q5")},
		{ID: "Q42$old", Property: "P106", Value: values.Entity("Q36180")},
	}}
	bundle := claims.NewBundle(
		claims.NewFact("P31", values.Entity("Q5")).
			Reference(claims.NewReference().URL("https://example.org/adams").Build()).
			Build(),
		claims.NewFact("P569", values.NewTime("+1952-03-11T00:00:00Z", values.PrecisionDay, "")).Build(),
	)
	bundle.Remove(claims.RemoveFact("Q42$old"))
	return planner.New().Plan(record, bundle, true)
}

type editCapture struct {
	form url.Values
	data struct {
		Claims []statementJSON `json:"claims"`
	}
}

func TestPersist(t *testing.T) {
	var got editCapture
	var edits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "tokens", r.URL.Query().Get("meta"))
			_, _ = w.Write([]byte(`{"batchcomplete":true,"query":{"tokens":{"csrftoken":"abc+\\"}}}`))
		case http.MethodPost:
			edits.Add(1)
			assert.NoError(t, r.ParseForm())
			got.form = r.PostForm
			assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("data")), &got.data))
			_, _ = w.Write([]byte(`{"success":1,"entity":{"id":"Q42","lastrevid":101}}`))
		}
	}, WithToken("secret"), WithSummary("import dates"))

	res, err := c.Persist(context.Background(), testPlan())
	require.NoError(t, err)

	assert.Equal(t, int32(1), edits.Load())
	assert.Equal(t, int64(101), res.Revision)
	assert.Equal(t, 3, res.Writes)

	assert.Equal(t, "wbeditentity", got.form.Get("action"))
	assert.Equal(t, "Q42", got.form.Get("id"))
	assert.Equal(t, "100", got.form.Get("baserevid"))
	assert.Equal(t, "1", got.form.Get("bot"))
	assert.Equal(t, "5", got.form.Get("maxlag"))
	assert.Equal(t, "import dates", got.form.Get("summary"))
	assert.Equal(t, `abc+\`, got.form.Get("token"))

	byID := make(map[string]statementJSON)
	var created []statementJSON
	for _, st := range got.data.Claims {
		if st.ID == "" {
			created = append(created, st)
			continue
		}
		byID[st.ID] = st
	}
	require.Len(t, created, 1)
	assert.Equal(t, "P569", created[0].MainSnak.Property)

	updated, ok := byID["Q42$a"]
	require.True(t, ok)
	require.Len(t, updated.References, 1)
	assert.Contains(t, updated.References[0].Snaks, "P854")

	removed, ok := byID["Q42$old"]
	require.True(t, ok)
	require.NotNil(t, removed.Remove)
	assert.Nil(t, removed.MainSnak)
}

func TestPersist_RequiresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Persist(context.Background(), testPlan())
	assert.ErrorIs(t, err, errors.ErrTokenRequired)
}

func TestPersist_AnonymousCSRFToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("edit must not be attempted")
		}
		_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"+\\"}}}`))
	}, WithToken("expired"))

	_, err := c.Persist(context.Background(), testPlan())
	var authErr *errors.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "csrf", authErr.Method)
}

func TestPersist_EditConflict(t *testing.T) {
	var edits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"abc+\\"}}}`))
			return
		}
		edits.Add(1)
		_, _ = w.Write([]byte(`{"error":{"code":"editconflict","info":"Edit conflict."}}`))
	}, WithToken("secret"))

	_, err := c.Persist(context.Background(), testPlan())
	assert.True(t, errors.IsEditConflict(err))
	assert.Equal(t, int32(1), edits.Load())
}

func TestPersist_ServerErrorIsNotResent(t *testing.T) {
	var edits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"abc+\\"}}}`))
			return
		}
		if edits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":1,"entity":{"id":"Q42","lastrevid":101}}`))
	}, WithToken("secret"))

	_, err := c.Persist(context.Background(), testPlan())
	assert.ErrorIs(t, err, errors.ErrStoreUnavailable)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, int32(1), edits.Load())
}

func TestPersist_MaxlagIsResent(t *testing.T) {
	var edits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"query":{"tokens":{"csrftoken":"abc+\\"}}}`))
			return
		}
		if edits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			_, _ = w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for replicas"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":1,"entity":{"id":"Q42","lastrevid":101}}`))
	}, WithToken("secret"))

	res, err := c.Persist(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Equal(t, int64(101), res.Revision)
	assert.Equal(t, int32(2), edits.Load())
}

func TestPersist_NoWrites(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}, WithToken("secret"))

	record := &claims.Record{ID: "Q42", Revision: 7, Facts: []claims.Fact{
		{ID: "Q42$a", Property: "P31", Value: values.Entity("Q5")},
	}}
	plan := planner.New().Plan(record, claims.NewBundle(claims.NewFact("P31", values.Entity("Q5")).Build()), false)

	res, err := c.Persist(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Revision)
	assert.Zero(t, res.Writes)
}
