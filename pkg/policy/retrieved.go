package policy

import (
	"context"
	"time"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/values"
)

// RetrievedDate stamps a retrieved (P813) date on references that have
// none. The date is volatile, so it does not affect matching.
type RetrievedDate struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Register installs the hook.
func (rd RetrievedDate) Register(r *hooks.Registry) {
	r.OnBeforeReferenceAdd("retrieved_date", rd.beforeReferenceAdd)
}

func (rd RetrievedDate) beforeReferenceAdd(_ context.Context, c *hooks.ReferenceContext) hooks.Signal {
	if c.Reference.HasProperty(constants.PropertyRetrieved) {
		return hooks.Continue
	}
	now := time.Now
	if rd.Now != nil {
		now = rd.Now
	}
	c.Reference = c.Reference.WithVolatile(
		claims.NewSnak(constants.PropertyRetrieved, values.Date(now().UTC(), values.PrecisionDay)))
	return hooks.Mutated
}
