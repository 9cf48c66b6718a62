package policy

import (
	"context"
	"regexp"
	"time"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/values"
)

var archivePattern = regexp.MustCompile(`^(?:https?://)?web\.archive\.org/web/(\d{14})[a-z_]*/(.+)$`)

// Dearchiver rewrites Wayback Machine URL values to the archived URL and
// records the snapshot as archive URL and archive date qualifiers.
type Dearchiver struct {
	// Deprecate marks the rewritten statement deprecated with link rot as
	// the reason.
	Deprecate bool
}

// Register installs the hook.
func (d Dearchiver) Register(r *hooks.Registry) {
	r.OnBeforeMatch("dearchive", d.beforeMatch)
}

// Rewrite returns the rewritten fact and true when its value is an archive
// URL.
func (d Dearchiver) Rewrite(f claims.DesiredFact) (claims.DesiredFact, bool) {
	v := f.Value()
	if v.Kind() != values.KindURL {
		return f, false
	}
	m := archivePattern.FindStringSubmatch(v.Text())
	if m == nil {
		return f, false
	}
	snapshot, err := time.Parse("20060102150405", m[1])
	if err != nil {
		return f, false
	}

	out := f.WithValue(values.URL(m[2])).
		WithQualifier(claims.NewQualifier(constants.PropertyArchiveURL, v, claims.SkipQualifierIfConflicting())).
		WithQualifier(claims.NewQualifier(constants.PropertyArchiveDate,
			values.Date(snapshot, values.PrecisionDay), claims.SkipQualifierIfConflicting()))
	if d.Deprecate {
		out = out.WithRank(claims.RankDeprecated).
			WithQualifier(claims.NewQualifier(constants.PropertyDeprecatedReason,
				values.Entity(constants.ItemLinkRot), claims.SkipQualifierIfConflicting()))
	}
	return out, true
}

func (d Dearchiver) beforeMatch(_ context.Context, c *hooks.FactContext) hooks.Signal {
	rewritten, ok := d.Rewrite(c.Fact)
	if !ok {
		return hooks.Continue
	}
	c.Fact = rewritten
	return hooks.Mutated
}
