package values

import (
	"regexp"
	"strings"

	"github.com/agentstation/factmap/pkg/errors"
)

var entityIDPattern = regexp.MustCompile(`^(?:[QPM][1-9]\d*|L[1-9]\d*(?:-[FS][1-9]\d*)?)$`)

// IsEntityID reports whether s is a bare entity ID such as Q42, P31 or L1-S2.
func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(s)
}

// EntityIDFromURL extracts the entity ID from a concept URI such as
// http://www.wikidata.org/entity/Q42.
func EntityIDFromURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if strings.HasSuffix(url, "/") {
		return "", errors.NewValidationError("entity_url", url, "trailing slash, no entity ID")
	}
	id := url[strings.LastIndex(url, "/")+1:]
	if id == "" {
		return "", errors.NewValidationError("entity_url", url, "empty entity ID")
	}
	if !IsEntityID(id) {
		return "", errors.NewValidationError("entity_url", url, "invalid entity ID "+id)
	}
	return id, nil
}

// normalizeEntityID reduces URL forms to the bare ID and leaves anything
// else untouched for Validate to judge.
func normalizeEntityID(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		return s
	}
	if id, err := EntityIDFromURL(s); err == nil {
		return id
	}
	return s
}
