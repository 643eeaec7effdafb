package scope

import (
	"strings"

	"github.com/veritrade/exportcert/compose"
	"github.com/veritrade/exportcert/model"
)

// FromRoles builds the composer's scope predicate from the comma-separated
// roles claim the bearer server issues. Unscoped questions are visible to
// everyone; scoped ones only to holders of the named role.
func FromRoles(rolesClaim string) compose.ScopePredicate {
	held := make(map[string]bool)
	for _, role := range strings.Split(rolesClaim, ",") {
		role = strings.ToUpper(strings.TrimSpace(role))
		if role != "" {
			held[role] = true
		}
	}

	return func(q model.ComposedQuestion) bool {
		if q.Scope == "" {
			return true
		}
		return held[strings.ToUpper(q.Scope)]
	}
}
