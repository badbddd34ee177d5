package auth

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Decision is the outcome of a role check.
type Decision struct {
	Allowed bool
	// ObservedRole is the normalized role that was compared, or "" if the
	// caller carried none.
	ObservedRole string
}

// Authorize checks the caller's role against the allowed set. Only the first
// gateway-asserted role is considered; a token principal is judged by the
// role on its record.
func Authorize(p Principal, allowed ...string) Decision {
	observed := ObservedRole(p)
	if observed == "" {
		return Decision{}
	}

	for _, role := range allowed {
		if normalizeRole(role) == observed {
			return Decision{Allowed: true, ObservedRole: observed}
		}
	}
	return Decision{ObservedRole: observed}
}

// ObservedRole returns the normalized role used for authorization.
func ObservedRole(p Principal) string {
	switch p := p.(type) {
	case TokenPrincipal:
		if p.User == nil {
			return ""
		}
		return normalizeRole(string(p.User.Role))
	case GatewayPrincipal:
		if len(p.Roles) == 0 {
			return ""
		}
		return normalizeRole(p.Roles[0])
	default:
		return ""
	}
}

func normalizeRole(role string) string {
	return cases.Upper(language.Und).String(role)
}
