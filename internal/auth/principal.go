package auth

import "usersvc/internal/model"

// Source records which trust path produced a Principal.
type Source int

const (
	// SourceGateway means an upstream gateway asserted the identity in headers.
	SourceGateway Source = iota + 1
	// SourceBearer means a verified bearer token identified the caller.
	SourceBearer
)

func (s Source) String() string {
	switch s {
	case SourceGateway:
		return "GatewayAsserted"
	case SourceBearer:
		return "BearerToken"
	default:
		return "Unknown"
	}
}

// Principal is the request-scoped caller identity. It is either a
// GatewayPrincipal or a TokenPrincipal; no other implementations exist.
type Principal interface {
	Subject() string
	AssertedRoles() []string
	Source() Source
	principal()
}

// GatewayPrincipal is trusted as asserted by the upstream gateway.
type GatewayPrincipal struct {
	ID    string
	Roles []string
}

func (p GatewayPrincipal) Subject() string         { return p.ID }
func (p GatewayPrincipal) AssertedRoles() []string { return p.Roles }
func (p GatewayPrincipal) Source() Source          { return SourceGateway }
func (GatewayPrincipal) principal()                {}

// TokenPrincipal carries the record loaded for a verified bearer token.
type TokenPrincipal struct {
	User *model.User
}

func (p TokenPrincipal) Subject() string         { return p.User.ID.String() }
func (p TokenPrincipal) AssertedRoles() []string { return []string{string(p.User.Role)} }
func (p TokenPrincipal) Source() Source          { return SourceBearer }
func (TokenPrincipal) principal()                {}
