package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
)

const (
	// HeaderUserID carries the gateway-asserted user identifier.
	HeaderUserID = "X-User-Id"
	// HeaderUserRoles carries the gateway-asserted comma separated roles.
	HeaderUserRoles = "X-User-Roles"

	bearerPrefix = "Bearer "
)

// RequestMetadata is the subset of a request the resolver looks at.
type RequestMetadata struct {
	UserID        string
	UserRoles     string
	Authorization string
}

// MetadataFromHeader extracts resolver input from request headers.
func MetadataFromHeader(h http.Header) RequestMetadata {
	return RequestMetadata{
		UserID:        h.Get(HeaderUserID),
		UserRoles:     h.Get(HeaderUserRoles),
		Authorization: h.Get("Authorization"),
	}
}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	ValidateToken(token string) (*Claims, error)
}

// UserFinder loads the record a token refers to.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Resolver decides who is calling.
type Resolver struct {
	verifier TokenVerifier
	users    UserFinder
}

// NewResolver builds a Resolver.
func NewResolver(verifier TokenVerifier, users UserFinder) *Resolver {
	return &Resolver{verifier: verifier, users: users}
}

// Resolve returns the caller's Principal. Gateway headers win over a bearer
// token and the two are never combined. Authentication failures are returned
// as *Rejection; any other error is a lookup failure.
func (r *Resolver) Resolve(ctx context.Context, md RequestMetadata) (Principal, error) {
	if md.UserID != "" {
		return GatewayPrincipal{ID: md.UserID, Roles: ParseRoles(md.UserRoles)}, nil
	}

	if strings.HasPrefix(md.Authorization, bearerPrefix) {
		return r.resolveBearer(ctx, strings.TrimPrefix(md.Authorization, bearerPrefix))
	}

	return nil, ErrNoCredentials
}

func (r *Resolver) resolveBearer(ctx context.Context, token string) (Principal, error) {
	claims, err := r.verifier.ValidateToken(token)
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			return nil, rejection
		}
		return nil, ErrTokenInvalid
	}

	id, err := uuid.Parse(claims.SubjectID())
	if err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find token subject: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return TokenPrincipal{User: user}, nil
}

// ParseRoles splits a comma separated roles header, trimming entries and
// dropping empty ones. Order is preserved.
func ParseRoles(header string) []string {
	roles := []string{}
	for _, role := range strings.Split(header, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
