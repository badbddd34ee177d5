package auth

// Reason identifies why a request could not be authenticated.
type Reason int

const (
	ReasonNoCredentials Reason = iota + 1
	ReasonTokenExpired
	ReasonTokenInvalid
	ReasonIdentityNotFound
	ReasonAccountInactive
)

func (r Reason) String() string {
	switch r {
	case ReasonNoCredentials:
		return "no_credentials"
	case ReasonTokenExpired:
		return "token_expired"
	case ReasonTokenInvalid:
		return "token_invalid"
	case ReasonIdentityNotFound:
		return "identity_not_found"
	case ReasonAccountInactive:
		return "account_inactive"
	default:
		return "unknown"
	}
}

// Rejection is returned by the resolver when the caller is not authenticated.
type Rejection struct {
	Reason  Reason
	message string
}

func (r *Rejection) Error() string {
	return r.message
}

var (
	// ErrNoCredentials is returned when neither a gateway identity nor a bearer token is present.
	ErrNoCredentials = &Rejection{Reason: ReasonNoCredentials, message: "no credentials supplied"}
	// ErrTokenExpired is returned when the bearer token's expiry has passed.
	ErrTokenExpired = &Rejection{Reason: ReasonTokenExpired, message: "token expired"}
	// ErrTokenInvalid is returned for malformed tokens or bad signatures.
	ErrTokenInvalid = &Rejection{Reason: ReasonTokenInvalid, message: "invalid token"}
	// ErrIdentityNotFound is returned when the token subject has no record.
	ErrIdentityNotFound = &Rejection{Reason: ReasonIdentityNotFound, message: "identity not found"}
	// ErrAccountInactive is returned when the token subject's record is deactivated.
	ErrAccountInactive = &Rejection{Reason: ReasonAccountInactive, message: "account inactive"}
)
