package core

// Identity is the resolved principal for a single request.
//
// An Identity is immutable after construction. Roles are resolved once at
// authentication time, which keeps authorization checks free of shared
// mutable state.
//
// Invariant: when Authenticated is false, Subject is empty and Roles is nil.
// There is no partially-authenticated state.
type Identity struct {
	// Subject is the stable identifier carried by the token, typically an
	// account email or id.
	Subject string

	// Roles are the tagged role names granted to the subject, e.g.
	// "ROLE_USER". Tagging happens at the middleware boundary, not inside
	// the token validator.
	Roles []string

	// Authenticated reports whether a credential was presented and
	// validated for this request.
	Authenticated bool
}

// Anonymous returns the unauthenticated Identity. It is the default value a
// request carries until the authentication middleware resolves a credential.
func Anonymous() Identity {
	return Identity{}
}

// NewIdentity builds an authenticated Identity for subject with the given
// roles. The role slice is copied so callers cannot mutate the Identity after
// construction. An empty subject yields the anonymous Identity, preserving
// the no-partial-authentication invariant.
func NewIdentity(subject string, roles []string) Identity {
	if subject == "" {
		return Anonymous()
	}

	var copied []string
	if len(roles) > 0 {
		copied = make([]string, len(roles))
		copy(copied, roles)
	}

	return Identity{
		Subject:       subject,
		Roles:         copied,
		Authenticated: true,
	}
}

// HasRole reports whether the identity carries the given tagged role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity carries at least one of the given
// tagged roles.
func (i Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}
