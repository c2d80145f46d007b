package session

import "slices"

// Session is the locally cached view of who is signed in. It is replaced
// wholesale on every login; fields are never merged.
type Session struct {
	UserID      string   `json:"id"`
	DisplayName string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	AvatarRef   string   `json:"avatar,omitempty"`
}

// HasRole reports whether the session carries role.
func (s *Session) HasRole(role string) bool {
	return s != nil && slices.Contains(s.Roles, role)
}

// Clone returns a deep copy so callers cannot mutate the cached session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Roles = slices.Clone(s.Roles)
	return &c
}

// Credentials are the email/password pair submitted on login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// State is the authentication state of a browsing context.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Keys names the two durable storage entries owned by the store.
type Keys struct {
	Credential string
	Session    string
}

// DefaultKeys are the storage keys used unless WithKeys overrides them.
var DefaultKeys = Keys{
	Credential: "storefront.token",
	Session:    "storefront.user",
}

// List returns both keys, credential first.
func (k Keys) List() []string {
	return []string{k.Credential, k.Session}
}
