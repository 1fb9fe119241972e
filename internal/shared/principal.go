package shared

// Authority names granted to principals.
const (
	AuthorityAdmin = "ADMIN"
	AuthorityUser  = "USER"
)

// Principal is the authenticated actor of a single request. It is built by the
// authentication gate and never shared between requests.
type Principal struct {
	Username    string
	Authorities []string
	Active      bool
}

// NewPrincipal derives the authority set from the admin flag.
func NewPrincipal(username string, isAdmin, active bool) *Principal {
	authority := AuthorityUser
	if isAdmin {
		authority = AuthorityAdmin
	}
	return &Principal{
		Username:    username,
		Authorities: []string{authority},
		Active:      active,
	}
}

// HasAuthority reports whether the principal was granted the authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasAuthority(AuthorityAdmin).
func (p *Principal) IsAdmin() bool {
	return p.HasAuthority(AuthorityAdmin)
}
