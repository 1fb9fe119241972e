package rbac

// Access is the requirement a rule places on a request.
type Access int

const (
	// AuthenticatedAny admits any principal.
	AuthenticatedAny Access = iota
	// Public admits every request, with or without a principal.
	Public
	// AdminOnly admits principals holding the ADMIN authority.
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case AdminOnly:
		return "admin_only"
	default:
		return "authenticated"
	}
}

// Decision is the outcome of checking a request against the policy.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// Unauthenticated means a principal is required but absent (401).
	Unauthenticated
	// Forbidden means the principal lacks the required authority (403).
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "allow"
	}
}

// Rule maps a method and path pattern to an access requirement. An empty
// Method or "*" matches every method.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
}

// DefaultRules returns the route table of the catalog service. Anything not
// listed requires an authenticated principal.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "OPTIONS", Pattern: "/**", Access: Public},
		{Method: "POST", Pattern: "/users/register", Access: Public},
		{Method: "POST", Pattern: "/users/login", Access: Public},
		{Method: "POST", Pattern: "/api/users/login", Access: Public},
		{Method: "GET", Pattern: "/courses", Access: Public},
		{Method: "GET", Pattern: "/courses/*", Access: Public},
		{Method: "GET", Pattern: "/courses/category/*", Access: Public},
		{Method: "POST", Pattern: "/messages", Access: Public},
		{Method: "GET", Pattern: "/healthz", Access: Public},
		{Method: "GET", Pattern: "/course-images/**", Access: Public},
		{Method: "GET", Pattern: "/users", Access: AdminOnly},
		{Method: "GET", Pattern: "/messages", Access: AdminOnly},
		{Method: "PATCH", Pattern: "/courses/toggle_visibility/*", Access: AdminOnly},
		{Method: "GET", Pattern: "/metrics", Access: AdminOnly},
		{Method: "GET", Pattern: "/jobs/**", Access: AdminOnly},
	}
}
