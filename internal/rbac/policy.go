package rbac

import (
	"fmt"
	"path"
	"strings"

	"github.com/odyssey-erp/course-catalog/internal/shared"
)

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentAny
	segmentTail
)

type segment struct {
	kind  segmentKind
	value string
}

type compiledRule struct {
	method   string
	segments []segment
	access   Access
}

// Policy is an ordered, immutable rule table. The first matching rule wins.
type Policy struct {
	rules    []compiledRule
	fallback Access
}

// NewPolicy compiles rules. Patterns are slash separated; "*" and "{name}"
// match one segment and "**" matches zero or more trailing segments.
func NewPolicy(rules []Rule) (*Policy, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		segments, err := compilePattern(rule.Pattern)
		if err != nil {
			return nil, err
		}
		method := strings.ToUpper(strings.TrimSpace(rule.Method))
		if method == "*" {
			method = ""
		}
		compiled = append(compiled, compiledRule{method: method, segments: segments, access: rule.Access})
	}
	return &Policy{rules: compiled, fallback: AuthenticatedAny}, nil
}

// MustNewPolicy is NewPolicy for static tables.
func MustNewPolicy(rules []Rule) *Policy {
	p, err := NewPolicy(rules)
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup returns the access requirement for a request. requestPath is the
// chi route pattern resolved by RoutePattern; "{param}" segments of it
// are matched by "*" rules.
func (p *Policy) Lookup(method, requestPath string) Access {
	segs := splitPath(requestPath)
	method = strings.ToUpper(method)
	for _, rule := range p.rules {
		if rule.method != "" && rule.method != method {
			continue
		}
		if matchSegments(rule.segments, segs) {
			return rule.access
		}
	}
	return p.fallback
}

// Decide checks the principal against the rule for method and path.
func (p *Policy) Decide(method, requestPath string, principal *shared.Principal) (Access, Decision) {
	access := p.Lookup(method, requestPath)
	switch access {
	case Public:
		return access, Allow
	case AdminOnly:
		if principal == nil {
			return access, Unauthenticated
		}
		if !principal.HasAuthority(shared.AuthorityAdmin) {
			return access, Forbidden
		}
		return access, Allow
	default:
		if principal == nil {
			return access, Unauthenticated
		}
		return access, Allow
	}
}

func compilePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("rbac: pattern %q must start with /", pattern)
	}
	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	for i, part := range parts {
		switch {
		case part == "**":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("rbac: pattern %q: ** must be the last segment", pattern)
			}
			segments = append(segments, segment{kind: segmentTail})
		case part == "*":
			segments = append(segments, segment{kind: segmentAny})
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") && len(part) > 2:
			segments = append(segments, segment{kind: segmentAny, value: part[1 : len(part)-1]})
		case strings.ContainsAny(part, "*{}"):
			return nil, fmt.Errorf("rbac: pattern %q: unsupported segment %q", pattern, part)
		default:
			segments = append(segments, segment{kind: segmentLiteral, value: part})
		}
	}
	return segments, nil
}

func splitPath(p string) []string {
	cleaned := strings.Trim(path.Clean("/"+p), "/")
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, "/")
}

func matchSegments(pattern []segment, segs []string) bool {
	for i, seg := range pattern {
		if seg.kind == segmentTail {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if seg.kind == segmentLiteral && seg.value != segs[i] {
			return false
		}
	}
	return len(pattern) == len(segs)
}
