// Package access implements the role gate that guards every API handler.
//
// Decisions are pure functions of the request's Identity and a declared
// requirement. The gate never reads the datastore and never mutates the
// Identity it is given.
package access

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the role claimed by an authenticated caller.
type Role string

// Known roles.
const (
	RoleAdmin    Role = "admin"
	RoleLecturer Role = "lecturer"
	RoleStudent  Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	}
	return false
}

// Identity is the authenticated caller attached to one request.
type Identity struct {
	ID   string
	Role Role
}

// Tier is a named minimum-privilege requirement.
type Tier string

// Known tiers.
const (
	TierAdmin    Tier = "admin"
	TierLecturer Tier = "lecturer"
	TierStudent  Tier = "student"
)

// tierMembers lists, per tier, every role that satisfies it. Adding a role
// grants it nothing until it is listed here.
var tierMembers = map[Tier]map[Role]struct{}{
	TierAdmin:    {RoleAdmin: {}},
	TierLecturer: {RoleLecturer: {}, RoleAdmin: {}},
	TierStudent:  {RoleStudent: {}},
}

// forbiddenMessages is built once; cases.Caser is not safe for concurrent use.
var forbiddenMessages = func() map[Tier]string {
	caser := cases.Title(language.English)
	out := make(map[Tier]string, len(tierMembers))
	for tier := range tierMembers {
		out[tier] = caser.String(string(tier)) + " privileges required"
	}
	return out
}()

// Accepts reports whether role satisfies t.
func (t Tier) Accepts(role Role) bool {
	members, ok := tierMembers[t]
	if !ok {
		return false
	}
	_, ok = members[role]
	return ok
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierMembers[t]
	return ok
}

// ForbiddenMessage is the 403 message for callers outside t.
func (t Tier) ForbiddenMessage() string {
	if msg, ok := forbiddenMessages[t]; ok {
		return msg
	}
	return "Insufficient privileges"
}

// Outcome is the result kind of a gate evaluation.
type Outcome int

const (
	Allow Outcome = iota
	DenyUnauthenticated
	DenyForbidden
)

// MessageAuthenticationRequired is the 401 message.
const MessageAuthenticationRequired = "Authentication required"

// Decision is the transient result of evaluating a request against a gate.
type Decision struct {
	Outcome Outcome
	Message string
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Status is the HTTP status of a denial, or 200 when allowed.
func (d Decision) Status() int {
	switch d.Outcome {
	case DenyUnauthenticated:
		return http.StatusUnauthorized
	case DenyForbidden:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// Authenticated allows any attached identity.
func Authenticated(id *Identity) Decision {
	if id == nil {
		return Decision{Outcome: DenyUnauthenticated, Message: MessageAuthenticationRequired}
	}
	return Decision{Outcome: Allow}
}

// Authorize allows identities whose role is a member of tier. The
// authentication check always runs first, so a missing identity is never
// reported as forbidden.
func Authorize(id *Identity, tier Tier) Decision {
	if d := Authenticated(id); !d.Allowed() {
		return d
	}
	if !tier.Accepts(id.Role) {
		return Decision{Outcome: DenyForbidden, Message: tier.ForbiddenMessage()}
	}
	return Decision{Outcome: Allow}
}

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAuthenticated
	kindTier
)

// Requirement is a declared access rule for a route. The zero value is
// Public.
type Requirement struct {
	kind requirementKind
	tier Tier
}

// Common requirements.
var (
	Public           = Requirement{kind: kindPublic}
	AnyAuthenticated = Requirement{kind: kindAuthenticated}
)

// RequireTier returns a requirement satisfied by members of t.
func RequireTier(t Tier) Requirement {
	return Requirement{kind: kindTier, tier: t}
}

// ParseRequirement parses "public", "authenticated" or a tier name.
func ParseRequirement(s string) (Requirement, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "public":
		return Public, nil
	case "authenticated":
		return AnyAuthenticated, nil
	default:
		if t := Tier(v); t.Valid() {
			return RequireTier(t), nil
		}
		return Requirement{}, fmt.Errorf("access: unknown requirement %q", s)
	}
}

// UnmarshalText lets configuration loaders decode requirements.
func (r *Requirement) UnmarshalText(text []byte) error {
	parsed, err := ParseRequirement(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// String returns the configuration form of r.
func (r Requirement) String() string {
	switch r.kind {
	case kindAuthenticated:
		return "authenticated"
	case kindTier:
		return string(r.tier)
	default:
		return "public"
	}
}

// Evaluate decides whether id satisfies r.
func (r Requirement) Evaluate(id *Identity) Decision {
	switch r.kind {
	case kindAuthenticated:
		return Authenticated(id)
	case kindTier:
		return Authorize(id, r.tier)
	default:
		return Decision{Outcome: Allow}
	}
}
