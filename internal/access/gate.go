package access

import (
	"context"
	"errors"

	"github.com/angelmondragon/bizledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	PathLogin         = "/auth/login"
	PathBusinessSetup = "/auth/businessSetup"
	PathForbidden     = "/forbidden"
)

// ErrMultipleMemberships means the store returned more than one row for a
// (user, business) pair, which the unique constraint should make impossible.
var ErrMultipleMemberships = errors.New("multiple memberships for user and business")

// Membership is the caller's standing in one business.
type Membership struct {
	UserID      uuid.UUID
	BusinessID  uuid.UUID
	Role        enums.MemberRole
	Permissions []string
	IsActive    bool
}

// Session identifies an authenticated caller. A nil *Session means unauthenticated.
type Session struct {
	UserID   uuid.UUID
	AccessID string
}

// MembershipLookup finds the membership for a user in a business. found=false with a
// nil error means no row exists; any error is an infrastructure failure.
type MembershipLookup interface {
	FindMembership(ctx context.Context, userID, businessID uuid.UUID) (m Membership, found bool, err error)
}

// Reason names why a request was redirected.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonLogin         Reason = "login"
	ReasonBusinessSetup Reason = "business_setup"
	ReasonForbidden     Reason = "forbidden"
)

var redirectPaths = map[Reason]string{
	ReasonLogin:         PathLogin,
	ReasonBusinessSetup: PathBusinessSetup,
	ReasonForbidden:     PathForbidden,
}

// Decision is either Authorized, carrying the user and membership, or a redirect.
// The zero value is neither and authorizes nothing.
type Decision struct {
	authorized bool
	Reason     Reason
	UserID     uuid.UUID
	Membership Membership
}

func Authorized(userID uuid.UUID, m Membership) Decision {
	return Decision{authorized: true, UserID: userID, Membership: m}
}

func Redirect(reason Reason) Decision {
	return Decision{Reason: reason}
}

func (d Decision) Authorized() bool {
	return d.authorized
}

// RedirectTo returns the target path, or "" when authorized.
func (d Decision) RedirectTo() string {
	return redirectPaths[d.Reason]
}

// Outcome is a stable label for logs and metrics.
func (d Decision) Outcome() string {
	switch {
	case d.authorized:
		return "authorized"
	case d.Reason == ReasonNone:
		return "error"
	}
	return string(d.Reason)
}

// Gate decides whether a session may act on a business. It keeps no state between
// calls, so every request sees the current membership.
type Gate struct {
	lookup    MembershipLookup
	hierarchy Hierarchy
}

func NewGate(lookup MembershipLookup, hierarchy Hierarchy) (*Gate, error) {
	if lookup == nil {
		return nil, errors.New("membership lookup required")
	}
	return &Gate{lookup: lookup, hierarchy: hierarchy}, nil
}

func (g *Gate) Hierarchy() Hierarchy {
	return g.hierarchy
}

// Check evaluates session against businessID. An empty required role only asks for
// an active membership. Lookup failures come back as DEPENDENCY_ERROR, never as a
// redirect.
func (g *Gate) Check(ctx context.Context, session *Session, businessID uuid.UUID, required enums.MemberRole) (Decision, error) {
	if session == nil || session.UserID == uuid.Nil {
		return Redirect(ReasonLogin), nil
	}

	membership, found, err := g.lookup.FindMembership(ctx, session.UserID, businessID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "membership lookup failed")
	}
	if !found || !membership.IsActive {
		return Redirect(ReasonBusinessSetup), nil
	}

	if required != "" && !g.hierarchy.HasAtLeastRole(membership.Role, required) {
		return Redirect(ReasonForbidden), nil
	}
	return Authorized(session.UserID, membership), nil
}
