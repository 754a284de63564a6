// Package policy is the single authorization decision point. Handlers build
// an explicit Actor from the authenticated request and ask Decide before
// every read or mutation; no handler checks roles ad hoc.
package policy

import (
	"context"
	"errors"

	"github.com/zacktam12/Restaurant-management-sub000/models"
)

// ErrDenied is the generic authorization failure. It is terminal for the
// request and deliberately carries no detail about why access was refused.
var ErrDenied = errors.New("not permitted")

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role models.UserRole
}

// Action names an operation a caller wants to perform.
type Action string

const (
	ActionRestaurantCreate  Action = "restaurant:create"
	ActionRestaurantUpdate  Action = "restaurant:update"
	ActionRestaurantDelete  Action = "restaurant:delete"
	ActionRestaurantList    Action = "restaurant:list"
	ActionMenuWrite         Action = "menu:write"
	ActionReservationRead   Action = "reservation:read"
	ActionReservationWrite  Action = "reservation:write"
	ActionReservationDelete Action = "reservation:delete"
	ActionReservationList   Action = "reservation:list"
	ActionBookingRead       Action = "booking:read"
	ActionBookingWrite      Action = "booking:write"
	ActionUserManage        Action = "user:manage"
)

// Target identifies the resource an action touches. RestaurantID links
// restaurant-owned resources (restaurants, menu items, reservations);
// CustomerID links customer-owned resources (own reservations, bookings,
// profile). Either may be nil when not applicable.
type Target struct {
	RestaurantID *uint
	CustomerID   *uint
}

// Effect is the outcome of a policy decision.
type Effect int

const (
	Deny Effect = iota
	Allow
	// Scoped means the action is permitted but restricted to the
	// restaurant IDs carried by the decision (manager list actions).
	Scoped
)

// Decision is the result of Decide. For Scoped decisions RestaurantIDs
// holds the filter the caller must apply; it may be empty.
type Decision struct {
	Effect        Effect
	RestaurantIDs []uint
}

// Allowed reports whether the action may proceed at all.
func (d Decision) Allowed() bool {
	return d.Effect == Allow || d.Effect == Scoped
}

var denied = Decision{Effect: Deny}

// Policy decides what a given actor may do. Manager decisions are grounded
// in the ScopeResolver's fresh view of restaurant ownership.
type Policy struct {
	scopes *ScopeResolver
}

func New(scopes *ScopeResolver) *Policy {
	return &Policy{scopes: scopes}
}

// Decide evaluates (actor, action, target). The default is Deny: unknown
// roles, missing ownership linkage and resolver failures all fail closed.
func (p *Policy) Decide(ctx context.Context, actor Actor, action Action, target Target) Decision {
	switch actor.Role {
	case models.RoleAdmin:
		return Decision{Effect: Allow}
	case models.RoleManager:
		return p.decideManager(ctx, actor, action, target)
	case models.RoleCustomer:
		return decideCustomer(actor, action, target)
	}
	return denied
}

func (p *Policy) decideManager(ctx context.Context, actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionRestaurantCreate, ActionRestaurantDelete, ActionUserManage:
		// Only admins create or delete restaurants and manage accounts.
		return denied
	case ActionRestaurantList, ActionReservationList:
		ids, err := p.scopes.RestaurantsOwnedBy(ctx, actor.ID)
		if err != nil {
			return denied
		}
		return Decision{Effect: Scoped, RestaurantIDs: ids}
	case ActionRestaurantUpdate, ActionMenuWrite,
		ActionReservationRead, ActionReservationWrite, ActionReservationDelete:
		if target.RestaurantID == nil {
			return denied
		}
		owns, err := p.scopes.IsOwner(ctx, actor.ID, *target.RestaurantID)
		if err != nil || !owns {
			return denied
		}
		return Decision{Effect: Allow}
	case ActionBookingRead, ActionBookingWrite:
		// Bookings belong to customers, not restaurants; managers have no
		// standing on them.
		return denied
	}
	return denied
}

func decideCustomer(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionReservationRead, ActionReservationWrite,
		ActionBookingRead, ActionBookingWrite:
		if target.CustomerID != nil && *target.CustomerID == actor.ID {
			return Decision{Effect: Allow}
		}
		return denied
	}
	return denied
}
