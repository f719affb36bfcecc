// Package services holds the storefront business rules. Controllers decode
// requests and hand them here; everything below talks to the store interfaces.
package services

import (
	"errors"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"
)

// Actor is the verified identity behind a request.
type Actor struct {
	UID   string
	Email string
	Admin bool
}

// CanAccess reports whether the actor may read or change data owned by userID.
func (a Actor) CanAccess(userID string) bool {
	return a.Admin || (a.UID != "" && a.UID == userID)
}

func authorize(actor Actor, userID string) error {
	if !actor.CanAccess(userID) {
		return utils.Forbidden("not authorized")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminGate decides who is an administrator: anyone whose account carries the
// admin role, or whose verified email is on the allow-list.
type AdminGate struct {
	emails map[string]struct{}
}

func NewAdminGate(emails []string) *AdminGate {
	gate := &AdminGate{emails: make(map[string]struct{}, len(emails))}
	for _, email := range emails {
		if email = NormalizeEmail(email); email != "" {
			gate.emails[email] = struct{}{}
		}
	}
	return gate
}

// IsAdmin trusts the allow-list only for an address whose owner has
// confirmed it; anyone can register an unverified account for any email.
func (g *AdminGate) IsAdmin(email, role string, verified bool) bool {
	if role == models.RoleAdmin {
		return true
	}
	if !verified {
		return false
	}
	_, ok := g.emails[NormalizeEmail(email)]
	return ok
}

// Actor builds the request identity from verified token claims.
func (g *AdminGate) Actor(claims *utils.Claims) Actor {
	return Actor{
		UID:   claims.UID,
		Email: claims.Email,
		Admin: g.IsAdmin(claims.Email, claims.Role, claims.Verified),
	}
}

// storeError turns a store failure into the error the client sees.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.NotFound("%s not found", what)
	case errors.Is(err, store.ErrDuplicate):
		return utils.Conflict(what + " already exists")
	default:
		return utils.Internal(err, "internal server error")
	}
}
