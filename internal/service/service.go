// Package service holds the business rules of the API: permission checks,
// validation that needs the database, and orchestration of the store, the
// search index and the mailer. Handlers translate HTTP to these calls.
//
// Every mutating method takes the acting user first. A nil actor is an
// anonymous caller.
package service

import (
	"errors"

	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
)

// authorize checks actor against the policy. ownerID is the author of the target
// object, or 0 for objects without an owner.
func authorize(enforcer *authz.Enforcer, actor *domain.User, res authz.Resource, act authz.Action, ownerID int64) error {
	return enforcer.Authorize(authz.SubjectOf(actor), res, act, ownerID)
}

// notFound converts store.ErrNotFound into a domain not found error with msg.
// Other errors pass through.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg)
	}
	return err
}

// uniqueViolation reports whether err is a UNIQUE violation, and on which column.
func uniqueViolation(err error) (string, bool) {
	var storeErr *store.Error
	if errors.As(err, &storeErr) && errors.Is(storeErr, store.ErrAlreadyExists) {
		return storeErr.Field, true
	}
	return "", false
}
