// Package authz decides which role may perform which action on which resource.
// The decision table is a casbin RBAC policy embedded in the binary.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/yamdb/yamdb-server/internal/domain"
	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Resource is a kind of object a request acts on.
type Resource string

// Resources.
const (
	ResourceCategory Resource = "category"
	ResourceGenre    Resource = "genre"
	ResourceTitle    Resource = "title"
	ResourceReview   Resource = "review"
	ResourceComment  Resource = "comment"
	ResourceUser     Resource = "user"
	ResourceProfile  Resource = "profile"
)

// Action is what a request does to a resource.
type Action string

// Actions.
const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// RoleAnonymous is the role of unauthenticated callers.
const RoleAnonymous = "anonymous"

// Subject is the caller a decision is made for.
type Subject struct {
	UserID int64
	Role   string
}

// Anonymous returns the subject for unauthenticated requests.
func Anonymous() Subject {
	return Subject{Role: RoleAnonymous}
}

// SubjectOf returns the subject for an authenticated user, or Anonymous for nil.
func SubjectOf(u *domain.User) Subject {
	if u == nil {
		return Anonymous()
	}
	return Subject{UserID: u.ID, Role: u.EffectiveRole()}
}

// IsAnonymous reports whether the subject is unauthenticated.
func (s Subject) IsAnonymous() bool {
	return s.UserID == 0
}

// Enforcer evaluates the embedded policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses policy CSV lines of the form "p, sub, obj, act" and "g, child, parent".
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Decide reports whether sub may perform act on res. ownerID is the author of the
// target object, or 0 when the object has no owner. Owners are granted the
// "<action>:own" permission, everyone else needs "<action>:any" or the bare action.
func (e *Enforcer) Decide(sub Subject, res Resource, act Action, ownerID int64) (bool, error) {
	role := sub.Role
	if role == "" {
		role = RoleAnonymous
	}

	candidates := []string{string(act), string(act) + ":any"}
	if ownerID != 0 && !sub.IsAnonymous() && sub.UserID == ownerID {
		candidates = append(candidates, string(act)+":own")
	}

	for _, candidate := range candidates {
		ok, err := e.enforcer.Enforce(role, string(res), candidate)
		if err != nil {
			return false, fmt.Errorf("enforcement failed: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Authorize is Decide returning a domain error: 401 for anonymous callers and
// 403 for authenticated callers without the permission.
func (e *Enforcer) Authorize(sub Subject, res Resource, act Action, ownerID int64) error {
	ok, err := e.Decide(sub, res, act, ownerID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "authorization failed")
	}
	if ok {
		return nil
	}
	if sub.IsAnonymous() {
		return domainerrors.ErrUnauthorized
	}
	return domainerrors.ErrForbidden
}
