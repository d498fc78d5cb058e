// Package authz decides whether an organization role grants a permission.
// Decisions are made by a casbin RBAC enforcer in which owner inherits member
// and member inherits viewer.
package authz

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// Permission names checked before handlers run.
const (
	RequiresViewer = "requires_viewer"
	RequiresMember = "requires_member"
	CanModifyData  = "can_modify_data"
	RequiresOwner  = "requires_owner"
)

const modelText = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

var defaultPolicies = [][]string{
	{models.RoleViewer, RequiresViewer},
	{models.RoleMember, RequiresMember},
	{models.RoleMember, CanModifyData},
	{models.RoleOwner, RequiresOwner},
}

var defaultRoles = [][]string{
	{models.RoleOwner, models.RoleMember},
	{models.RoleMember, models.RoleViewer},
}

// Enforcer answers role/permission questions.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// New builds an Enforcer. With an empty policyPath the built-in role policy is
// loaded; otherwise policies are read from the CSV file at policyPath.
func New(policyPath string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}

	if policyPath != "" {
		enf, err := casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
		if err != nil {
			return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
		}
		if err := enf.LoadPolicy(); err != nil {
			return nil, fmt.Errorf("authz: failed to load policies: %w", err)
		}
		return &Enforcer{enforcer: enf}, nil
	}

	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if _, err := enf.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("authz: failed to add policies: %w", err)
	}
	if _, err := enf.AddGroupingPolicies(defaultRoles); err != nil {
		return nil, fmt.Errorf("authz: failed to add roles: %w", err)
	}

	return &Enforcer{enforcer: enf}, nil
}

// Allowed reports whether role grants permission. Unknown roles and
// permissions are denied.
func (e *Enforcer) Allowed(role, permission string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(role, permission)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return ok, nil
}
