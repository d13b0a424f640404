// Package authz decides whether a role may perform an action on a resource.
// Handlers and middleware ask the policy instead of comparing role names.
package authz

import "github.com/iliyamo/event-reservation/internal/model"

type Resource string

const (
	ResourceUser        Resource = "user"
	ResourceEvent       Resource = "event"
	ResourceReservation Resource = "reservation"
	ResourceReview      Resource = "review"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	// ActionManageAny lets a caller act on records owned by someone else.
	ActionManageAny Action = "manage_any"
	// ActionAssignRole lets a caller change a user's role.
	ActionAssignRole Action = "assign_role"
)

// Policy is the authorization predicate.
type Policy interface {
	Allows(role model.Role, res Resource, act Action) bool
}

type grant struct {
	res Resource
	act Action
}

// Table is a Policy backed by a per-role set of grants. A role inherits
// every grant of the role it extends.
type Table struct {
	grants map[model.Role]map[grant]bool
}

// Allows implements Policy. Unknown roles are denied everything.
func (t *Table) Allows(role model.Role, res Resource, act Action) bool {
	return t.grants[role][grant{res, act}]
}

// DefaultPolicy returns the built-in role table.
//
//	CLIENT       reads events and reviews, creates reservations and reviews,
//	             manages its own user record and reservations
//	ADMIN        CLIENT + event writes, user listing, acting on any record
//	SUPER_ADMIN  ADMIN + role assignment
func DefaultPolicy() *Table {
	client := []grant{
		{ResourceEvent, ActionRead},
		{ResourceEvent, ActionList},
		{ResourceReview, ActionRead},
		{ResourceReview, ActionList},
		{ResourceReview, ActionCreate},
		{ResourceReview, ActionDelete},
		{ResourceReservation, ActionCreate},
		{ResourceReservation, ActionRead},
		{ResourceReservation, ActionList},
		{ResourceReservation, ActionUpdate},
		{ResourceUser, ActionRead},
		{ResourceUser, ActionUpdate},
		{ResourceUser, ActionDelete},
	}
	admin := append(append([]grant{}, client...),
		grant{ResourceEvent, ActionCreate},
		grant{ResourceEvent, ActionUpdate},
		grant{ResourceEvent, ActionDelete},
		grant{ResourceUser, ActionList},
		grant{ResourceUser, ActionManageAny},
		grant{ResourceReservation, ActionManageAny},
		grant{ResourceReview, ActionManageAny},
	)
	super := append(append([]grant{}, admin...),
		grant{ResourceUser, ActionAssignRole},
	)

	return &Table{grants: map[model.Role]map[grant]bool{
		model.RoleClient:     toSet(client),
		model.RoleAdmin:      toSet(admin),
		model.RoleSuperAdmin: toSet(super),
	}}
}

func toSet(gs []grant) map[grant]bool {
	m := make(map[grant]bool, len(gs))
	for _, g := range gs {
		m[g] = true
	}
	return m
}

// Subject is the authenticated caller as carried by the access token.
type Subject struct {
	ID    uint64
	Email string
	Role  model.Role
}

// CanActOn reports whether caller may act on a record owned by ownerID:
// either it is the caller's own record or the role may manage anyone's.
func CanActOn(p Policy, role model.Role, callerID, ownerID uint64, res Resource) bool {
	return callerID == ownerID || p.Allows(role, res, ActionManageAny)
}
