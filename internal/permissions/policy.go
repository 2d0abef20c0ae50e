// Package permissions is the flat role-based gate consulted before every
// repository operation. There is no per-instance ownership check.
package permissions

import (
	"fmt"

	"fleet/internal/apperr"
)

// Action is an operation on a resource.
type Action string

const (
	View    Action = "view"
	Create  Action = "create"
	Update  Action = "update"
	Delete  Action = "delete"
	Approve Action = "approve"
)

// Actions lists every action.
var Actions = []Action{View, Create, Update, Delete, Approve}

// Resource is an entity kind guarded by the gate.
type Resource string

const (
	Ships          Resource = "ship"
	Crew           Resource = "crew"
	Certificates   Resource = "certificate"
	Drawings       Resource = "drawing"
	Inventory      Resource = "inventory"
	Tasks          Resource = "task"
	Requisitions   Resource = "requisition"
	PurchaseOrders Resource = "purchase_order"
	WorkOrders     Resource = "work_order"
	Vendors        Resource = "vendor"
	VendorQuotes   Resource = "vendor_quote"
	AuditReports   Resource = "audit_report"
	LegalDocuments Resource = "legal_document"
	Attachments    Resource = "attachment"
)

// Resources lists every guarded resource.
var Resources = []Resource{
	Ships, Crew, Certificates, Drawings, Inventory, Tasks, Requisitions,
	PurchaseOrders, WorkOrders, Vendors, VendorQuotes, AuditReports,
	LegalDocuments, Attachments,
}

type roleSet map[Role]bool

func roles(rs ...Role) roleSet {
	s := make(roleSet, len(rs))
	for _, r := range rs {
		s[r] = true
	}
	return s
}

var (
	everyone    = roles(Roles...)
	management  = roles(Owner, Admin)
	operations  = roles(Owner, Admin, Procurement)
	people      = roles(Owner, Admin, HR)
	approvers   = roles(Owner, Admin, Finance)
	contributor = roles(Owner, Admin, HR, Procurement, Finance)
)

// policy maps resource and action to the roles allowed to perform it.
// Missing entries deny.
var policy = map[Resource]map[Action]roleSet{
	Ships: {
		View: everyone, Create: operations, Update: operations, Delete: management,
	},
	Crew: {
		View: everyone, Create: people, Update: people, Delete: people,
	},
	Certificates: {
		View: everyone, Create: operations, Update: operations, Delete: management,
	},
	Drawings: {
		View: everyone, Create: operations, Update: operations, Delete: management,
	},
	Inventory: {
		View: everyone, Create: operations, Update: operations, Delete: operations,
	},
	Tasks: {
		View: everyone, Create: roles(Owner, Admin, HR, Procurement), Update: roles(Owner, Admin, HR, Procurement), Delete: management,
	},
	Requisitions: {
		View: everyone, Create: operations, Update: operations, Delete: management, Approve: approvers,
	},
	PurchaseOrders: {
		View: everyone, Create: operations, Update: operations, Delete: management, Approve: approvers,
	},
	WorkOrders: {
		View: everyone, Create: operations, Update: operations, Delete: management, Approve: management,
	},
	Vendors: {
		View: everyone, Create: operations, Update: operations, Delete: management, Approve: management,
	},
	VendorQuotes: {
		View: everyone, Create: operations, Update: operations, Delete: management, Approve: approvers,
	},
	AuditReports: {
		View: everyone, Create: management, Update: management, Delete: management,
	},
	LegalDocuments: {
		View: roles(Owner, Admin, Finance, Procurement), Create: management, Update: management, Delete: roles(Owner),
	},
	Attachments: {
		View: everyone, Create: contributor,
	},
}

// Authorize reports whether role may perform action on resource. It is total:
// unknown roles, actions and resources are denied.
func Authorize(role Role, action Action, resource Resource) bool {
	actions, ok := policy[resource]
	if !ok {
		return false
	}
	return actions[action][role]
}

// Check authorizes p and returns an authorization error on denial. A
// principal without a company is never authorized.
func Check(p Principal, action Action, resource Resource) error {
	if p.CompanyID == "" {
		return apperr.NewAuthorization(string(resource)+"."+string(action), "no company scope")
	}
	if !Authorize(p.Role, action, resource) {
		return apperr.NewAuthorization(string(resource)+"."+string(action),
			fmt.Sprintf("role %q may not %s %s", p.Role, action, resource))
	}
	return nil
}

// Allowed returns the roles permitted to perform action on resource.
func Allowed(action Action, resource Resource) []Role {
	var out []Role
	for _, r := range Roles {
		if Authorize(r, action, resource) {
			out = append(out, r)
		}
	}
	return out
}
