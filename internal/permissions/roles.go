package permissions

import "fmt"

// Role is the acting user's role within a company.
type Role string

const (
	Owner       Role = "owner"
	Admin       Role = "admin"
	HR          Role = "hr"
	Procurement Role = "procurement"
	Finance     Role = "finance"
	Viewer      Role = "viewer"
)

// Roles lists every role in the closed set.
var Roles = []Role{Owner, Admin, HR, Procurement, Finance, Viewer}

// ParseRole validates a role name.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return r, nil
}

// IsValid reports whether the role belongs to the closed set.
func (r Role) IsValid() bool {
	switch r {
	case Owner, Admin, HR, Procurement, Finance, Viewer:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Principal is the acting user. It is passed explicitly to every repository
// call; nothing reads permissions from ambient state.
type Principal struct {
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId"`
}
