package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleContractor Role = "contractor"
	RoleSociety    Role = "society"
	RoleAdmin      Role = "admin"
)

func (r Role) String() string { return string(r) }

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleContractor, RoleSociety, RoleAdmin:
		return true
	default:
		return false
	}
}

// Actor is the authenticated party performing an operation.
type Actor struct {
	UserID UserID
	Role   Role
}

func (a Actor) IsAdmin() bool      { return a.Role == RoleAdmin }
func (a Actor) IsContractor() bool { return a.Role == RoleContractor }
func (a Actor) IsSociety() bool    { return a.Role == RoleSociety }
func (a Actor) Is(id UserID) bool  { return !id.IsEmpty() && a.UserID == id }
