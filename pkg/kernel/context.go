package kernel

// AuthContext is what the auth middleware learns about the caller.
type AuthContext struct {
	UserID      UserID `json:"user_id"`
	Role        Role   `json:"role"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
}

// IsValid checks that the context identifies a user with a known role.
func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.UserID.IsEmpty() && ac.Role.IsValid()
}

func (ac *AuthContext) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if ac.Role == r {
			return true
		}
	}
	return false
}

// Actor is the acting party handed to service calls.
func (ac *AuthContext) Actor() Actor {
	return Actor{UserID: ac.UserID, Role: ac.Role}
}

type ContextKey string

// AuthContextKey is the fiber locals key holding the *AuthContext.
const AuthContextKey ContextKey = "auth"
