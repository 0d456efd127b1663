package models

// User roles. The login flow lives in a separate service; this engine
// only reads identity from the session for creator attribution and the
// admin gate on deletion.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the account a session resolves to.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
