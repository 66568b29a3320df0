package models

// Role of a workforce user.
type Role string

const (
	RoleCEO      Role = "ceo"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Elevated reports whether the role may manage chats it did not create and
// assign job cards.
func (r Role) Elevated() bool {
	return r == RoleCEO || r == RoleManager
}

// User is the resolved form of a user reference.
type User struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	ProfilePic string `db:"profile_pic" json:"profile_pic"`
	Role       Role   `db:"role" json:"role"`
}
