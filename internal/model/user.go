package model

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an authenticated user in the system.
//
// Password holds the bcrypt hash, never the plain text. It is serialized so
// cached copies stay identical to the stored record; handlers expose users
// through their own response type.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"uniqueIndex;size:255;not null"`
	Password string `json:"password" gorm:"size:255;not null"`
	Role     Role   `json:"role" gorm:"size:16;not null;default:'user'"`
}
