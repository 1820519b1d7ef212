package models

// User is an admin operator who can call the mutating admin endpoints.
type User struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"` // Unique
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"` // bcrypt
	AuditFields
}
