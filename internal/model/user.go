// internal/model/user.go
package model

type User struct {
	ID           int    `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Credentials is the login/registration payload. bcrypt only accepts
// passwords up to 72 bytes.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72,maxbytes=72"`
}

// LoginRequest carries credentials for an existing account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
