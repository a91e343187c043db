// Package model defines the API's request, response, and storage types,
// shared by the server and the pkg/client SDK.
package model

import "time"

// User represents a user row in the database.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsDemo       bool      `db:"is_demo"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SignupRequest represents a signup request body. IsDemo marks accounts
// created for the client's guided demo flow; the server stores it verbatim
// and never branches on it.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IsDemo   bool   `json:"is_demo"`
}

// LoginRequest represents a login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents user data safe for API responses (no password hash).
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsDemo    bool      `json:"is_demo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse carries a signed token and the user it identifies.
type AuthResponse struct {
	Token string       `json:"token"`
	Data  UserResponse `json:"data"`
}

// UserFromRow converts a stored user into its response shape.
func UserFromRow(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsDemo:    u.IsDemo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
