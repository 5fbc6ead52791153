package model

import "time"

// User is an account that can sign in and book seats. Username is the email
// address used to log in.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	CreatedAt    time.Time // users.created_at
}
