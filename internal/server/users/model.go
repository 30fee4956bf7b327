// Package users authenticates credential pairs against a credential store
// and resolves the pathway of the user's goal document.
package users

// User is one credential record. Password is either the plain secret or a
// bcrypt hash of it.
type User struct {
	UserName string `json:"username"`
	Password string `json:"password"`
	Pathway  string `json:"pathway"`
}
