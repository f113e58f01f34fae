package models

// User represents a registered user account.
type User struct {
	// ID is the unique identifier assigned by storage.
	ID int64

	// Username is the unique display name used for lookup and rendering.
	Username string

	// Email is the unique address used for login.
	Email string

	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialized to clients.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// Profile returns the public projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, Email: u.Email}
}

// UserProfile is the public view of a user, safe to return to any
// authenticated caller.
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
