// notely/types/user.go
package types

// Profile is what the identity provider tells us about a signed-in user.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Identity is the resolved caller attached to each authenticated request.
type Identity struct {
	UserID int    `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}
