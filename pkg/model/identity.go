package model

// Identity is the authenticated principal issued by the auth provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
