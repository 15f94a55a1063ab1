package model

// Principal is the verified identity behind a request.
type Principal struct {
	UserID   string `json:"id"`
	Email    string `json:"email,omitempty"`
	CanWrite bool   `json:"can_write"`
}
