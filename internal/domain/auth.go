package domain

type Provider string

const (
	ProviderLocal Provider = "local"
)

// Actor is the authenticated user behind a request
type Actor struct {
	UserID   string
	Username string
}

type AuthPayload struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}
