package authclient

import "encoding/json"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,e164"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// envelope mirrors the API's {status, message, data} wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// authData is the login/refresh payload. Older API builds return the
// username and roles flattened next to the token; newer ones nest a user
// object. Both are accepted.
type authData struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         userPayload `json:"user"`
	Username     string      `json:"username"`
	Roles        []string    `json:"roles"`
}

type userPayload struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Roles    []string    `json:"roles"`
}

func (d authData) username() string {
	if d.User.Username != "" {
		return d.User.Username
	}
	return d.Username
}

func (d authData) roles() []string {
	if len(d.User.Roles) > 0 {
		return d.User.Roles
	}
	return d.Roles
}
