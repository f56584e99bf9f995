package model

// User is the minimal admin user record kept alongside the token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FieldError is a per-field message reported by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors indexes errs by field name. Later entries win.
func FieldErrors(errs []FieldError) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	byField := make(map[string]string, len(errs))
	for _, e := range errs {
		byField[e.Field] = e.Message
	}
	return byField
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type LoginSession struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in,omitempty"`
}

// LoginResult is the discriminated login outcome. Session and User are only
// set when Success is true; Errors only when it is false.
type LoginResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Session *LoginSession `json:"session,omitempty"`
	User    *User         `json:"user,omitempty"`
	Errors  []FieldError  `json:"errors,omitempty"`
}
