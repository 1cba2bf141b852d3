package models

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// RecoveryRequest is the body of POST /auth/password-recovery
type RecoveryRequest struct {
	Email string `json:"email"`
}

// RecoveryResponse carries the server's confirmation text
type RecoveryResponse struct {
	Message string `json:"message"`
}

// ElectoralAccessRequest is the body of POST /auth/electoral-access
type ElectoralAccessRequest struct {
	Section int    `json:"section"`
	Code    string `json:"code"`
}

// AdminAccessRequest is the body of POST /auth/admin-access
type AdminAccessRequest struct {
	Code string `json:"code"`
}

// EmergencyRequest is the JSON body of POST /emergency/send without a photo
type EmergencyRequest struct {
	Message string `json:"message"`
}

// ErrorResponse is the server's error envelope
type ErrorResponse struct {
	Detail string `json:"detail"`
}
