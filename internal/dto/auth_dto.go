package dto

type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  UserProfileData `json:"user"`
}

type SessionStateResponse struct {
	CurrentUser *UserProfileData `json:"current_user,omitempty"`
	Loading     bool             `json:"loading"`
	AuthError   string           `json:"auth_error,omitempty"`
}
