package dto

type UserProfileData struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email,omitempty"`
	DisplayName string   `json:"display_name"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Followers   []string `json:"followers"`
	Following   []string `json:"following"`
	IsPrivate   bool     `json:"is_private"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=50"`
	Bio         *string `json:"bio" validate:"omitempty,max=300"`
	IsPrivate   *bool   `json:"is_private"`
}

type FollowRequest struct {
	TargetUID string `json:"target_uid" validate:"required"`
}
