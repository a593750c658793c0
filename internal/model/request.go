package model

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

// RegisterInput carries already-parsed registration fields. The local paths
// point at temp files owned by the call; they are removed before it returns.
type RegisterInput struct {
	FullName        string
	Email           string
	Username        string
	Password        string
	AvatarLocalPath string
	CoverLocalPath  string
}
