package model

import "time"

// Account is the stored record. PasswordHash and RefreshToken never leave
// the service layer; use Public for anything returned to a caller.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURL    string
	CoverURL     string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PublicAccount struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.AvatarURL,
		CoverImage: a.CoverURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// AccountPatch is a partial update; nil fields are left untouched.
// An empty RefreshToken clears the stored token.
type AccountPatch struct {
	FullName     *string
	Email        *string
	PasswordHash *string
	AvatarURL    *string
	CoverURL     *string
	RefreshToken *string
}

func (p AccountPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.PasswordHash == nil &&
		p.AvatarURL == nil && p.CoverURL == nil && p.RefreshToken == nil
}

func StringPtr(v string) *string {
	return &v
}
