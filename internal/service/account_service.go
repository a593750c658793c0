package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

type AccountService struct {
	accounts  AccountStore
	passwords PasswordHasher
	media     *MediaService
}

func NewAccountService(accounts AccountStore, passwords PasswordHasher, media *MediaService) *AccountService {
	return &AccountService{accounts: accounts, passwords: passwords, media: media}
}

// Register creates an account with an avatar and an optional cover. The
// local files in input are removed before Register returns.
func (s *AccountService) Register(ctx context.Context, input model.RegisterInput) (model.PublicAccount, error) {
	defer discardLocal(input.AvatarLocalPath, input.CoverLocalPath)

	fullName := strings.TrimSpace(input.FullName)
	email := normalizeEmail(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(input.Password) == "" {
		return model.PublicAccount{}, apierror.BadRequest("all fields are required", "")
	}
	if !validEmail(email) {
		return model.PublicAccount{}, apierror.BadRequest("invalid email", email)
	}
	if strings.ContainsAny(username, " /\\@") {
		return model.PublicAccount{}, apierror.BadRequest("invalid username", username)
	}

	_, err := s.accounts.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return model.PublicAccount{}, apierror.Conflict("account with email or username already exists", "")
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return model.PublicAccount{}, internalError("could not look up account", err)
	}

	if strings.TrimSpace(input.AvatarLocalPath) == "" {
		return model.PublicAccount{}, apierror.BadRequest("avatar file is required", "")
	}

	avatar, err := s.media.upload(ctx, model.SlotAvatar, input.AvatarLocalPath)
	if err != nil {
		return model.PublicAccount{}, err
	}
	uploaded := map[model.MediaSlot]string{model.SlotAvatar: avatar.PublicID}

	fail := func(err error) (model.PublicAccount, error) {
		for slot, publicID := range uploaded {
			s.media.discardRemote(ctx, slot, publicID)
		}
		return model.PublicAccount{}, err
	}

	var coverURL string
	if strings.TrimSpace(input.CoverLocalPath) != "" {
		cover, err := s.media.upload(ctx, model.SlotCover, input.CoverLocalPath)
		if err != nil {
			return fail(err)
		}
		uploaded[model.SlotCover] = cover.PublicID
		coverURL = cover.URL
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return fail(internalError("could not hash password", err))
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		AvatarURL:    avatar.URL,
		CoverURL:     coverURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, model.ErrAccountExists) {
			return fail(apierror.Conflict("account with email or username already exists", ""))
		}
		return fail(internalError("could not create account", err))
	}

	return account.Public(), nil
}

func (s *AccountService) CurrentAccount(ctx context.Context, accountID string) (model.PublicAccount, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.PublicAccount{}, apierror.NotFound("account not found", "")
	}
	if err != nil {
		return model.PublicAccount{}, internalError("could not look up account", err, "account_id", accountID)
	}

	return account.Public(), nil
}

func (s *AccountService) UpdateAccountDetails(ctx context.Context, accountID string, req model.UpdateAccountRequest) (model.PublicAccount, error) {
	if req.FullName == nil && req.Email == nil {
		return model.PublicAccount{}, apierror.BadRequest("fullName or email is required", "")
	}

	var patch model.AccountPatch
	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return model.PublicAccount{}, apierror.BadRequest("fullName cannot be empty", "")
		}
		patch.FullName = &fullName
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !validEmail(email) {
			return model.PublicAccount{}, apierror.BadRequest("invalid email", email)
		}
		patch.Email = &email
	}

	updated, err := s.accounts.Update(ctx, accountID, patch)
	switch {
	case errors.Is(err, model.ErrAccountExists):
		return model.PublicAccount{}, apierror.Conflict("email already in use", "")
	case errors.Is(err, model.ErrAccountNotFound):
		return model.PublicAccount{}, apierror.NotFound("account not found", "")
	case err != nil:
		return model.PublicAccount{}, internalError("could not update account", err, "account_id", accountID)
	}

	return updated.Public(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
