package service

import (
	"context"
	"time"

	"go-channel-identity/internal/model"
)

// AccountStore is the persistent account record store. Lookups return
// model.ErrAccountNotFound when nothing matches; Create and Update return
// model.ErrAccountExists on a unique username or email clash.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByUsername(ctx context.Context, username string) (model.Account, error)
	FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.Account, error)
	Create(ctx context.Context, account model.Account) error
	Update(ctx context.Context, id string, patch model.AccountPatch) (model.Account, error)
	SwapRefreshToken(ctx context.Context, id string, expected string, next string) (bool, error)
}

type SubscriptionStore interface {
	Subscribe(ctx context.Context, subscriberID string, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID string, channelID string) error
	Stats(ctx context.Context, channelID string, viewerID string) (model.SubscriptionStats, error)
}

// PasswordHasher verifies plaintext against a stored hash. A wrong password
// is (false, nil); a hash that cannot be evaluated returns an error.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, storedHash string) (bool, error)
}

type TokenIssuer interface {
	AccessTTL() time.Duration
	IssueAccessToken(account model.Account) (string, error)
	IssueRefreshToken(account model.Account) (string, error)
	ParseRefreshToken(token string) (*model.AuthClaims, error)
}
