package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"go-channel-identity/internal/media"
	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/model"
	"go-channel-identity/internal/objectstore"
	"go-channel-identity/pkg/apierror"
)

// MediaService replaces the avatar or cover image of an account. The order
// is upload, commit, then delete the previous asset: the account never points
// at a deleted asset, and a failed cleanup leaves at most an orphan behind.
type MediaService struct {
	accounts AccountStore
	store    objectstore.ObjectStore
	metrics  *metrics.Metrics
}

func NewMediaService(accounts AccountStore, store objectstore.ObjectStore, m *metrics.Metrics) *MediaService {
	return &MediaService{accounts: accounts, store: store, metrics: m}
}

func (s *MediaService) ReplaceAvatar(ctx context.Context, accountID string, localPath string) (model.PublicAccount, error) {
	return s.Replace(ctx, accountID, model.SlotAvatar, localPath)
}

func (s *MediaService) ReplaceCover(ctx context.Context, accountID string, localPath string) (model.PublicAccount, error) {
	return s.Replace(ctx, accountID, model.SlotCover, localPath)
}

// Replace takes ownership of localPath and removes it before returning,
// whatever the outcome.
func (s *MediaService) Replace(ctx context.Context, accountID string, slot model.MediaSlot, localPath string) (model.PublicAccount, error) {
	if strings.TrimSpace(localPath) == "" {
		return model.PublicAccount{}, apierror.BadRequest(fmt.Sprintf("%s file is missing", slot), "")
	}
	defer discardLocal(localPath)

	if !slot.Valid() {
		return model.PublicAccount{}, apierror.BadRequest("unknown media slot", string(slot))
	}

	ref, err := s.upload(ctx, slot, localPath)
	if err != nil {
		s.metrics.MediaReplaced(string(slot), "upload_failed")
		return model.PublicAccount{}, err
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		s.discardRemote(ctx, slot, ref.PublicID)
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.PublicAccount{}, apierror.NotFound("account not found", "")
		}
		return model.PublicAccount{}, internalError("could not look up account", err, "account_id", accountID)
	}

	previousID, hasPrevious := objectstore.PublicIDFromURL(slotURL(account, slot))

	updated, err := s.accounts.Update(ctx, accountID, slotPatch(slot, ref.URL))
	if err != nil {
		s.discardRemote(ctx, slot, ref.PublicID)
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.PublicAccount{}, apierror.NotFound("account not found", "")
		}
		return model.PublicAccount{}, internalError("could not update "+string(slot), err, "account_id", accountID)
	}

	if hasPrevious && previousID != ref.PublicID {
		s.discardRemote(ctx, slot, previousID)
	}

	s.metrics.MediaReplaced(string(slot), "ok")
	return updated.Public(), nil
}

// upload validates localPath as an image and sends it to the object store.
// It does not remove localPath.
func (s *MediaService) upload(ctx context.Context, slot model.MediaSlot, localPath string) (model.MediaRef, error) {
	if _, err := media.Inspect(localPath); err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return model.MediaRef{}, apierror.BadRequest(fmt.Sprintf("%s must be an image", slot), "")
		}
		if errors.Is(err, fs.ErrNotExist) {
			return model.MediaRef{}, apierror.BadRequest(fmt.Sprintf("%s file is missing", slot), "")
		}
		return model.MediaRef{}, internalError("could not read upload", err, "slot", slot)
	}

	ref, err := s.store.Upload(ctx, localPath)
	if err != nil {
		slog.Error("media upload failed", "slot", slot, "error", err)
		return model.MediaRef{}, apierror.UploadFailed(fmt.Sprintf("error while uploading %s", slot))
	}

	return ref, nil
}

// discardRemote is best effort. It ignores cancellation of ctx so an
// abandoned request still cleans up after itself.
func (s *MediaService) discardRemote(ctx context.Context, slot model.MediaSlot, publicID string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		s.metrics.MediaOrphaned(string(slot))
		slog.Warn("remote media delete failed", "slot", slot, "public_id", publicID, "error", err)
	}
}

func slotURL(account model.Account, slot model.MediaSlot) string {
	if slot == model.SlotCover {
		return account.CoverURL
	}
	return account.AvatarURL
}

func slotPatch(slot model.MediaSlot, url string) model.AccountPatch {
	if slot == model.SlotCover {
		return model.AccountPatch{CoverURL: &url}
	}
	return model.AccountPatch{AvatarURL: &url}
}
