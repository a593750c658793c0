package handler

import (
	"context"
	"net/http"

	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/model"
)

type accountService interface {
	CurrentAccount(ctx context.Context, accountID string) (model.PublicAccount, error)
	UpdateAccountDetails(ctx context.Context, accountID string, req model.UpdateAccountRequest) (model.PublicAccount, error)
}

type mediaService interface {
	Replace(ctx context.Context, accountID string, slot model.MediaSlot, localPath string) (model.PublicAccount, error)
}

type AccountHandler struct {
	accounts      accountService
	media         mediaService
	maxUploadSize int64
	uploadTempDir string
}

func NewAccountHandler(accounts accountService, media mediaService, maxUploadSize int64, uploadTempDir string) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		media:         media,
		maxUploadSize: maxUploadSize,
		uploadTempDir: uploadTempDir,
	}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.CurrentAccount(r.Context(), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, "Current user fetched successfully")
}

func (h *AccountHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var payload model.UpdateAccountRequest
	if err := decodeJSON(w, r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.accounts.UpdateAccountDetails(r.Context(), middleware.AccountIDFromContext(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, "Account details updated successfully")
}

func (h *AccountHandler) ReplaceAvatar(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, model.SlotAvatar, "avatar", "Avatar image updated successfully")
}

func (h *AccountHandler) ReplaceCover(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, model.SlotCover, "coverImage", "Cover image updated successfully")
}

func (h *AccountHandler) replace(w http.ResponseWriter, r *http.Request, slot model.MediaSlot, field string, message string) {
	form, err := readMultipart(w, r, h.maxUploadSize, h.uploadTempDir, field)
	if err != nil {
		writeError(w, err)
		return
	}

	account, err := h.media.Replace(r.Context(), middleware.AccountIDFromContext(r.Context()), slot, form.files[field])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, message)
}
