package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-channel-identity/internal/middleware"
	"go-channel-identity/internal/model"
)

type channelService interface {
	GetChannelProfile(ctx context.Context, username string, viewerID string) (model.ChannelProfile, error)
	Subscribe(ctx context.Context, subscriberID string, username string) (model.SubscriptionState, error)
	Unsubscribe(ctx context.Context, subscriberID string, username string) (model.SubscriptionState, error)
}

type ChannelHandler struct {
	channels channelService
}

func NewChannelHandler(channels channelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

func (h *ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.channels.GetChannelProfile(r.Context(), chi.URLParam(r, "username"), middleware.AccountIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "User channel fetched successfully")
}

func (h *ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	state, err := h.channels.Subscribe(r.Context(), middleware.AccountIDFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, state, "Subscribed")
}

func (h *ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	state, err := h.channels.Unsubscribe(r.Context(), middleware.AccountIDFromContext(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, state, "Unsubscribed")
}
