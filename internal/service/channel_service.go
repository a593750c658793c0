package service

import (
	"context"
	"errors"
	"strings"

	"go-channel-identity/internal/metrics"
	"go-channel-identity/internal/model"
	"go-channel-identity/pkg/apierror"
)

// ChannelService reads and maintains the subscription edges between
// accounts.
type ChannelService struct {
	accounts      AccountStore
	subscriptions SubscriptionStore
	metrics       *metrics.Metrics
}

func NewChannelService(accounts AccountStore, subscriptions SubscriptionStore, m *metrics.Metrics) *ChannelService {
	return &ChannelService{accounts: accounts, subscriptions: subscriptions, metrics: m}
}

// GetChannelProfile returns the public view of a channel. viewerID may be
// empty for anonymous callers, who are never subscribed.
func (s *ChannelService) GetChannelProfile(ctx context.Context, username string, viewerID string) (model.ChannelProfile, error) {
	channel, err := s.findChannel(ctx, username)
	if err != nil {
		s.metrics.ProfileView("rejected")
		return model.ChannelProfile{}, err
	}

	stats, err := s.subscriptions.Stats(ctx, channel.ID, viewerID)
	if err != nil {
		return model.ChannelProfile{}, internalError("could not load channel stats", err, "channel_id", channel.ID)
	}

	s.metrics.ProfileView("ok")
	return model.ChannelProfile{
		FullName:          channel.FullName,
		Email:             channel.Email,
		Username:          channel.Username,
		SubscriberCount:   stats.SubscriberCount,
		SubscribedToCount: stats.SubscribedToCount,
		IsSubscribed:      stats.IsSubscribed,
		Avatar:            channel.AvatarURL,
		CoverImage:        channel.CoverURL,
	}, nil
}

// Subscribe is idempotent: subscribing twice leaves a single edge.
func (s *ChannelService) Subscribe(ctx context.Context, subscriberID string, username string) (model.SubscriptionState, error) {
	channel, err := s.findChannel(ctx, username)
	if err != nil {
		return model.SubscriptionState{}, err
	}
	if channel.ID == subscriberID {
		return model.SubscriptionState{}, apierror.BadRequest("cannot subscribe to your own channel", "")
	}

	err = s.subscriptions.Subscribe(ctx, subscriberID, channel.ID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.SubscriptionState{}, apierror.NotFound("account not found", "")
	}
	if err != nil {
		return model.SubscriptionState{}, internalError("could not subscribe", err, "channel_id", channel.ID)
	}

	return model.SubscriptionState{Channel: channel.Username, IsSubscribed: true}, nil
}

func (s *ChannelService) Unsubscribe(ctx context.Context, subscriberID string, username string) (model.SubscriptionState, error) {
	channel, err := s.findChannel(ctx, username)
	if err != nil {
		return model.SubscriptionState{}, err
	}
	if channel.ID == subscriberID {
		return model.SubscriptionState{}, apierror.BadRequest("cannot unsubscribe from your own channel", "")
	}

	if err := s.subscriptions.Unsubscribe(ctx, subscriberID, channel.ID); err != nil {
		return model.SubscriptionState{}, internalError("could not unsubscribe", err, "channel_id", channel.ID)
	}

	return model.SubscriptionState{Channel: channel.Username, IsSubscribed: false}, nil
}

func (s *ChannelService) findChannel(ctx context.Context, username string) (model.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return model.Account{}, apierror.BadRequest("username is missing", "")
	}

	channel, err := s.accounts.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.Account{}, apierror.NotFound("channel does not exist", username)
	}
	if err != nil {
		return model.Account{}, internalError("could not look up channel", err)
	}

	return channel, nil
}
