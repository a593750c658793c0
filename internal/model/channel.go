package model

// MediaSlot names one of the two replaceable images on an account.
type MediaSlot string

const (
	SlotAvatar MediaSlot = "avatar"
	SlotCover  MediaSlot = "cover"
)

func (s MediaSlot) Valid() bool {
	return s == SlotAvatar || s == SlotCover
}

// MediaRef is what the object store hands back for an uploaded asset.
type MediaRef struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type SubscriptionStats struct {
	SubscriberCount   int64
	SubscribedToCount int64
	IsSubscribed      bool
}

type ChannelProfile struct {
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Username          string `json:"username"`
	SubscriberCount   int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
}

type SubscriptionState struct {
	Channel      string `json:"channel"`
	IsSubscribed bool   `json:"isSubscribed"`
}
