package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-channel-identity/internal/model"
)

const foreignKeyViolation = "23503"

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) Subscribe(ctx context.Context, subscriberID string, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)
		 ON CONFLICT (subscriber_id, channel_id) DO NOTHING`,
		subscriberID, channelID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return model.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, subscriberID string, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// Stats computes both counts and the viewer's membership in one statement so
// all three values come from the same snapshot. An empty viewerID is never
// subscribed.
func (r *SubscriptionRepository) Stats(ctx context.Context, channelID string, viewerID string) (model.SubscriptionStats, error) {
	var stats model.SubscriptionStats
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
			(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1),
			EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = $1 AND subscriber_id = $2::text)`,
		channelID, nullIfEmpty(viewerID)).
		Scan(&stats.SubscriberCount, &stats.SubscribedToCount, &stats.IsSubscribed)
	if err != nil {
		return model.SubscriptionStats{}, fmt.Errorf("subscription stats: %w", err)
	}
	return stats, nil
}
