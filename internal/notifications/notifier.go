// Package notifications delivers workflow notifications and audit records.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"kenhavate/internal/models"
	"kenhavate/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userChannelPattern = "notifications:user:*"

// Notifier publishes notifications into per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Notify publishes n as JSON on the recipient's channel.
func (n *Notifier) Notify(ctx context.Context, msg models.Notification) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(msg.UserID), payload).Err()
}

// Subscribe delivers every user notification to onMessage until ctx is done.
// onMessage receives the recipient id and the raw JSON payload.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(userID uint, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				userID, ok := parseUserChannel(msg.Channel)
				if !ok {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(userID, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

func parseUserChannel(channel string) (uint, bool) {
	const prefix = "notifications:user:"
	if len(channel) <= len(prefix) || channel[:len(prefix)] != prefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
