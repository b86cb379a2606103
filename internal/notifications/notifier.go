// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strconv"

	"echoverse/internal/middleware"
	"echoverse/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes realtime payloads into Redis so every server instance's
// hub can deliver them. A nil Redis client turns publishing into a no-op,
// which is how the API keeps working through a Redis outage.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a payload to one user's channel. Direct messages, friend
// request events, and read receipts go through here.
func (n *Notifier) PublishUser(
	ctx context.Context, userID uint, payload string,
) error {
	if n.rdb == nil {
		return nil
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return err
	}
	observability.EventsPublished.WithLabelValues("user").Inc()
	return nil
}

// PublishBroadcast sends a payload to all connected users. New posts and
// reaction count updates are broadcast this way.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	if err := n.rdb.Publish(ctx, broadcastChannel, payload).Err(); err != nil {
		return err
	}
	observability.EventsPublished.WithLabelValues("broadcast").Inc()
	return nil
}

// StartPatternSubscriber subscribes to the per-user pattern and the broadcast
// channel and invokes onMessage for every incoming message. A panic in
// onMessage is contained so one bad payload cannot kill the subscriber loop.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}
