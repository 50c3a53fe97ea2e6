// Package notifications pushes inbox invalidation events to connected
// clients over websockets, fanning out across API instances through Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"
	"wayfarer/internal/service"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "inbox:user:"

	// EventInboxChanged tells a client to refetch its inbox.
	EventInboxChanged = "inbox_changed"
)

// Event is the JSON frame written to websocket clients.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload identifies the inbox row that changed.
type EventPayload struct {
	Kind models.Kind `json:"kind"`
	ID   uint        `json:"id"`
}

// Notifier publishes inbox events. With a Redis client, events go through
// per-user channels so every API instance can deliver them; without one,
// they go straight to the local hub.
type Notifier struct {
	rdb   *redis.Client
	local *Hub
}

var _ service.InboxEvents = (*Notifier)(nil)

// NewNotifier creates a Notifier. Either argument may be nil.
func NewNotifier(rdb *redis.Client, local *Hub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// PublishUser sends a payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		if n.local != nil {
			n.local.Broadcast(userID, payload)
		}
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// InboxChanged implements service.InboxEvents. Publish failures are logged;
// clients recover on their next refresh.
func (n *Notifier) InboxChanged(ctx context.Context, kind models.Kind, id uint, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(Event{
		Type:    EventInboxChanged,
		Payload: EventPayload{Kind: kind, ID: id},
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode inbox event", slog.String("error", err.Error()))
		return
	}
	payload := string(data)

	seen := make(map[uint]struct{}, len(userIDs))
	for _, uid := range userIDs {
		if uid == 0 {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		if err := n.PublishUser(ctx, uid, payload); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish inbox event",
				slog.Uint64("target_user_id", uint64(uid)),
				slog.String("kind", kind.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		observability.WebSocketEventsTotal.WithLabelValues(EventInboxChanged).Inc()
	}
}

// StartPatternSubscriber subscribes to every user channel and calls
// onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	// Wait for the subscription so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe inbox channels: %w", err)
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in inbox subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// parseUserChannel returns the user id encoded in channel.
func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
