// Package queue carries invite reminders from the API to the worker over
// asynq, backed by the same Redis the cache uses.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wayfarer/internal/service"

	"github.com/hibiken/asynq"
)

// TypeInviteReminder is the asynq task type for invite reminder delivery.
const TypeInviteReminder = "invite:reminder"

// QueueReminders is the asynq queue reminder tasks are placed on.
const QueueReminders = "reminders"

// InviteReminderPayload is the JSON body of a reminder task.
type InviteReminderPayload struct {
	InviteID uint `json:"invite_id"`
}

// NewInviteReminderTask builds the asynq task for inviteID.
func NewInviteReminderTask(inviteID uint) (*asynq.Task, error) {
	if inviteID == 0 {
		return nil, errors.New("queue: invite id is required")
	}
	payload, err := json.Marshal(InviteReminderPayload{InviteID: inviteID})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal reminder payload: %w", err)
	}
	return asynq.NewTask(TypeInviteReminder, payload), nil
}

// RedisOpt accepts either a bare host:port or a redis:// URI, matching what
// cache.InitRedis accepts for REDIS_URL.
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, errors.New("queue: REDIS_URL is not set")
	}
	if strings.Contains(redisURL, "://") {
		opt, err := asynq.ParseRedisURI(redisURL)
		if err != nil {
			return nil, fmt.Errorf("queue: parse REDIS_URL: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{Addr: redisURL}, nil
}

// Client enqueues reminder tasks.
type Client struct {
	client *asynq.Client
}

var _ service.ReminderQueue = (*Client)(nil)

// NewClient connects an asynq client to opt.
func NewClient(opt asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(opt)}
}

// EnqueueInviteReminder schedules a reminder for inviteID. Repeated reminders
// for the same invite within a minute collapse into one task.
func (c *Client) EnqueueInviteReminder(ctx context.Context, inviteID uint) error {
	task, err := NewInviteReminderTask(inviteID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueReminders),
		asynq.MaxRetry(5),
		asynq.Unique(time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("queue: enqueue invite reminder: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
