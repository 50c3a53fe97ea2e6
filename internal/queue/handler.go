package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
)

// InviteLookup loads the invite a reminder task refers to.
type InviteLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Invite, error)
}

// Mailer delivers the reminder message. Composing the email body is left to
// the implementation.
type Mailer interface {
	SendInviteReminder(ctx context.Context, to string, link string, invite *models.Invite) error
}

// LogMailer writes reminders to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

// SendInviteReminder implements Mailer.
func (m LogMailer) SendInviteReminder(ctx context.Context, to string, link string, invite *models.Invite) error {
	logger := m.Logger
	if logger == nil {
		logger = observability.GlobalLogger.Logger
	}
	logger.InfoContext(ctx, "invite reminder",
		slog.String("to", to),
		slog.String("link", link),
		slog.Uint64("invite_id", uint64(invite.ID)),
		slog.Int("remind_count", invite.RemindCount),
	)
	return nil
}

// ReminderHandler processes TypeInviteReminder tasks.
type ReminderHandler struct {
	invites InviteLookup
	mailer  Mailer
	origin  string
}

// NewReminderHandler builds the handler; origin is the public site used for
// invite links.
func NewReminderHandler(invites InviteLookup, mailer Mailer, origin string) *ReminderHandler {
	return &ReminderHandler{invites: invites, mailer: mailer, origin: origin}
}

// ProcessTask implements asynq.Handler. Invites that stopped being pending or
// have no email are skipped without error so asynq does not retry them.
func (h *ReminderHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	ctx, span := observability.StartTaskSpan(ctx, t.Type())
	defer span.End()

	var p InviteReminderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		observability.InviteReminderJobs.WithLabelValues("malformed").Inc()
		return fmt.Errorf("decode reminder payload: %v: %w", err, asynq.SkipRetry)
	}
	span.SetAttributes(attribute.Int64("invite.id", int64(p.InviteID)))
	observability.LogAsyncOperationStart(ctx, "invite_reminder", map[string]interface{}{
		"invite_id": p.InviteID,
	})

	invite, err := h.invites.GetByID(ctx, p.InviteID)
	if err != nil {
		if models.IsNotFound(err) {
			observability.InviteReminderJobs.WithLabelValues("skipped").Inc()
			return nil
		}
		observability.InviteReminderJobs.WithLabelValues("failed").Inc()
		span.RecordError(err)
		return err
	}
	if invite.Status != models.InviteStatusPending || invite.Email == nil || *invite.Email == "" {
		observability.InviteReminderJobs.WithLabelValues("skipped").Inc()
		return nil
	}

	link := models.InviteLink(h.origin, invite.InviteCode)
	if err := h.mailer.SendInviteReminder(ctx, *invite.Email, link, invite); err != nil {
		observability.InviteReminderJobs.WithLabelValues("failed").Inc()
		observability.LogAsyncOperationError(ctx, "invite_reminder", err, map[string]interface{}{
			"invite_id": invite.ID,
		})
		span.RecordError(err)
		return err
	}
	observability.InviteReminderJobs.WithLabelValues("sent").Inc()
	return nil
}

// NewServeMux routes reminder tasks to h.
func NewServeMux(h *ReminderHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeInviteReminder, h)
	return mux
}

// NewServer builds the asynq worker server.
func NewServer(opt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueReminders: 1},
		Logger:      asynqLogger{},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			observability.LogAsyncOperationError(ctx, task.Type(), err, nil)
		}),
	})
}

// asynqLogger routes asynq's internal logs to the structured logger.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) {
	observability.GlobalLogger.Debug(fmt.Sprint(args...), slog.String("component", "asynq"))
}

func (asynqLogger) Info(args ...interface{}) {
	observability.GlobalLogger.Info(fmt.Sprint(args...), slog.String("component", "asynq"))
}

func (asynqLogger) Warn(args ...interface{}) {
	observability.GlobalLogger.Warn(fmt.Sprint(args...), slog.String("component", "asynq"))
}

func (asynqLogger) Error(args ...interface{}) {
	observability.GlobalLogger.Error(fmt.Sprint(args...), slog.String("component", "asynq"))
}

func (asynqLogger) Fatal(args ...interface{}) {
	observability.GlobalLogger.Error(fmt.Sprint(args...), slog.String("component", "asynq"))
}
