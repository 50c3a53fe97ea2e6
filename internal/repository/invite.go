package repository

import (
	"context"
	"errors"
	"time"

	"wayfarer/internal/database"
	"wayfarer/internal/models"

	"gorm.io/gorm"
)

// InviteRepository persists invites. Transitions out of pending are
// compare-and-set updates so concurrent revoke/remind calls cannot both win.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByID(ctx context.Context, id uint) (*models.Invite, error)
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	ListForCircle(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error)
	TransitionFromPending(ctx context.Context, id uint, to models.InviteStatus) (bool, error)
	RecordReminder(ctx context.Context, id uint, at time.Time) (bool, error)
}

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository returns a gorm-backed InviteRepository.
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

// Create yields ErrConflict if the invite code collides.
func (r *inviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	if invite.Status == "" {
		invite.Status = models.InviteStatusPending
	}
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).First(&invite, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invite", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invite", code)
		}
		return nil, models.NewInternalError(err)
	}
	return &invite, nil
}

func (r *inviteRepository) ListForCircle(ctx context.Context, kind models.Kind, circleID uint) ([]models.Invite, error) {
	var out []models.Invite
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND circle_id = ?", kind, circleID).
		Order("created_at DESC, id DESC").
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// TransitionFromPending moves a pending invite to `to`; false means the
// invite was no longer pending.
func (r *inviteRepository) TransitionFromPending(ctx context.Context, id uint, to models.InviteStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// RecordReminder bumps the reminder counter of a pending invite.
func (r *inviteRepository) RecordReminder(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(map[string]interface{}{
			"remind_count":     gorm.Expr("remind_count + 1"),
			"last_reminded_at": at,
		})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}
