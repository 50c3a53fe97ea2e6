package repository

import (
	"context"
	"errors"

	"wayfarer/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository persists the (kind, circle, user) relation.
type MembershipRepository interface {
	Get(ctx context.Context, kind models.Kind, circleID, userID uint) (*models.Membership, error)
	List(ctx context.Context, kind models.Kind, circleID uint) ([]models.Membership, error)
	Add(ctx context.Context, m *models.Membership) (bool, error)
	Remove(ctx context.Context, kind models.Kind, circleID, userID uint) (bool, error)
	SetArchived(ctx context.Context, kind models.Kind, circleID, userID uint, archived bool) error
	CountAdmins(ctx context.Context, kind models.Kind, circleID uint) (int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository returns a gorm-backed MembershipRepository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Get returns nil, nil when userID is not a member.
func (r *membershipRepository) Get(ctx context.Context, kind models.Kind, circleID, userID uint) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND circle_id = ? AND user_id = ?", kind, circleID, userID).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &m, nil
}

// List returns members with their users, admins first.
func (r *membershipRepository) List(ctx context.Context, kind models.Kind, circleID uint) ([]models.Membership, error) {
	var out []models.Membership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("kind = ? AND circle_id = ?", kind, circleID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "role"}},
			{Column: clause.Column{Name: "created_at"}},
			{Column: clause.Column{Name: "user_id"}},
		}}).
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// Add inserts the membership; it reports false when the user was already a member.
func (r *membershipRepository) Add(ctx context.Context, m *models.Membership) (bool, error) {
	if m.Role == "" {
		m.Role = models.MembershipRoleMember
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Remove reports false when there was no such membership.
func (r *membershipRepository) Remove(ctx context.Context, kind models.Kind, circleID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("kind = ? AND circle_id = ? AND user_id = ?", kind, circleID, userID).
		Delete(&models.Membership{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepository) SetArchived(ctx context.Context, kind models.Kind, circleID, userID uint, archived bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("kind = ? AND circle_id = ? AND user_id = ?", kind, circleID, userID).
		Update("archived", archived)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Membership", circleID)
	}
	return nil
}

func (r *membershipRepository) CountAdmins(ctx context.Context, kind models.Kind, circleID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("kind = ? AND circle_id = ? AND role = ?", kind, circleID, models.MembershipRoleAdmin).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
