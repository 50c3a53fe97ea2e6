package repository

import (
	"context"
	"errors"
	"fmt"

	"wayfarer/internal/cache"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CircleRepository persists groups and communities. Both kinds share the
// Circle columns; kind selects the table.
type CircleRepository interface {
	CreateWithMembers(ctx context.Context, kind models.Kind, circle *models.Circle, memberIDs []uint) error
	GetByID(ctx context.Context, kind models.Kind, id uint) (*models.Circle, error)
	ListForUser(ctx context.Context, kind models.Kind, userID uint, archived bool) ([]models.Circle, error)
	Update(ctx context.Context, kind models.Kind, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, kind models.Kind, id uint) error
	Leave(ctx context.Context, kind models.Kind, id, userID uint) (*LeaveResult, error)
}

// LeaveResult reports what Leave did besides removing the membership.
type LeaveResult struct {
	Remaining  []uint
	PromotedID uint
	Deleted    bool
}

type circleRepository struct {
	db *gorm.DB
}

// NewCircleRepository returns a gorm-backed CircleRepository.
func NewCircleRepository(db *gorm.DB) CircleRepository {
	return &circleRepository{db: db}
}

// CreateWithMembers inserts the circle, its creator as admin and every
// member ID as member in one transaction.
func (r *circleRepository) CreateWithMembers(ctx context.Context, kind models.Kind, circle *models.Circle, memberIDs []uint) error {
	if !kind.IsCircle() {
		return models.NewValidationError("kind must be group or community")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(kind.Table()).Create(circle).Error; err != nil {
			return models.NewInternalError(err)
		}

		rows := []models.Membership{{
			Kind:     kind,
			CircleID: circle.ID,
			UserID:   circle.CreatedByUserID,
			Role:     models.MembershipRoleAdmin,
		}}
		seen := map[uint]struct{}{circle.CreatedByUserID: {}}
		for _, id := range memberIDs {
			if _, dup := seen[id]; dup || id == 0 {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, models.Membership{
				Kind:     kind,
				CircleID: circle.ID,
				UserID:   id,
				Role:     models.MembershipRoleMember,
			})
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return models.NewInternalError(err)
		}
		circle.MemberCount = len(rows)
		return nil
	})
}

func (r *circleRepository) GetByID(ctx context.Context, kind models.Kind, id uint) (*models.Circle, error) {
	var circle models.Circle
	err := cache.Aside(ctx, cache.CircleKey(kind.String(), id), &circle, cache.CircleTTL, func() error {
		if err := r.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Take(&circle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError(kindLabel(kind), id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &circle, nil
}

type circleRow struct {
	models.Circle
	MemberArchived bool
	MemberUnread   int
	MemberCount    int
}

// ListForUser returns the circles userID belongs to, filtered by the
// member's own archive flag, with per-viewer fields projected.
func (r *circleRepository) ListForUser(ctx context.Context, kind models.Kind, userID uint, archived bool) ([]models.Circle, error) {
	defer observability.TrackQuery("list", kind.Table())()

	query := fmt.Sprintf(`SELECT c.*, m.archived AS member_archived, m.unread_count AS member_unread,
	(SELECT COUNT(*) FROM memberships mc WHERE mc.kind = ? AND mc.circle_id = c.id) AS member_count
FROM %q AS c
JOIN memberships m ON m.circle_id = c.id AND m.kind = ? AND m.user_id = ?
WHERE m.archived = ?
ORDER BY c.id DESC`, kind.Table())

	var rows []circleRow
	if err := r.db.WithContext(ctx).Raw(query, kind, kind, userID, archived).Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make([]models.Circle, 0, len(rows))
	for _, row := range rows {
		c := row.Circle
		c.Archived = row.MemberArchived
		c.UnreadCount = row.MemberUnread
		c.MemberCount = row.MemberCount
		out = append(out, c)
	}
	return out, nil
}

func (r *circleRepository) Update(ctx context.Context, kind models.Kind, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(kindLabel(kind), id)
	}
	cache.InvalidateCircle(ctx, kind.String(), id)
	return nil
}

// Delete removes the circle together with its memberships and invites.
func (r *circleRepository) Delete(ctx context.Context, kind models.Kind, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCircle(tx, kind, id)
	})
	if err != nil {
		return err
	}
	cache.InvalidateCircle(ctx, kind.String(), id)
	return nil
}

// Leave removes userID's membership. A departing admin who leaves no other
// admin behind hands the role to the longest-standing member, and a circle
// left empty is deleted. All of it commits or none of it does.
func (r *circleRepository) Leave(ctx context.Context, kind models.Kind, id, userID uint) (*LeaveResult, error) {
	var out LeaveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		if err := tx.Where("kind = ? AND circle_id = ? AND user_id = ?", kind, id, userID).Take(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError(kindLabel(kind), id)
			}
			return models.NewInternalError(err)
		}
		if err := tx.Where("kind = ? AND circle_id = ? AND user_id = ?", kind, id, userID).
			Delete(&models.Membership{}).Error; err != nil {
			return models.NewInternalError(err)
		}

		var remaining []models.Membership
		if err := tx.Where("kind = ? AND circle_id = ?", kind, id).
			Order("role, created_at, user_id").
			Find(&remaining).Error; err != nil {
			return models.NewInternalError(err)
		}
		for _, rm := range remaining {
			out.Remaining = append(out.Remaining, rm.UserID)
		}

		switch {
		case len(remaining) == 0:
			out.Deleted = true
			return deleteCircle(tx, kind, id)
		case m.Role == models.MembershipRoleAdmin && remaining[0].Role != models.MembershipRoleAdmin:
			// admins sort first, so remaining[0] is the oldest plain member here
			heir := remaining[0].UserID
			if err := tx.Model(&models.Membership{}).
				Where("kind = ? AND circle_id = ? AND user_id = ?", kind, id, heir).
				Update("role", models.MembershipRoleAdmin).Error; err != nil {
				return models.NewInternalError(err)
			}
			out.PromotedID = heir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateCircle(ctx, kind.String(), id)
	return &out, nil
}

func deleteCircle(tx *gorm.DB, kind models.Kind, id uint) error {
	if err := tx.Where("kind = ? AND circle_id = ?", kind, id).Delete(&models.Invite{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := tx.Where("kind = ? AND circle_id = ?", kind, id).Delete(&models.Membership{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := tx.Table(kind.Table()).Where("id = ?", id).Delete(&models.Circle{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(kindLabel(kind), id)
	}
	return nil
}

func kindLabel(kind models.Kind) string {
	switch kind {
	case models.KindGroup:
		return "Group"
	case models.KindCommunity:
		return "Community"
	default:
		return "Conversation"
	}
}
