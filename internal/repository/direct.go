package repository

import (
	"context"
	"errors"

	"wayfarer/internal/database"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"gorm.io/gorm"
)

// DirectRepository persists 1:1 conversations. Every per-user operation
// resolves which side of the ordered pair the user sits on.
type DirectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.DirectConversation, error)
	FindPair(ctx context.Context, userA, userB uint) (*models.DirectConversation, error)
	Create(ctx context.Context, dc *models.DirectConversation) error
	ListForUser(ctx context.Context, userID uint, archived bool) ([]models.DirectConversation, error)
	SetArchived(ctx context.Context, dc *models.DirectConversation, userID uint, archived bool) error
	SetDeleted(ctx context.Context, dc *models.DirectConversation, userID uint, deleted bool) error
}

type directRepository struct {
	db *gorm.DB
}

// NewDirectRepository returns a gorm-backed DirectRepository.
func NewDirectRepository(db *gorm.DB) DirectRepository {
	return &directRepository{db: db}
}

func (r *directRepository) GetByID(ctx context.Context, id uint) (*models.DirectConversation, error) {
	var dc models.DirectConversation
	if err := r.db.WithContext(ctx).Preload("UserA").Preload("UserB").First(&dc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &dc, nil
}

// FindPair returns nil, nil when the two users have no conversation yet.
func (r *directRepository) FindPair(ctx context.Context, userA, userB uint) (*models.DirectConversation, error) {
	lo, hi := models.OrderedPair(userA, userB)
	var dc models.DirectConversation
	if err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		First(&dc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &dc, nil
}

// Create normalizes the pair order; a lost race on the pair index yields ErrConflict.
func (r *directRepository) Create(ctx context.Context, dc *models.DirectConversation) error {
	dc.UserAID, dc.UserBID = models.OrderedPair(dc.UserAID, dc.UserBID)
	if err := r.db.WithContext(ctx).Create(dc).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *directRepository) ListForUser(ctx context.Context, userID uint, archived bool) ([]models.DirectConversation, error) {
	defer observability.TrackQuery("list", "direct_conversations")()

	var out []models.DirectConversation
	if err := r.db.WithContext(ctx).
		Preload("UserA").
		Preload("UserB").
		Where("(user_a_id = ? AND deleted_by_a = ? AND archived_by_a = ?) OR (user_b_id = ? AND deleted_by_b = ? AND archived_by_b = ?)",
			userID, false, archived, userID, false, archived).
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *directRepository) SetArchived(ctx context.Context, dc *models.DirectConversation, userID uint, archived bool) error {
	column, _, _ := dc.SideColumns(userID)
	return r.updateSide(ctx, dc, userID, map[string]interface{}{column: archived})
}

// SetDeleted hides the conversation for one side only; the peer keeps it.
// Deleting also clears the side's archive flag so a later restore lands in
// the active list.
func (r *directRepository) SetDeleted(ctx context.Context, dc *models.DirectConversation, userID uint, deleted bool) error {
	archivedCol, deletedCol, _ := dc.SideColumns(userID)
	return r.updateSide(ctx, dc, userID, map[string]interface{}{deletedCol: deleted, archivedCol: false})
}

func (r *directRepository) updateSide(ctx context.Context, dc *models.DirectConversation, userID uint, updates map[string]interface{}) error {
	if !dc.Involves(userID) {
		return models.NewForbiddenError("not a participant of this conversation")
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DirectConversation{}).
		Where("id = ?", dc.ID).
		Updates(updates).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
