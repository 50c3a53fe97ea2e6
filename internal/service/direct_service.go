package service

import (
	"context"
	"errors"

	"wayfarer/internal/models"
	"wayfarer/internal/repository"
)

// DirectService manages 1:1 conversations.
type DirectService struct {
	directs repository.DirectRepository
	users   repository.UserRepository
	events  InboxEvents
}

// NewDirectService returns a new DirectService. events may be nil.
func NewDirectService(directs repository.DirectRepository, users repository.UserRepository, events InboxEvents) *DirectService {
	return &DirectService{directs: directs, users: users, events: eventsOrNoop(events)}
}

// Create returns the conversation between userID and peerID, creating it on
// first use. Calling it again for the same pair returns the same row; a
// side that had deleted the conversation gets it back.
func (s *DirectService) Create(ctx context.Context, userID, peerID uint) (*models.DirectConversation, error) {
	if peerID == 0 {
		return nil, models.NewValidationError("peer_id is required")
	}
	if userID == peerID {
		return nil, models.NewValidationError("Cannot start a conversation with yourself")
	}
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		return nil, err
	}

	existing, err := s.directs.FindPair(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		dc := &models.DirectConversation{UserAID: userID, UserBID: peerID}
		err = s.directs.Create(ctx, dc)
		switch {
		case err == nil:
			s.events.InboxChanged(ctx, models.KindDirect, dc.ID, userID, peerID)
			return s.directs.GetByID(ctx, dc.ID)
		case errors.Is(err, repository.ErrConflict):
			// Lost the race against a concurrent create for the same pair.
			if existing, err = s.directs.FindPair(ctx, userID, peerID); err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, models.NewInternalError(errors.New("conversation vanished after conflict"))
			}
		default:
			return nil, err
		}
	}

	if existing.DeletedFor(userID) {
		if err := s.directs.SetDeleted(ctx, existing, userID, false); err != nil {
			return nil, err
		}
		s.events.InboxChanged(ctx, models.KindDirect, existing.ID, userID)
		return s.directs.GetByID(ctx, existing.ID)
	}
	return existing, nil
}

// List returns the viewer's visible conversations for one archive state.
func (s *DirectService) List(ctx context.Context, userID uint, archived bool) ([]models.DirectConversation, error) {
	return s.directs.ListForUser(ctx, userID, archived)
}

// Archive sets or clears the viewer's archive flag.
func (s *DirectService) Archive(ctx context.Context, userID, id uint, archive bool) error {
	dc, err := s.participantConversation(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.directs.SetArchived(ctx, dc, userID, archive); err != nil {
		return err
	}
	s.events.InboxChanged(ctx, models.KindDirect, id, userID)
	return nil
}

// Delete hides the conversation for the viewer; the peer keeps it.
func (s *DirectService) Delete(ctx context.Context, userID, id uint) error {
	dc, err := s.participantConversation(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.directs.SetDeleted(ctx, dc, userID, true); err != nil {
		return err
	}
	s.events.InboxChanged(ctx, models.KindDirect, id, userID)
	return nil
}

func (s *DirectService) participantConversation(ctx context.Context, userID, id uint) (*models.DirectConversation, error) {
	dc, err := s.directs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dc.Involves(userID) {
		// Do not reveal other people's conversations.
		return nil, models.NewNotFoundError("Conversation", id)
	}
	return dc, nil
}
