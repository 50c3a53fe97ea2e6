package service

import (
	"context"

	"wayfarer/internal/models"
	"wayfarer/internal/repository"
)

const defaultSearchLimit = 20

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Search finds users by handle, full name or exact email, excluding the caller.
func (s *UserService) Search(ctx context.Context, callerID uint, term string) ([]models.User, error) {
	found, err := s.userRepo.Search(ctx, term, defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(found))
	for _, u := range found {
		if u.ID != callerID {
			out = append(out, u)
		}
	}
	return out, nil
}
