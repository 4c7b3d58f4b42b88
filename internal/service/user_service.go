package service

import (
	"context"

	"kenhavate/internal/models"
	"kenhavate/internal/repository"
)

// UserService exposes the user records ideas and invitations refer to.
type UserService struct {
	userRepo repository.UserRepository
	isAdmin  AdminCheck
}

func NewUserService(userRepo repository.UserRepository, isAdmin AdminCheck) *UserService {
	return &UserService{userRepo: userRepo, isAdmin: isAdmin}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (user *models.User, err error) {
	defer finish(ctx, "user.get", &err)
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers is limited to reviewers.
func (s *UserService) ListUsers(ctx context.Context, actorID uint, page Page) (users []models.User, err error) {
	defer finish(ctx, "user.list", &err)

	admin, err := s.isAdmin.check(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewPermissionDeniedError("Only reviewers can list users")
	}
	p := page.normalized()
	return s.userRepo.List(ctx, p.Limit, p.Offset)
}
