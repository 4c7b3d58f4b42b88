package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListUsers handles GET /api/users (reviewers)
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext(), actor(c), parsePagination(c, 50).page())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
