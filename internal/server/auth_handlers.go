package server

import (
	"blogapp/internal/models"
	"blogapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// credentials is the register/login body. The client may nest it under "user".
type credentials struct {
	Email    string       `json:"email"`
	Name     string       `json:"name"`
	Password string       `json:"password"`
	User     *credentials `json:"user,omitempty" swaggerignore:"true"`
}

func (r *credentials) inner() *credentials { return r.User }

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Register handles POST /auth/register
// @Summary Register
// @Description Create an account and return a token for it
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentials true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ValidationResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	req, err := parseWrapped(c, (*credentials).inner)
	if err != nil {
		return s.respond(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return s.respond(c, err)
	}

	return s.issue(c, fiber.StatusCreated, user)
}

// Login handles POST /auth/login
// @Summary Login
// @Description Exchange email and password for a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentials true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	req, err := parseWrapped(c, (*credentials).inner)
	if err != nil {
		return s.respond(c, err)
	}

	user, err := s.authService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respond(c, err)
	}

	return s.issue(c, fiber.StatusOK, user)
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}
	return c.JSON(models.UserResponse{ID: who.UserID, Email: who.Email, Name: who.Name})
}

func (s *Server) issue(c *fiber.Ctx, status int, user *models.User) error {
	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return s.respond(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(AuthResponse{
		Token: signed,
		User:  user.Public(),
	})
}
