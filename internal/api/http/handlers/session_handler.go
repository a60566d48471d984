package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-tracker/internal/api/dto"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/validation"
	"github.com/spec-kit/ticket-tracker/pkg/util"
)

// SessionHandler exposes the auth endpoints backing the login and signup
// pages.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	fields := validation.Fields{}
	if err := validation.Email(req.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.Password(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	if !fields.Valid() {
		return util.NewValidationError("login payload invalid", fieldDetails(fields))
	}

	user, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.sessions.Token(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{User: dto.NewUserResponse(*user), Token: token},
	})
}

// Signup handles POST /auth/signup.
func (h *SessionHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	fields := validation.Fields{}
	if err := validation.Name(req.Name); err != nil {
		fields["name"] = err.Error()
	}
	if err := validation.Email(req.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.Password(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	if err := validation.PasswordMatch(req.Password, req.ConfirmPassword); err != nil {
		fields["confirm_password"] = err.Error()
	}
	if !fields.Valid() {
		return util.NewValidationError("signup payload invalid", fieldDetails(fields))
	}

	user, err := h.sessions.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.sessions.Token(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.SessionResponse{User: dto.NewUserResponse(*user), Token: token},
	})
}

// Logout handles POST /auth/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me. A bearer token, when presented, is verified
// against its signature instead of the stored session.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return util.NewUnauthorized("malformed authorization header")
		}
		user, err := h.sessions.UserFromToken(token)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
	}

	user, err := h.sessions.CurrentUser(c.UserContext())
	if err != nil {
		return err
	}
	if user == nil {
		return util.NewUnauthorized("no active session")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(*user)})
}

// Token handles GET /auth/token. An empty token means no stored session; the
// token is not expiry-checked here.
func (h *SessionHandler) Token(c *fiber.Ctx) error {
	token, err := h.sessions.Token(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"token": token}})
}

// Status handles GET /auth/session.
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{"authenticated": h.sessions.IsAuthenticated(c.UserContext())},
	})
}

func fieldDetails(fields validation.Fields) map[string]any {
	details := make(map[string]any, len(fields))
	for field, message := range fields {
		details[field] = message
	}
	return details
}
