package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/amarinov1974/cmms-system-sub002/internal/api/dto"
	"github.com/amarinov1974/cmms-system-sub002/internal/service"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// UsersHandler serves authentication and user registration endpoints.
type UsersHandler struct {
	service *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{service: authService}
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, expiresAt, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      userResponse(user),
	}})
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.CompanyID == "" {
		return apperrors.NewValidationError("name, email, password, company_id required", nil)
	}
	if !req.Role.IsValid() {
		return apperrors.NewValidationError("unknown role", fiber.Map{"role": req.Role})
	}

	user, err := h.service.RegisterUser(c.Context(), service.RegisterUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		CompanyID: req.CompanyID,
		RegionID:  req.RegionID,
		StoreID:   req.StoreID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}
