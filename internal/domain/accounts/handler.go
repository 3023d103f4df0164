package accounts

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehms/ehms/internal/platform/auth"
)

// Handler provides HTTP handlers for the accounts domain.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts login and password reset on the public group and the
// authenticated operations on the protected group.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/login", h.Login)
	public.POST("/auth/forgot-password", h.ForgotPassword)

	protected.POST("/auth/change-password", h.ChangePassword)
	protected.POST("/auth/logout", h.Logout)
}

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		EmployeeID string `json:"employeeId"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Login(c.Request().Context(), body.EmployeeID, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid employee id or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	err := h.svc.ChangePassword(c.Request().Context(), claims.EmployeeID,
		body.CurrentPassword, body.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
		case errors.Is(err, ErrAccountNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "account not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to change password")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password changed",
	})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var body struct {
		Email       string `json:"email"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.svc.ResetPassword(c.Request().Context(), body.Email, body.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAccountNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "no account with that email")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to reset password")
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "password reset",
	})
}

func (h *Handler) Logout(c echo.Context) error {
	token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bearer token required")
	}

	if err := h.svc.Logout(c.Request().Context(), token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "logged out",
	})
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
